package handlers

import (
	"context"
	"encoding/json"

	"platewire/internal/core/domain"
	"platewire/internal/core/ports"
	"platewire/internal/realtime/dispatch"
	apperrors "platewire/pkg/errors"
	"platewire/pkg/utils"
	"platewire/pkg/validation"

	"go.uber.org/zap"
)

// TableHandler owns the table status machine and the reservation
// sub-machine. Reservations are the one place customers get write access:
// they may create their own (entering at pending) and update or cancel a
// reservation they own.
type TableHandler struct {
	rooms   ports.RoomManager
	queries ports.TableQueries
	logger  *zap.SugaredLogger
}

func NewTableHandler(rooms ports.RoomManager, queries ports.TableQueries, logger *zap.Logger) *TableHandler {
	return &TableHandler{
		rooms:   rooms,
		queries: queries,
		logger:  logger.Sugar(),
	}
}

func (h *TableHandler) Register(reg *dispatch.Registry) {
	reg.Handle("table:update_status", h.handleUpdateStatus)
	reg.Handle("table:occupy", h.fixedStatus(domain.TableOccupied, "table:occupy_success"))
	reg.Handle("table:free", h.fixedStatus(domain.TableAvailable, "table:free_success"))
	reg.Handle("table:start_cleaning", h.fixedStatus(domain.TableCleaning, "table:start_cleaning_success"))
	reg.Handle("table:finish_cleaning", h.fixedStatus(domain.TableAvailable, "table:finish_cleaning_success"))
	reg.Handle("table:create_reservation", h.handleCreateReservation)
	reg.Handle("table:update_reservation", h.handleUpdateReservation)
	reg.Handle("table:cancel_reservation", h.reservationTransition(domain.ReservationCancelled, "table:cancel_reservation_success", true))
	reg.Handle("table:confirm_reservation", h.reservationTransition(domain.ReservationConfirmed, "table:confirm_reservation_success", false))
	reg.Handle("table:seat_reservation", h.reservationTransition(domain.ReservationSeated, "table:seat_reservation_success", false))
	reg.Handle("table:mark_no_show", h.reservationTransition(domain.ReservationNoShow, "table:mark_no_show_success", false))
	reg.Handle("table:get_available", h.handleGetAvailable)
	reg.Handle("table:get_all", h.handleGetAll)
}

var tableStaff = []domain.Role{domain.RoleWaiter, domain.RoleAdmin, domain.RoleOwner}

type tableRequest struct {
	TableID        string             `json:"tableId"`
	Number         int                `json:"number"`
	Status         domain.TableStatus `json:"status"`
	PreviousStatus domain.TableStatus `json:"previousStatus"`
}

func (h *TableHandler) handleUpdateStatus(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req tableRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid table payload")
	}

	if !dispatch.CanAct(sender.Identity(), tableStaff, "") {
		return apperrors.NewPermissionDenied("not allowed to change table status")
	}

	if err := validation.Required("tableId", req.TableID); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}
	if !req.Status.IsValid() {
		return apperrors.NewInvalidData("invalid table status")
	}
	if req.PreviousStatus != "" && !domain.CanTransitionTable(req.PreviousStatus, req.Status) {
		return apperrors.NewInvalidData(domain.ErrInvalidTransition.Error())
	}

	env := h.broadcastStatus(sender, req, req.Status)
	return sender.Send("table:update_status_success", env)
}

// fixedStatus builds a handler for the shorthand status actions (occupy,
// free, start_cleaning, finish_cleaning); they differ from update_status
// only in that the target status is fixed by the event name.
func (h *TableHandler) fixedStatus(status domain.TableStatus, ackEvent string) dispatch.HandlerFunc {
	return func(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
		var req tableRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return apperrors.NewInvalidData("invalid table payload")
		}

		if !dispatch.CanAct(sender.Identity(), tableStaff, "") {
			return apperrors.NewPermissionDenied("not allowed to change table status")
		}
		if err := validation.Required("tableId", req.TableID); err != nil {
			return apperrors.NewInvalidData(err.Error())
		}
		if req.PreviousStatus != "" && !domain.CanTransitionTable(req.PreviousStatus, status) {
			return apperrors.NewInvalidData(domain.ErrInvalidTransition.Error())
		}

		env := h.broadcastStatus(sender, req, status)
		return sender.Send(ackEvent, env)
	}
}

func (h *TableHandler) broadcastStatus(sender ports.Subscriber, req tableRequest, status domain.TableStatus) domain.TableEnvelope {
	env := domain.TableEnvelope{
		TableID:   domain.TableID(req.TableID),
		Number:    req.Number,
		Status:    status,
		UpdatedBy: sender.Identity().UserID,
		Timestamp: dispatch.Timestamp(),
	}
	h.rooms.EmitToRoom(domain.RoomTables, "table:status_changed", env)
	return env
}

type reservationRequest struct {
	ReservationID  string                   `json:"reservationId"`
	TableID        string                   `json:"tableId"`
	CustomerID     string                   `json:"customerId"`
	CustomerName   string                   `json:"customerName"`
	PartySize      int                      `json:"partySize"`
	ReservedFor    string                   `json:"reservedFor"`
	PreviousStatus domain.ReservationStatus `json:"previousStatus"`
}

func (h *TableHandler) handleCreateReservation(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req reservationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid reservation payload")
	}

	actor := sender.Identity()
	// Any role may create a reservation; the creator's role decides the
	// initial status instead (customer -> pending, staff -> confirmed).
	if req.CustomerID == "" {
		req.CustomerID = string(actor.UserID)
	}
	if req.PartySize <= 0 {
		return apperrors.NewInvalidData("partySize must be positive")
	}
	if err := validation.ValidateRecordID("reservationId", req.ReservationID); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}

	env := domain.ReservationEnvelope{
		ReservationID: domain.ReservationID(dispatch.EnsureID(req.ReservationID, utils.GenerateReservationID)),
		TableID:       domain.TableID(req.TableID),
		CustomerID:    domain.UserID(req.CustomerID),
		CustomerName:  utils.SanitizeString(req.CustomerName),
		PartySize:     req.PartySize,
		Status:        domain.InitialReservationStatus(actor.Role),
		ReservedFor:   req.ReservedFor,
		UpdatedBy:     actor.UserID,
		Timestamp:     dispatch.Timestamp(),
	}

	h.broadcastReservation(env, "table:reservation_created")
	return sender.Send("table:create_reservation_success", env)
}

func (h *TableHandler) handleUpdateReservation(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req reservationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid reservation payload")
	}

	actor := sender.Identity()
	// Staff, or the reservation's own customer.
	if !dispatch.CanAct(actor, tableStaff, domain.UserID(req.CustomerID)) {
		return apperrors.NewPermissionDenied("not allowed to update this reservation")
	}

	if err := validation.Required("reservationId", req.ReservationID); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}
	// A detail update leaves the status unchanged, so the envelope echoes the
	// current one; the client must supply it and it must be a known status.
	if req.PreviousStatus == "" {
		return apperrors.NewInvalidData("previousStatus is required")
	}
	if !req.PreviousStatus.IsValid() {
		return apperrors.NewInvalidData("invalid reservation status")
	}

	env := domain.ReservationEnvelope{
		ReservationID: domain.ReservationID(req.ReservationID),
		TableID:       domain.TableID(req.TableID),
		CustomerID:    domain.UserID(req.CustomerID),
		CustomerName:  utils.SanitizeString(req.CustomerName),
		PartySize:     req.PartySize,
		Status:        req.PreviousStatus,
		ReservedFor:   req.ReservedFor,
		UpdatedBy:     actor.UserID,
		Timestamp:     dispatch.Timestamp(),
	}

	h.broadcastReservation(env, "table:reservation_updated")
	return sender.Send("table:update_reservation_success", env)
}

// reservationTransition builds the handlers that move a reservation through
// its state machine. selfService marks transitions the owning customer may
// perform (cancel); the rest are staff-only.
func (h *TableHandler) reservationTransition(to domain.ReservationStatus, ackEvent string, selfService bool) dispatch.HandlerFunc {
	return func(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
		var req reservationRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return apperrors.NewInvalidData("invalid reservation payload")
		}

		actor := sender.Identity()
		owner := domain.UserID("")
		if selfService {
			owner = domain.UserID(req.CustomerID)
		}
		if !dispatch.CanAct(actor, tableStaff, owner) {
			return apperrors.NewPermissionDenied("not allowed to change this reservation")
		}

		if err := validation.Required("reservationId", req.ReservationID); err != nil {
			return apperrors.NewInvalidData(err.Error())
		}
		if req.PreviousStatus != "" && !domain.CanTransitionReservation(req.PreviousStatus, to) {
			return apperrors.NewInvalidData(domain.ErrInvalidTransition.Error())
		}

		env := domain.ReservationEnvelope{
			ReservationID: domain.ReservationID(req.ReservationID),
			TableID:       domain.TableID(req.TableID),
			CustomerID:    domain.UserID(req.CustomerID),
			Status:        to,
			UpdatedBy:     actor.UserID,
			Timestamp:     dispatch.Timestamp(),
		}

		h.broadcastReservation(env, "table:reservation_status_changed")
		return sender.Send(ackEvent, env)
	}
}

// broadcastReservation delivers to the tables room and always notifies the
// reservation's customer directly, matching the order domain's pattern.
func (h *TableHandler) broadcastReservation(env domain.ReservationEnvelope, event string) {
	h.rooms.EmitToRoom(domain.RoomTables, event, env)
	if env.CustomerID != "" {
		h.rooms.EmitToUser(env.CustomerID, event, env)
	}
}

func (h *TableHandler) handleGetAvailable(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	// Deliberately broad: customers may fetch available tables.
	tables, err := h.queries.Available(ctx)
	if err != nil {
		return err
	}
	return sender.Send("table:get_available_success", map[string]interface{}{"tables": tables})
}

func (h *TableHandler) handleGetAll(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	if !sender.Identity().Role.IsStaff() {
		return apperrors.NewPermissionDenied("not allowed to list all tables")
	}

	tables, err := h.queries.All(ctx)
	if err != nil {
		return err
	}
	return sender.Send("table:get_all_success", map[string]interface{}{"tables": tables})
}
