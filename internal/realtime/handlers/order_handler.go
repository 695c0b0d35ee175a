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

// OrderHandler owns the order event surface. It relays order facts decided
// elsewhere: permission check, then envelope hydration, then fan-out and ack,
// so a rejected request never produces a broadcast.
type OrderHandler struct {
	rooms   ports.RoomManager
	queries ports.OrderQueries
	logger  *zap.SugaredLogger
}

func NewOrderHandler(rooms ports.RoomManager, queries ports.OrderQueries, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		rooms:   rooms,
		queries: queries,
		logger:  logger.Sugar(),
	}
}

// Register binds the order event table.
func (h *OrderHandler) Register(reg *dispatch.Registry) {
	reg.Handle("order:create", h.handleCreate)
	reg.Handle("order:update", h.handleUpdate)
	reg.Handle("order:status_change", h.handleStatusChange)
	reg.Handle("order:cancel", h.handleCancel)
	reg.Handle("order:mark_ready", h.handleMarkReady)
	reg.Handle("order:mark_delivered", h.handleMarkDelivered)
	reg.Handle("order:get_active", h.handleGetActive)
	reg.Handle("order:get_by_table", h.handleGetByTable)
	reg.Handle("order:get_kitchen_queue", h.handleGetKitchenQueue)
}

type orderRequest struct {
	OrderID        string             `json:"orderId"`
	TableID        string             `json:"tableId"`
	CustomerID     string             `json:"customerId"`
	Status         domain.OrderStatus `json:"status"`
	PreviousStatus domain.OrderStatus `json:"previousStatus"`
	Items          []domain.OrderItem `json:"items"`
	Total          float64            `json:"total"`
	Notes          string             `json:"notes"`
}

func (h *OrderHandler) handleCreate(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req orderRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid order payload")
	}

	actor := sender.Identity()
	allowed := []domain.Role{domain.RoleWaiter, domain.RoleCashier, domain.RoleAdmin, domain.RoleOwner}
	// Self-service exception: a customer may create their own order.
	if !dispatch.CanAct(actor, allowed, domain.UserID(req.CustomerID)) {
		return apperrors.NewPermissionDenied("not allowed to create orders")
	}

	if len(req.Items) == 0 {
		return apperrors.NewInvalidData("items are required")
	}
	if err := validation.ValidateRecordID("orderId", req.OrderID); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}

	env := domain.OrderEnvelope{
		OrderID:    domain.OrderID(dispatch.EnsureID(req.OrderID, utils.GenerateOrderID)),
		TableID:    req.TableID,
		CustomerID: domain.UserID(req.CustomerID),
		Status:     domain.OrderPending,
		Items:      req.Items,
		Total:      req.Total,
		Notes:      utils.SanitizeString(req.Notes),
		UpdatedBy:  actor.UserID,
		Timestamp:  dispatch.Timestamp(),
	}

	h.rooms.EmitToRoom(domain.RoomOrders, "order:created", env)
	h.notifyCustomer(env.CustomerID, "order:created", env)

	return sender.Send("order:create_success", env)
}

func (h *OrderHandler) handleUpdate(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req orderRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid order payload")
	}

	actor := sender.Identity()
	allowed := []domain.Role{domain.RoleWaiter, domain.RoleAdmin, domain.RoleOwner}
	if !dispatch.CanAct(actor, allowed, "") {
		return apperrors.NewPermissionDenied("not allowed to update orders")
	}

	if err := validation.Required("orderId", req.OrderID); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}
	// Detail updates still relay a full envelope, so the status discriminator
	// must be a known one.
	if !req.Status.IsValid() {
		return apperrors.NewInvalidData("invalid order status")
	}

	env := domain.OrderEnvelope{
		OrderID:    domain.OrderID(req.OrderID),
		TableID:    req.TableID,
		CustomerID: domain.UserID(req.CustomerID),
		Status:     req.Status,
		Items:      req.Items,
		Total:      req.Total,
		Notes:      utils.SanitizeString(req.Notes),
		UpdatedBy:  actor.UserID,
		Timestamp:  dispatch.Timestamp(),
	}

	h.rooms.EmitToRoom(domain.RoomOrders, "order:updated", env)
	h.notifyCustomer(env.CustomerID, "order:updated", env)

	return sender.Send("order:update_success", env)
}

func (h *OrderHandler) handleStatusChange(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req orderRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid order payload")
	}

	// The target is validated before the role table is consulted: an unknown
	// status must never resolve to a role set, let alone reach a room.
	if !req.Status.IsValid() || req.Status == domain.OrderPending {
		return apperrors.NewInvalidData("invalid target status")
	}

	actor := sender.Identity()
	allowed := domain.OrderRolesFor(req.Status)
	// The owning customer may cancel their own order; no other transition
	// has a self-service exception.
	owner := domain.UserID("")
	if req.Status == domain.OrderCancelled {
		owner = domain.UserID(req.CustomerID)
	}
	if !dispatch.CanAct(actor, allowed, owner) {
		return apperrors.NewPermissionDenied("not allowed to change order status")
	}

	if err := validation.Required("orderId", req.OrderID); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}
	if req.PreviousStatus != "" && !domain.CanTransitionOrder(req.PreviousStatus, req.Status) {
		return apperrors.NewInvalidData(domain.ErrInvalidTransition.Error())
	}

	env := domain.OrderEnvelope{
		OrderID:    domain.OrderID(req.OrderID),
		TableID:    req.TableID,
		CustomerID: domain.UserID(req.CustomerID),
		Status:     req.Status,
		UpdatedBy:  actor.UserID,
		Timestamp:  dispatch.Timestamp(),
	}

	h.broadcastStatus(env)

	return sender.Send("order:status_change_success", env)
}

func (h *OrderHandler) handleCancel(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req orderRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid order payload")
	}

	actor := sender.Identity()
	allowed := []domain.Role{domain.RoleWaiter, domain.RoleAdmin, domain.RoleOwner}
	if !dispatch.CanAct(actor, allowed, domain.UserID(req.CustomerID)) {
		return apperrors.NewPermissionDenied("not allowed to cancel this order")
	}

	if err := validation.Required("orderId", req.OrderID); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}

	env := domain.OrderEnvelope{
		OrderID:    domain.OrderID(req.OrderID),
		TableID:    req.TableID,
		CustomerID: domain.UserID(req.CustomerID),
		Status:     domain.OrderCancelled,
		Notes:      utils.SanitizeString(req.Notes),
		UpdatedBy:  actor.UserID,
		Timestamp:  dispatch.Timestamp(),
	}

	h.broadcastStatus(env)

	return sender.Send("order:cancel_success", env)
}

func (h *OrderHandler) handleMarkReady(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	return h.handleFixedStatus(sender, payload, domain.OrderReady, "order:mark_ready_success")
}

func (h *OrderHandler) handleMarkDelivered(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	return h.handleFixedStatus(sender, payload, domain.OrderDelivered, "order:mark_delivered_success")
}

func (h *OrderHandler) handleFixedStatus(sender ports.Subscriber, payload json.RawMessage, status domain.OrderStatus, ackEvent string) error {
	var req orderRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid order payload")
	}

	actor := sender.Identity()
	if !dispatch.CanAct(actor, domain.OrderRolesFor(status), "") {
		return apperrors.NewPermissionDenied("not allowed to change order status")
	}

	if err := validation.Required("orderId", req.OrderID); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}

	env := domain.OrderEnvelope{
		OrderID:    domain.OrderID(req.OrderID),
		TableID:    req.TableID,
		CustomerID: domain.UserID(req.CustomerID),
		Status:     status,
		UpdatedBy:  actor.UserID,
		Timestamp:  dispatch.Timestamp(),
	}

	h.broadcastStatus(env)

	return sender.Send(ackEvent, env)
}

// broadcastStatus applies the per-status target table. Ready is the kitchen
// to front-of-house handoff, so it goes to waiter-side roles; preparing goes
// to kitchen-side roles; everything else lands in the orders room. The
// owning customer is always additionally notified directly.
func (h *OrderHandler) broadcastStatus(env domain.OrderEnvelope) {
	switch env.Status {
	case domain.OrderReady:
		h.rooms.EmitToRoles([]domain.Role{domain.RoleOwner, domain.RoleAdmin, domain.RoleWaiter}, "order:status_changed", env)
	case domain.OrderPreparing:
		h.rooms.EmitToRoles([]domain.Role{domain.RoleKitchen, domain.RoleAdmin, domain.RoleOwner}, "order:status_changed", env)
	default:
		h.rooms.EmitToRoom(domain.RoomOrders, "order:status_changed", env)
	}
	h.notifyCustomer(env.CustomerID, "order:status_changed", env)
}

func (h *OrderHandler) notifyCustomer(customer domain.UserID, event string, env domain.OrderEnvelope) {
	if customer == "" {
		return
	}
	h.rooms.EmitToUser(customer, event, env)
}

type orderTableQuery struct {
	TableID string `json:"tableId"`
}

func (h *OrderHandler) handleGetActive(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	actor := sender.Identity()
	if !actor.Role.IsStaff() {
		return apperrors.NewPermissionDenied("not allowed to list active orders")
	}

	orders, err := h.queries.Active(ctx)
	if err != nil {
		return err
	}
	return sender.Send("order:get_active_success", map[string]interface{}{"orders": orders})
}

func (h *OrderHandler) handleGetByTable(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req orderTableQuery
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid query payload")
	}

	actor := sender.Identity()
	if !actor.Role.IsStaff() {
		return apperrors.NewPermissionDenied("not allowed to list orders by table")
	}
	if err := validation.Required("tableId", req.TableID); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}

	orders, err := h.queries.ByTable(ctx, domain.TableID(req.TableID))
	if err != nil {
		return err
	}
	return sender.Send("order:get_by_table_success", map[string]interface{}{
		"tableId": req.TableID,
		"orders":  orders,
	})
}

func (h *OrderHandler) handleGetKitchenQueue(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	actor := sender.Identity()
	allowed := []domain.Role{domain.RoleKitchen, domain.RoleBaker, domain.RoleAdmin, domain.RoleOwner}
	if !dispatch.CanAct(actor, allowed, "") {
		return apperrors.NewPermissionDenied("not allowed to view the kitchen queue")
	}

	orders, err := h.queries.KitchenQueue(ctx)
	if err != nil {
		return err
	}
	return sender.Send("order:get_kitchen_queue_success", map[string]interface{}{"orders": orders})
}
