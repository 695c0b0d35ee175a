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

// InventoryHandler relays stock facts and derives alert escalation. It never
// computes new stock totals itself; the client reports the resulting level
// and the handler classifies and fans it out.
type InventoryHandler struct {
	rooms   ports.RoomManager
	queries ports.InventoryQueries
	logger  *zap.SugaredLogger
}

func NewInventoryHandler(rooms ports.RoomManager, queries ports.InventoryQueries, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		rooms:   rooms,
		queries: queries,
		logger:  logger.Sugar(),
	}
}

func (h *InventoryHandler) Register(reg *dispatch.Registry) {
	reg.Handle("inventory:update_stock", h.handleUpdateStock)
	reg.Handle("inventory:stock_movement", h.handleStockMovement)
	reg.Handle("inventory:receive_shipment", h.handleReceiveShipment)
	reg.Handle("inventory:set_min_stock", h.handleSetMinStock)
	reg.Handle("inventory:acknowledge_alert", h.handleAcknowledgeAlert)
	reg.Handle("inventory:reorder_request", h.handleReorderRequest)
	reg.Handle("inventory:check_low_stock", h.handleCheckLowStock)
	reg.Handle("inventory:get_alerts", h.handleGetAlerts)
	reg.Handle("inventory:get_all", h.handleGetAll)
}

// Roles that physically handle stock.
var stockRoles = []domain.Role{domain.RoleKitchen, domain.RoleBaker, domain.RoleAdmin, domain.RoleOwner}

// Roles escalated to when a product goes critical or runs out.
var alertRoles = []domain.Role{domain.RoleOwner, domain.RoleAdmin, domain.RoleKitchen}

type stockRequest struct {
	ProductID    string   `json:"productId"`
	Name         string   `json:"name"`
	CurrentStock *float64 `json:"currentStock"`
	MinStock     float64  `json:"minStock"`
	Unit         string   `json:"unit"`
}

func (h *InventoryHandler) handleUpdateStock(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req stockRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid stock payload")
	}

	actor := sender.Identity()
	if !dispatch.CanAct(actor, stockRoles, "") {
		return apperrors.NewPermissionDenied("not allowed to update stock")
	}

	if err := validation.Required("productId", req.ProductID); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}
	// Zero is a legal level (out of stock), so absence must be distinguishable.
	if req.CurrentStock == nil {
		return apperrors.NewInvalidData("currentStock is required")
	}

	env := domain.StockEnvelope{
		ProductID:    domain.ProductID(req.ProductID),
		Name:         utils.SanitizeString(req.Name),
		CurrentStock: *req.CurrentStock,
		MinStock:     req.MinStock,
		Unit:         req.Unit,
		AlertLevel:   domain.ClassifyStock(*req.CurrentStock, req.MinStock),
		UpdatedBy:    actor.UserID,
		Timestamp:    dispatch.Timestamp(),
	}

	h.rooms.EmitToRooms([]domain.RoomName{domain.RoomInventory, domain.RoomKitchen}, "inventory:stock_updated", env)
	h.escalate(env)

	return sender.Send("inventory:update_stock_success", env)
}

// escalate routes the alert by severity. Critical and out_of_stock reach
// management and the kitchen wherever they are; low stays inside the
// inventory room; none produces no alert at all.
func (h *InventoryHandler) escalate(env domain.StockEnvelope) {
	switch env.AlertLevel {
	case domain.AlertCritical, domain.AlertOutOfStock:
		h.rooms.EmitToRoles(alertRoles, "inventory:stock_alert", env)
	case domain.AlertLow:
		h.rooms.EmitToRoom(domain.RoomInventory, "inventory:stock_alert", env)
	}
}

type movementRequest struct {
	MovementID string              `json:"movementId"`
	ProductID  string              `json:"productId"`
	Type       domain.MovementType `json:"type"`
	Quantity   float64             `json:"quantity"`
	Reason     string              `json:"reason"`
}

func (h *InventoryHandler) handleStockMovement(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req movementRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid movement payload")
	}

	actor := sender.Identity()
	if !dispatch.CanAct(actor, stockRoles, "") {
		return apperrors.NewPermissionDenied("not allowed to record stock movements")
	}

	if err := validation.Required("productId", req.ProductID); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}
	if !req.Type.IsValid() {
		return apperrors.NewInvalidData("invalid movement type")
	}
	if req.Quantity <= 0 {
		return apperrors.NewInvalidData("quantity must be positive")
	}

	env := domain.MovementEnvelope{
		MovementID:  dispatch.EnsureID(req.MovementID, utils.GenerateMovementID),
		ProductID:   domain.ProductID(req.ProductID),
		Type:        req.Type,
		Quantity:    req.Quantity,
		Reason:      utils.SanitizeString(req.Reason),
		PerformedBy: actor.UserID,
		Timestamp:   dispatch.Timestamp(),
	}

	h.rooms.EmitToRooms([]domain.RoomName{domain.RoomInventory, domain.RoomAdmin}, "inventory:movement_recorded", env)

	return sender.Send("inventory:stock_movement_success", env)
}

// handleReceiveShipment is a shorthand for an inbound movement; the kitchen
// also hears about it because arriving goods unblock prep work.
func (h *InventoryHandler) handleReceiveShipment(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req movementRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid shipment payload")
	}

	actor := sender.Identity()
	if !dispatch.CanAct(actor, stockRoles, "") {
		return apperrors.NewPermissionDenied("not allowed to receive shipments")
	}

	if err := validation.Required("productId", req.ProductID); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}
	if req.Quantity <= 0 {
		return apperrors.NewInvalidData("quantity must be positive")
	}

	env := domain.MovementEnvelope{
		MovementID:  dispatch.EnsureID(req.MovementID, utils.GenerateMovementID),
		ProductID:   domain.ProductID(req.ProductID),
		Type:        domain.MovementIn,
		Quantity:    req.Quantity,
		Reason:      utils.SanitizeString(req.Reason),
		PerformedBy: actor.UserID,
		Timestamp:   dispatch.Timestamp(),
	}

	h.rooms.EmitToRooms([]domain.RoomName{domain.RoomInventory, domain.RoomKitchen}, "inventory:shipment_received", env)

	return sender.Send("inventory:receive_shipment_success", env)
}

func (h *InventoryHandler) handleSetMinStock(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req stockRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid stock payload")
	}

	actor := sender.Identity()
	if !dispatch.HasPermission(actor.Role, []domain.Role{domain.RoleAdmin, domain.RoleOwner}) {
		return apperrors.NewPermissionDenied("not allowed to change stock thresholds")
	}

	if err := validation.Required("productId", req.ProductID); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}
	if req.MinStock < 0 {
		return apperrors.NewInvalidData("minStock cannot be negative")
	}

	env := domain.StockEnvelope{
		ProductID: domain.ProductID(req.ProductID),
		MinStock:  req.MinStock,
		UpdatedBy: actor.UserID,
		Timestamp: dispatch.Timestamp(),
	}
	// A changed threshold can flip the alert level when the client also
	// reports the current level.
	if req.CurrentStock != nil {
		env.CurrentStock = *req.CurrentStock
		env.AlertLevel = domain.ClassifyStock(*req.CurrentStock, req.MinStock)
	}

	h.rooms.EmitToRoom(domain.RoomInventory, "inventory:min_stock_changed", env)
	h.escalate(env)

	return sender.Send("inventory:set_min_stock_success", env)
}

type alertRequest struct {
	ProductID string `json:"productId"`
	Note      string `json:"note"`
}

func (h *InventoryHandler) handleAcknowledgeAlert(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req alertRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid alert payload")
	}

	actor := sender.Identity()
	if !dispatch.HasPermission(actor.Role, []domain.Role{domain.RoleKitchen, domain.RoleAdmin, domain.RoleOwner}) {
		return apperrors.NewPermissionDenied("not allowed to acknowledge alerts")
	}

	if err := validation.Required("productId", req.ProductID); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}

	ack := map[string]interface{}{
		"productId":      req.ProductID,
		"acknowledgedBy": actor.UserID,
		"note":           utils.SanitizeString(req.Note),
		"timestamp":      dispatch.Timestamp(),
	}

	h.rooms.EmitToRoom(domain.RoomInventory, "inventory:alert_acknowledged", ack)

	return sender.Send("inventory:acknowledge_alert_success", ack)
}

func (h *InventoryHandler) handleReorderRequest(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req movementRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid reorder payload")
	}

	actor := sender.Identity()
	if !dispatch.CanAct(actor, stockRoles, "") {
		return apperrors.NewPermissionDenied("not allowed to request reorders")
	}

	if err := validation.Required("productId", req.ProductID); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}

	request := map[string]interface{}{
		"productId":   req.ProductID,
		"quantity":    req.Quantity,
		"reason":      utils.SanitizeString(req.Reason),
		"requestedBy": actor.UserID,
		"timestamp":   dispatch.Timestamp(),
	}

	// Purchasing decisions sit with management, so the request bypasses the
	// inventory room and goes straight to them.
	h.rooms.EmitToRoles([]domain.Role{domain.RoleOwner, domain.RoleAdmin}, "inventory:reorder_requested", request)

	return sender.Send("inventory:reorder_request_success", request)
}

func (h *InventoryHandler) handleCheckLowStock(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	if !sender.Identity().Role.IsStaff() {
		return apperrors.NewPermissionDenied("not allowed to view stock levels")
	}

	products, err := h.queries.LowStock(ctx)
	if err != nil {
		return err
	}
	return sender.Send("inventory:check_low_stock_success", map[string]interface{}{"products": products})
}

// handleGetAlerts is the alert-centric view of the same low-stock query.
func (h *InventoryHandler) handleGetAlerts(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	if !sender.Identity().Role.IsStaff() {
		return apperrors.NewPermissionDenied("not allowed to view stock alerts")
	}

	products, err := h.queries.LowStock(ctx)
	if err != nil {
		return err
	}
	return sender.Send("inventory:get_alerts_success", map[string]interface{}{"alerts": products})
}

func (h *InventoryHandler) handleGetAll(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	if !sender.Identity().Role.IsStaff() {
		return apperrors.NewPermissionDenied("not allowed to view stock levels")
	}

	products, err := h.queries.All(ctx)
	if err != nil {
		return err
	}
	return sender.Send("inventory:get_all_success", map[string]interface{}{"products": products})
}
