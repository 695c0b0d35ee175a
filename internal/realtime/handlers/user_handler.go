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

// UserHandler covers staff presence, shifts, breaks, and person-to-person
// messaging. Presence is always recorded before it is announced, so a
// GetOnlineUsers reader can never observe a broadcast status the repository
// does not yet hold.
type UserHandler struct {
	rooms  ports.RoomManager
	logger *zap.SugaredLogger
}

func NewUserHandler(rooms ports.RoomManager, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		rooms:  rooms,
		logger: logger.Sugar(),
	}
}

func (h *UserHandler) Register(reg *dispatch.Registry) {
	reg.Handle("user:update_status", h.handleUpdateStatus)
	reg.Handle("user:update_location", h.handleUpdateLocation)
	reg.Handle("user:start_shift", h.presenceShorthand(domain.PresenceOnline, "user:shift_started", "user:start_shift_success"))
	reg.Handle("user:end_shift", h.presenceShorthand(domain.PresenceOffline, "user:shift_ended", "user:end_shift_success"))
	reg.Handle("user:start_break", h.presenceShorthand(domain.PresenceAway, "user:break_started", "user:start_break_success"))
	reg.Handle("user:end_break", h.presenceShorthand(domain.PresenceOnline, "user:break_ended", "user:end_break_success"))
	reg.Handle("user:get_online", h.handleGetOnline)
	reg.Handle("user:send_notification", h.handleSendNotification)
	reg.Handle("user:send_message", h.handleSendMessage)
	reg.Handle("user:broadcast_announcement", h.handleBroadcastAnnouncement)
}

type statusRequest struct {
	Status   domain.PresenceStatus `json:"status"`
	Location string                `json:"location"`
}

func (h *UserHandler) handleUpdateStatus(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req statusRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid status payload")
	}

	actor := sender.Identity()
	if !actor.Role.IsStaff() {
		return apperrors.NewPermissionDenied("only staff broadcast presence")
	}
	if !req.Status.IsValid() {
		return apperrors.NewInvalidData("invalid presence status")
	}

	return h.setPresence(ctx, sender, req.Status, req.Location, "user:status_changed", "user:update_status_success")
}

// presenceShorthand builds the shift and break handlers. Each is a fixed
// presence transition with its own broadcast event name.
func (h *UserHandler) presenceShorthand(status domain.PresenceStatus, broadcastEvent, ackEvent string) dispatch.HandlerFunc {
	return func(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
		var req statusRequest
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				return apperrors.NewInvalidData("invalid payload")
			}
		}

		if !sender.Identity().Role.IsStaff() {
			return apperrors.NewPermissionDenied("only staff broadcast presence")
		}

		return h.setPresence(ctx, sender, status, req.Location, broadcastEvent, ackEvent)
	}
}

// setPresence records the status first, then announces it. Order matters:
// the repository is the source of truth for GetOnlineUsers.
func (h *UserHandler) setPresence(ctx context.Context, sender ports.Subscriber, status domain.PresenceStatus, location, broadcastEvent, ackEvent string) error {
	actor := sender.Identity()

	if err := h.rooms.UpdateUserStatus(ctx, actor.UserID, status); err != nil {
		return apperrors.NewInternal("failed to record presence", err)
	}

	env := domain.StaffEnvelope{
		UserID:      actor.UserID,
		DisplayName: actor.DisplayName,
		Role:        actor.Role,
		Status:      status,
		Location:    location,
		Timestamp:   dispatch.Timestamp(),
	}

	h.rooms.EmitToRoom(domain.RoomAllStaff, broadcastEvent, env)

	return sender.Send(ackEvent, env)
}

func (h *UserHandler) handleUpdateLocation(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req statusRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid location payload")
	}

	actor := sender.Identity()
	if !actor.Role.IsStaff() {
		return apperrors.NewPermissionDenied("only staff broadcast location")
	}
	if err := validation.Required("location", req.Location); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}

	env := domain.StaffEnvelope{
		UserID:      actor.UserID,
		DisplayName: actor.DisplayName,
		Role:        actor.Role,
		Location:    utils.SanitizeString(req.Location),
		Timestamp:   dispatch.Timestamp(),
	}

	// Location changes are informational only; presence is untouched.
	h.rooms.EmitToRoom(domain.RoomAllStaff, "user:location_changed", env)

	return sender.Send("user:update_location_success", env)
}

func (h *UserHandler) handleGetOnline(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	if !sender.Identity().Role.IsStaff() {
		return apperrors.NewPermissionDenied("not allowed to list online users")
	}

	entries, err := h.rooms.GetOnlineUsers(ctx)
	if err != nil {
		return apperrors.NewInternal("failed to list online users", err)
	}
	return sender.Send("user:get_online_success", map[string]interface{}{"users": entries})
}

type notificationRequest struct {
	ToUserID string        `json:"toUserId"`
	Roles    []domain.Role `json:"roles"`
	Title    string        `json:"title"`
	Message  string        `json:"message"`
	Priority string        `json:"priority"`
}

func (h *UserHandler) handleSendNotification(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req notificationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid notification payload")
	}

	actor := sender.Identity()
	if !actor.Role.IsStaff() {
		return apperrors.NewPermissionDenied("only staff send notifications")
	}
	if err := validation.Required("message", req.Message); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}

	env := domain.NotificationEnvelope{
		NotificationID: utils.GenerateNotificationID(),
		Title:          utils.SanitizeString(req.Title),
		Message:        utils.SanitizeString(req.Message),
		Priority:       req.Priority,
		From:           actor.UserID,
		FromName:       actor.DisplayName,
		Timestamp:      dispatch.Timestamp(),
	}

	// Addressing precedence: explicit user, then role list, then everyone.
	switch {
	case req.ToUserID != "":
		h.rooms.EmitToUser(domain.UserID(req.ToUserID), "user:notification", env)
	case len(req.Roles) > 0:
		h.rooms.EmitToRoles(req.Roles, "user:notification", env)
	default:
		h.rooms.EmitToRoom(domain.RoomAllStaff, "user:notification", env)
	}

	return sender.Send("user:send_notification_success", env)
}

func (h *UserHandler) handleSendMessage(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req notificationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid message payload")
	}

	actor := sender.Identity()
	if !actor.Role.IsStaff() {
		return apperrors.NewPermissionDenied("only staff send direct messages")
	}
	if err := validation.RequiredAll(map[string]string{
		"toUserId": req.ToUserID,
		"message":  req.Message,
	}); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}

	env := domain.NotificationEnvelope{
		NotificationID: utils.GenerateNotificationID(),
		Message:        utils.SanitizeString(req.Message),
		From:           actor.UserID,
		FromName:       actor.DisplayName,
		Timestamp:      dispatch.Timestamp(),
	}

	h.rooms.EmitToUser(domain.UserID(req.ToUserID), "user:message", env)

	return sender.Send("user:send_message_success", env)
}

func (h *UserHandler) handleBroadcastAnnouncement(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
	var req notificationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return apperrors.NewInvalidData("invalid announcement payload")
	}

	actor := sender.Identity()
	if !dispatch.HasPermission(actor.Role, []domain.Role{domain.RoleAdmin, domain.RoleOwner}) {
		return apperrors.NewPermissionDenied("not allowed to broadcast announcements")
	}
	if err := validation.Required("message", req.Message); err != nil {
		return apperrors.NewInvalidData(err.Error())
	}

	env := domain.NotificationEnvelope{
		NotificationID: utils.GenerateNotificationID(),
		Title:          utils.SanitizeString(req.Title),
		Message:        utils.SanitizeString(req.Message),
		Priority:       req.Priority,
		From:           actor.UserID,
		FromName:       actor.DisplayName,
		Timestamp:      dispatch.Timestamp(),
	}

	h.rooms.EmitToRoom(domain.RoomAllStaff, "user:announcement", env)

	return sender.Send("user:broadcast_announcement_success", env)
}
