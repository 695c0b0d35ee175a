package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"platewire/internal/core/ports"
	"platewire/internal/infrastructure/monitoring"
	apperrors "platewire/pkg/errors"
	"platewire/pkg/tracing"

	"go.uber.org/zap"
)

// HandlerFunc processes one inbound event. A returned *AppError becomes the
// sender's error envelope; any other error (or a panic) is surfaced as
// INTERNAL_ERROR. Handlers run to completion synchronously; concurrency
// exists only across connections.
type HandlerFunc func(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error

// Registry is the fixed event-name-to-handler table shared by all domain
// handlers, plus the error boundary that keeps handler failures on the
// originating connection.
type Registry struct {
	handlers map[string]HandlerFunc
	metrics  *monitoring.Collector
	logger   *zap.SugaredLogger
}

func NewRegistry(metrics *monitoring.Collector, logger *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
		metrics:  metrics,
		logger:   logger.Sugar(),
	}
}

// Handle binds an event name to its processing function. Registration
// happens once at startup; the table is read-only afterwards.
func (r *Registry) Handle(event string, fn HandlerFunc) {
	if _, exists := r.handlers[event]; exists {
		panic(fmt.Sprintf("dispatch: duplicate handler for event %q", event))
	}
	r.handlers[event] = fn
}

// Events returns the registered event names; used by tests to assert the
// surface is complete.
func (r *Registry) Events() []string {
	events := make([]string, 0, len(r.handlers))
	for e := range r.handlers {
		events = append(events, e)
	}
	return events
}

// Dispatch routes one message to its handler. Errors are converted to the
// canonical error envelope and sent to the sender only, never broadcast.
func (r *Registry) Dispatch(ctx context.Context, sender ports.Subscriber, msg EventMessage) {
	identity := sender.Identity()
	ctx, span := tracing.TraceEvent(ctx, msg.Type, string(identity.UserID), string(identity.Role))
	defer span.End()

	if r.metrics != nil {
		r.metrics.EventReceived(msg.Type)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic: %v", rec)
			r.logger.Errorw("handler panicked",
				"event", msg.Type,
				"user_id", identity.UserID,
				"panic", rec,
			)
			tracing.RecordError(ctx, err)
			r.sendError(sender, msg.Type, apperrors.NewInternal("internal error", err))
		}
	}()

	handler, ok := r.handlers[msg.Type]
	if !ok {
		r.logger.Warnw("unknown event", "event", msg.Type, "user_id", identity.UserID)
		r.sendError(sender, msg.Type, apperrors.NewInvalidData(fmt.Sprintf("unknown event: %s", msg.Type)))
		return
	}

	if err := handler(ctx, sender, msg.Payload); err != nil {
		appErr := apperrors.AsAppError(err)
		if appErr == nil {
			appErr = apperrors.NewInternal("internal error", err)
			r.logger.Errorw("handler failed",
				"event", msg.Type,
				"user_id", identity.UserID,
				"error", err,
			)
		} else {
			r.logger.Infow("request rejected",
				"event", msg.Type,
				"user_id", identity.UserID,
				"code", appErr.Code,
				"reason", appErr.Message,
			)
		}
		tracing.RecordError(ctx, err)
		r.sendError(sender, msg.Type, appErr)
	}
}

func (r *Registry) sendError(sender ports.Subscriber, requestEvent string, appErr *apperrors.AppError) {
	if r.metrics != nil {
		r.metrics.ErrorEmitted(string(appErr.Code))
	}
	payload := ErrorPayload{Message: appErr.Message, Code: appErr.Code}
	if err := sender.Send(ErrorEvent(requestEvent), payload); err != nil {
		r.logger.Debugw("failed to deliver error envelope",
			"event", requestEvent,
			"connection_id", sender.Identity().ConnectionID,
			"error", err,
		)
	}
}
