package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"platewire/internal/core/domain"
	"platewire/internal/core/ports"
	apperrors "platewire/pkg/errors"
	"platewire/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSubscriber captures every frame pushed to it.
type recordingSubscriber struct {
	identity *domain.Connection
	events   []string
	payloads []interface{}
}

func newRecordingSubscriber(user domain.UserID, role domain.Role) *recordingSubscriber {
	return &recordingSubscriber{
		identity: &domain.Connection{
			ConnectionID: "conn-test",
			UserID:       user,
			Role:         role,
		},
	}
}

func (s *recordingSubscriber) Identity() *domain.Connection { return s.identity }

func (s *recordingSubscriber) Send(event string, payload interface{}) error {
	s.events = append(s.events, event)
	s.payloads = append(s.payloads, payload)
	return nil
}

func (s *recordingSubscriber) lastError(t *testing.T) ErrorPayload {
	t.Helper()
	require.NotEmpty(t, s.payloads)
	errPayload, ok := s.payloads[len(s.payloads)-1].(ErrorPayload)
	require.True(t, ok, "last payload is not an error envelope")
	return errPayload
}

func TestDispatchUnknownEvent(t *testing.T) {
	reg := NewRegistry(nil, logger.NewNop())
	sub := newRecordingSubscriber("u1", domain.RoleWaiter)

	reg.Dispatch(context.Background(), sub, EventMessage{Type: "order:fly_to_moon"})

	require.Len(t, sub.events, 1)
	assert.Equal(t, "order:error", sub.events[0])
	assert.Equal(t, apperrors.CodeInvalidData, sub.lastError(t).Code)
}

func TestDispatchSuccess(t *testing.T) {
	reg := NewRegistry(nil, logger.NewNop())
	sub := newRecordingSubscriber("u1", domain.RoleWaiter)

	var gotPayload json.RawMessage
	reg.Handle("order:noop", func(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
		gotPayload = payload
		return sender.Send("order:noop_success", nil)
	})

	reg.Dispatch(context.Background(), sub, EventMessage{
		Type:    "order:noop",
		Payload: json.RawMessage(`{"orderId":"o1"}`),
	})

	assert.JSONEq(t, `{"orderId":"o1"}`, string(gotPayload))
	require.Len(t, sub.events, 1)
	assert.Equal(t, "order:noop_success", sub.events[0])
}

func TestDispatchAppErrorBecomesEnvelope(t *testing.T) {
	reg := NewRegistry(nil, logger.NewNop())
	sub := newRecordingSubscriber("u1", domain.RoleCustomer)

	reg.Handle("table:denied", func(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
		return apperrors.NewPermissionDenied("nope")
	})

	reg.Dispatch(context.Background(), sub, EventMessage{Type: "table:denied"})

	require.Len(t, sub.events, 1)
	assert.Equal(t, "table:error", sub.events[0])
	env := sub.lastError(t)
	assert.Equal(t, apperrors.CodePermissionDenied, env.Code)
	assert.Equal(t, "nope", env.Message)
}

func TestDispatchUnexpectedErrorBecomesInternal(t *testing.T) {
	reg := NewRegistry(nil, logger.NewNop())
	sub := newRecordingSubscriber("u1", domain.RoleAdmin)

	reg.Handle("user:boom", func(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
		return errors.New("database exploded")
	})

	reg.Dispatch(context.Background(), sub, EventMessage{Type: "user:boom"})

	require.Len(t, sub.events, 1)
	assert.Equal(t, "user:error", sub.events[0])
	env := sub.lastError(t)
	assert.Equal(t, apperrors.CodeInternal, env.Code)
	// The raw cause never leaks to the client.
	assert.NotContains(t, env.Message, "database exploded")
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	reg := NewRegistry(nil, logger.NewNop())
	sub := newRecordingSubscriber("u1", domain.RoleAdmin)

	reg.Handle("user:panic", func(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error {
		panic("boom")
	})

	assert.NotPanics(t, func() {
		reg.Dispatch(context.Background(), sub, EventMessage{Type: "user:panic"})
	})

	require.Len(t, sub.events, 1)
	assert.Equal(t, "user:error", sub.events[0])
	assert.Equal(t, apperrors.CodeInternal, sub.lastError(t).Code)
}

func TestHandleRejectsDuplicates(t *testing.T) {
	reg := NewRegistry(nil, logger.NewNop())
	noop := func(ctx context.Context, sender ports.Subscriber, payload json.RawMessage) error { return nil }

	reg.Handle("order:create", noop)
	assert.Panics(t, func() {
		reg.Handle("order:create", noop)
	})
}

func TestErrorEventNaming(t *testing.T) {
	assert.Equal(t, "order:error", ErrorEvent("order:create"))
	assert.Equal(t, "inventory:error", ErrorEvent("inventory:update_stock"))
	assert.Equal(t, "error", ErrorEvent("ping"))
}
