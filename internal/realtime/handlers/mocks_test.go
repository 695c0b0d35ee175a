package handlers

import (
	"context"

	"platewire/internal/core/domain"
	"platewire/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

// MockRoomManager for handler tests.
type MockRoomManager struct {
	mock.Mock
}

func (m *MockRoomManager) Register(sub ports.Subscriber) error {
	args := m.Called(sub)
	return args.Error(0)
}

func (m *MockRoomManager) Unregister(ctx context.Context, id domain.ConnectionID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomManager) Join(id domain.ConnectionID, room domain.RoomName) {
	m.Called(id, room)
}

func (m *MockRoomManager) Leave(id domain.ConnectionID, room domain.RoomName) {
	m.Called(id, room)
}

func (m *MockRoomManager) EmitToRoom(room domain.RoomName, event string, payload interface{}) {
	m.Called(room, event, payload)
}

func (m *MockRoomManager) EmitToRooms(rooms []domain.RoomName, event string, payload interface{}) {
	m.Called(rooms, event, payload)
}

func (m *MockRoomManager) EmitToRoles(roles []domain.Role, event string, payload interface{}) {
	m.Called(roles, event, payload)
}

func (m *MockRoomManager) EmitToUser(user domain.UserID, event string, payload interface{}) {
	m.Called(user, event, payload)
}

func (m *MockRoomManager) UpdateUserStatus(ctx context.Context, user domain.UserID, status domain.PresenceStatus) error {
	args := m.Called(ctx, user, status)
	return args.Error(0)
}

func (m *MockRoomManager) GetOnlineUsers(ctx context.Context) ([]domain.PresenceEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PresenceEntry), args.Error(1)
}

func (m *MockRoomManager) ConnectionCount() int {
	args := m.Called()
	return args.Int(0)
}

// stubSubscriber records everything sent back to the originating connection.
type stubSubscriber struct {
	identity *domain.Connection
	events   []string
	payloads []interface{}
}

func newStubSubscriber(user domain.UserID, role domain.Role) *stubSubscriber {
	return &stubSubscriber{
		identity: &domain.Connection{
			ConnectionID: "conn-test",
			UserID:       user,
			Role:         role,
			DisplayName:  "Test User",
		},
	}
}

func (s *stubSubscriber) Identity() *domain.Connection { return s.identity }

func (s *stubSubscriber) Send(event string, payload interface{}) error {
	s.events = append(s.events, event)
	s.payloads = append(s.payloads, payload)
	return nil
}
