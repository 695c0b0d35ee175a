package room

import (
	"context"
	"sync"

	"platewire/internal/core/domain"
	"platewire/internal/core/ports"
	"platewire/internal/infrastructure/monitoring"
	"platewire/pkg/utils"

	"go.uber.org/zap"
)

// Manager is the single shared mutable structure of the core: which
// connections belong to which rooms, which connections belong to which user,
// and the live presence map. Fan-out resolution is the hot path, so the
// registry is split into per-concern maps each behind its own RWMutex
// instead of one global lock.
type Manager struct {
	connMu sync.RWMutex
	conns  map[domain.ConnectionID]ports.Subscriber
	roles  map[domain.Role]map[domain.ConnectionID]struct{}

	roomMu sync.RWMutex
	rooms  map[domain.RoomName]map[domain.ConnectionID]struct{}

	userMu sync.RWMutex
	users  map[domain.UserID]map[domain.ConnectionID]struct{}

	presence ports.PresenceRepository
	metrics  *monitoring.Collector
	logger   *zap.SugaredLogger
}

var _ ports.RoomManager = (*Manager)(nil)

func NewManager(presence ports.PresenceRepository, metrics *monitoring.Collector, logger *zap.Logger) *Manager {
	return &Manager{
		conns:    make(map[domain.ConnectionID]ports.Subscriber),
		roles:    make(map[domain.Role]map[domain.ConnectionID]struct{}),
		rooms:    make(map[domain.RoomName]map[domain.ConnectionID]struct{}),
		users:    make(map[domain.UserID]map[domain.ConnectionID]struct{}),
		presence: presence,
		metrics:  metrics,
		logger:   logger.Sugar(),
	}
}

func (m *Manager) Register(sub ports.Subscriber) error {
	identity := sub.Identity()
	if identity == nil || identity.ConnectionID == "" || identity.UserID == "" || !identity.Role.IsValid() {
		return domain.ErrIdentityIncomplete
	}

	m.connMu.Lock()
	m.conns[identity.ConnectionID] = sub
	if m.roles[identity.Role] == nil {
		m.roles[identity.Role] = make(map[domain.ConnectionID]struct{})
	}
	m.roles[identity.Role][identity.ConnectionID] = struct{}{}
	m.connMu.Unlock()

	m.userMu.Lock()
	if m.users[identity.UserID] == nil {
		m.users[identity.UserID] = make(map[domain.ConnectionID]struct{})
	}
	m.users[identity.UserID][identity.ConnectionID] = struct{}{}
	m.userMu.Unlock()

	for _, r := range domain.RoomsForRole(identity.Role) {
		m.Join(identity.ConnectionID, r)
	}

	if m.metrics != nil {
		m.metrics.ConnectionOpened()
	}
	m.logger.Infow("connection registered",
		"connection_id", identity.ConnectionID,
		"user_id", identity.UserID,
		"role", identity.Role,
	)
	return nil
}

func (m *Manager) Unregister(ctx context.Context, id domain.ConnectionID) (bool, error) {
	m.connMu.Lock()
	sub, ok := m.conns[id]
	if !ok {
		m.connMu.Unlock()
		return false, nil
	}
	identity := sub.Identity()
	delete(m.conns, id)
	if set := m.roles[identity.Role]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(m.roles, identity.Role)
		}
	}
	m.connMu.Unlock()

	m.roomMu.Lock()
	for name, members := range m.rooms {
		delete(members, id)
		if len(members) == 0 {
			delete(m.rooms, name)
		}
	}
	m.roomMu.Unlock()

	last := false
	m.userMu.Lock()
	if set := m.users[identity.UserID]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(m.users, identity.UserID)
			last = true
		}
	}
	m.userMu.Unlock()

	if m.metrics != nil {
		m.metrics.ConnectionClosed()
	}
	m.logger.Infow("connection unregistered",
		"connection_id", id,
		"user_id", identity.UserID,
		"last", last,
	)

	// Presence only goes offline when the user's last connection closes.
	if last {
		if err := m.UpdateUserStatus(ctx, identity.UserID, domain.PresenceOffline); err != nil {
			return true, err
		}
	}
	return last, nil
}

func (m *Manager) Join(id domain.ConnectionID, room domain.RoomName) {
	m.roomMu.Lock()
	defer m.roomMu.Unlock()

	members, ok := m.rooms[room]
	if !ok {
		members = make(map[domain.ConnectionID]struct{})
		m.rooms[room] = members
	}
	// Idempotent: re-joining is a no-op.
	members[id] = struct{}{}
}

func (m *Manager) Leave(id domain.ConnectionID, room domain.RoomName) {
	m.roomMu.Lock()
	defer m.roomMu.Unlock()

	members, ok := m.rooms[room]
	if !ok {
		return
	}
	delete(members, id)
	if len(members) == 0 {
		delete(m.rooms, room)
	}
}

func (m *Manager) EmitToRoom(room domain.RoomName, event string, payload interface{}) {
	m.EmitToRooms([]domain.RoomName{room}, event, payload)
}

func (m *Manager) EmitToRooms(rooms []domain.RoomName, event string, payload interface{}) {
	targets := make(map[domain.ConnectionID]struct{})
	m.roomMu.RLock()
	for _, room := range rooms {
		for id := range m.rooms[room] {
			targets[id] = struct{}{}
		}
	}
	m.roomMu.RUnlock()

	m.deliver(targets, event, payload)
}

func (m *Manager) EmitToRoles(roles []domain.Role, event string, payload interface{}) {
	targets := make(map[domain.ConnectionID]struct{})
	m.connMu.RLock()
	for _, role := range roles {
		for id := range m.roles[role] {
			targets[id] = struct{}{}
		}
	}
	m.connMu.RUnlock()

	m.deliver(targets, event, payload)
}

func (m *Manager) EmitToUser(user domain.UserID, event string, payload interface{}) {
	targets := make(map[domain.ConnectionID]struct{})
	m.userMu.RLock()
	for id := range m.users[user] {
		targets[id] = struct{}{}
	}
	m.userMu.RUnlock()

	m.deliver(targets, event, payload)
}

// deliver snapshots the subscribers for the resolved target set and pushes
// outside any lock. Delivery is fire-and-forget per target; a dead
// connection is skipped and left for its own read loop to clean up.
func (m *Manager) deliver(targets map[domain.ConnectionID]struct{}, event string, payload interface{}) {
	if len(targets) == 0 {
		return
	}

	subs := make([]ports.Subscriber, 0, len(targets))
	m.connMu.RLock()
	for id := range targets {
		if sub, ok := m.conns[id]; ok {
			subs = append(subs, sub)
		}
	}
	m.connMu.RUnlock()

	for _, sub := range subs {
		if err := sub.Send(event, payload); err != nil {
			m.logger.Debugw("fan-out send failed",
				"connection_id", sub.Identity().ConnectionID,
				"event", event,
				"error", err,
			)
		}
	}
	if m.metrics != nil {
		m.metrics.FanOut(event, len(subs))
	}
}

func (m *Manager) UpdateUserStatus(ctx context.Context, user domain.UserID, status domain.PresenceStatus) error {
	if !status.IsValid() {
		return domain.ErrInvalidPresence
	}
	entry := domain.PresenceEntry{
		UserID:   user,
		Status:   status,
		LastSeen: utils.Now(),
	}
	if err := m.presence.Upsert(ctx, entry); err != nil {
		m.logger.Errorw("presence upsert failed", "user_id", user, "status", status, "error", err)
		return err
	}
	return nil
}

func (m *Manager) GetOnlineUsers(ctx context.Context) ([]domain.PresenceEntry, error) {
	return m.presence.ListByStatus(ctx, domain.PresenceOnline)
}

func (m *Manager) ConnectionCount() int {
	m.connMu.RLock()
	defer m.connMu.RUnlock()
	return len(m.conns)
}
