package ports

import (
	"context"

	"platewire/internal/core/domain"
)

// Subscriber is a live connection as seen by the RoomManager: an identity
// plus a way to push one event to it. Delivery is best-effort; a failed send
// is the transport's problem, not the manager's.
type Subscriber interface {
	Identity() *domain.Connection
	Send(event string, payload interface{}) error
}

// RoomManager owns all subscriber-set bookkeeping: room membership, the
// user-to-connections index and the live presence map. All operations are
// local and best-effort; a target with no live connections silently drops
// the message.
type RoomManager interface {
	// Register adds a connection and derives its implicit room memberships
	// from the identity's role.
	Register(sub Subscriber) error

	// Unregister removes a connection from every room and from its user's
	// connection set. It reports whether this was the user's last live
	// connection; if so, the presence entry has been set to offline.
	Unregister(ctx context.Context, id domain.ConnectionID) (last bool, err error)

	// Join adds a connection to a named room. Idempotent: joining an
	// already-joined room is a no-op.
	Join(id domain.ConnectionID, room domain.RoomName)
	Leave(id domain.ConnectionID, room domain.RoomName)

	// EmitToRoom delivers to every currently-live connection in the room.
	// No error if the room is empty.
	EmitToRoom(room domain.RoomName, event string, payload interface{})

	// EmitToRooms delivers to the union of the rooms; each connection
	// receives the event at most once even if it belongs to several of them.
	EmitToRooms(rooms []domain.RoomName, event string, payload interface{})

	// EmitToRoles delivers to every connection whose role is in roles,
	// independent of explicit room membership.
	EmitToRoles(roles []domain.Role, event string, payload interface{})

	// EmitToUser delivers to all live connections for the user (0, 1 or
	// many).
	EmitToUser(user domain.UserID, event string, payload interface{})

	// UpdateUserStatus upserts the presence entry. It does not broadcast;
	// callers broadcast explicitly after the presence write.
	UpdateUserStatus(ctx context.Context, user domain.UserID, status domain.PresenceStatus) error

	// GetOnlineUsers returns a snapshot of all presence entries with status
	// online.
	GetOnlineUsers(ctx context.Context) ([]domain.PresenceEntry, error)

	ConnectionCount() int
}
