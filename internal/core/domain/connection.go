package domain

// ConnectionID identifies a single live socket. One user may hold several
// connections at once (multiple devices).
type ConnectionID string

// UserID identifies a user across all of their connections.
type UserID string

// Connection is the identity attached to a live socket. It is produced by the
// external auth step during the handshake, lives exactly as long as the
// socket, and is never persisted.
type Connection struct {
	ConnectionID ConnectionID
	UserID       UserID
	Role         Role
	Email        string
	DisplayName  string
}
