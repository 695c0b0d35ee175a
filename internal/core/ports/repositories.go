package ports

import (
	"context"

	"platewire/internal/core/domain"
)

// PresenceRepository stores per-user presence entries. Room membership never
// goes through here; presence is the only state the core persists anywhere,
// and even that is optional (the default repository is in-memory).
type PresenceRepository interface {
	Upsert(ctx context.Context, entry domain.PresenceEntry) error
	Get(ctx context.Context, id domain.UserID) (*domain.PresenceEntry, error)
	ListByStatus(ctx context.Context, status domain.PresenceStatus) ([]domain.PresenceEntry, error)
}
