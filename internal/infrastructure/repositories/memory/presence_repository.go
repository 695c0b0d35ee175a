package memory

import (
	"context"
	"sync"

	"platewire/internal/core/domain"
	"platewire/internal/core/ports"
)

type PresenceRepository struct {
	entries map[domain.UserID]domain.PresenceEntry
	mu      sync.RWMutex
}

func NewPresenceRepository() ports.PresenceRepository {
	return &PresenceRepository{
		entries: make(map[domain.UserID]domain.PresenceEntry),
	}
}

func (r *PresenceRepository) Upsert(ctx context.Context, entry domain.PresenceEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[entry.UserID] = entry
	return nil
}

func (r *PresenceRepository) Get(ctx context.Context, id domain.UserID) (*domain.PresenceEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (r *PresenceRepository) ListByStatus(ctx context.Context, status domain.PresenceStatus) ([]domain.PresenceEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.PresenceEntry
	for _, entry := range r.entries {
		if entry.Status == status {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}
