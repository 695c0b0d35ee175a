package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"platewire/internal/core/domain"
	"platewire/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const presenceKeyPrefix = "platewire:presence:"

// PresenceRepository stores presence entries in Redis so dashboards and other
// processes can read who is on shift. Room membership stays in-process; only
// the per-user presence record lives here.
type PresenceRepository struct {
	client *redis.Client
}

func NewPresenceRepository(client *redis.Client) ports.PresenceRepository {
	return &PresenceRepository{client: client}
}

func presenceKey(id domain.UserID) string {
	return presenceKeyPrefix + string(id)
}

func (r *PresenceRepository) Upsert(ctx context.Context, entry domain.PresenceEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal presence entry: %w", err)
	}
	if err := r.client.Set(ctx, presenceKey(entry.UserID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store presence entry: %w", err)
	}
	return nil
}

func (r *PresenceRepository) Get(ctx context.Context, id domain.UserID) (*domain.PresenceEntry, error) {
	data, err := r.client.Get(ctx, presenceKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read presence entry: %w", err)
	}

	var entry domain.PresenceEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal presence entry: %w", err)
	}
	return &entry, nil
}

func (r *PresenceRepository) ListByStatus(ctx context.Context, status domain.PresenceStatus) ([]domain.PresenceEntry, error) {
	var entries []domain.PresenceEntry

	iter := r.client.Scan(ctx, 0, presenceKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read presence entry: %w", err)
		}

		var entry domain.PresenceEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue // skip corrupt entries, they will be overwritten on next update
		}
		if entry.Status == status {
			entries = append(entries, entry)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("presence scan failed: %w", err)
	}
	return entries, nil
}
