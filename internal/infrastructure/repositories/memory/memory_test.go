package memory

import (
	"context"
	"testing"

	"platewire/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPresenceRepository()

	// Absent user is not an error.
	entry, err := repo.Get(ctx, "u-nobody")
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, repo.Upsert(ctx, domain.PresenceEntry{UserID: "u1", Status: domain.PresenceOnline}))
	require.NoError(t, repo.Upsert(ctx, domain.PresenceEntry{UserID: "u2", Status: domain.PresenceAway}))
	require.NoError(t, repo.Upsert(ctx, domain.PresenceEntry{UserID: "u1", Status: domain.PresenceBusy}))

	entry, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, domain.PresenceBusy, entry.Status, "upsert replaces the prior status")

	away, err := repo.ListByStatus(ctx, domain.PresenceAway)
	require.NoError(t, err)
	require.Len(t, away, 1)
	assert.Equal(t, domain.UserID("u2"), away[0].UserID)
}

func TestOrderQueryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderQueryRepository()

	repo.Put(domain.OrderSnapshot{OrderID: "o1", TableID: "t1", Status: domain.OrderConfirmed})
	repo.Put(domain.OrderSnapshot{OrderID: "o2", TableID: "t1", Status: domain.OrderDelivered})
	repo.Put(domain.OrderSnapshot{OrderID: "o3", TableID: "t2", Status: domain.OrderPreparing})

	active, err := repo.Active(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2, "terminal orders are not active")

	byTable, err := repo.ByTable(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, byTable, 2)

	queue, err := repo.KitchenQueue(ctx)
	require.NoError(t, err)
	assert.Len(t, queue, 2, "confirmed and preparing orders form the queue")
}

func TestInventoryQueryRepositoryClassifiesOnPut(t *testing.T) {
	ctx := context.Background()
	repo := NewInventoryQueryRepository()

	repo.Put(domain.InventorySnapshot{ProductID: "flour", CurrentStock: 4, MinStock: 10})
	repo.Put(domain.InventorySnapshot{ProductID: "sugar", CurrentStock: 100, MinStock: 10})

	low, err := repo.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, domain.ProductID("flour"), low[0].ProductID)
	assert.Equal(t, domain.AlertCritical, low[0].AlertLevel)
}
