package memory

import (
	"context"
	"sync"

	"platewire/internal/core/domain"
	"platewire/internal/core/ports"
)

// The in-memory query repositories stand in for the external persistence
// collaborator in the dev binary and in tests. The realtime core only ever
// reads from them through the query ports.

type OrderQueryRepository struct {
	orders map[domain.OrderID]domain.OrderSnapshot
	mu     sync.RWMutex
}

func NewOrderQueryRepository() *OrderQueryRepository {
	return &OrderQueryRepository{orders: make(map[domain.OrderID]domain.OrderSnapshot)}
}

var _ ports.OrderQueries = (*OrderQueryRepository)(nil)

// Put seeds or replaces a snapshot. Called by whatever owns order state, not
// by the realtime core.
func (r *OrderQueryRepository) Put(snapshot domain.OrderSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[snapshot.OrderID] = snapshot
}

func (r *OrderQueryRepository) Active(ctx context.Context) ([]domain.OrderSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []domain.OrderSnapshot
	for _, o := range r.orders {
		if !o.Status.IsTerminal() {
			active = append(active, o)
		}
	}
	return active, nil
}

func (r *OrderQueryRepository) ByTable(ctx context.Context, table domain.TableID) ([]domain.OrderSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.OrderSnapshot
	for _, o := range r.orders {
		if o.TableID == string(table) {
			matched = append(matched, o)
		}
	}
	return matched, nil
}

func (r *OrderQueryRepository) KitchenQueue(ctx context.Context) ([]domain.OrderSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var queue []domain.OrderSnapshot
	for _, o := range r.orders {
		if o.Status == domain.OrderConfirmed || o.Status == domain.OrderPreparing {
			queue = append(queue, o)
		}
	}
	return queue, nil
}

type TableQueryRepository struct {
	tables map[domain.TableID]domain.TableSnapshot
	mu     sync.RWMutex
}

func NewTableQueryRepository() *TableQueryRepository {
	return &TableQueryRepository{tables: make(map[domain.TableID]domain.TableSnapshot)}
}

var _ ports.TableQueries = (*TableQueryRepository)(nil)

func (r *TableQueryRepository) Put(snapshot domain.TableSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[snapshot.TableID] = snapshot
}

func (r *TableQueryRepository) Available(ctx context.Context) ([]domain.TableSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var available []domain.TableSnapshot
	for _, t := range r.tables {
		if t.Status == domain.TableAvailable {
			available = append(available, t)
		}
	}
	return available, nil
}

func (r *TableQueryRepository) All(ctx context.Context) ([]domain.TableSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]domain.TableSnapshot, 0, len(r.tables))
	for _, t := range r.tables {
		all = append(all, t)
	}
	return all, nil
}

type InventoryQueryRepository struct {
	items map[domain.ProductID]domain.InventorySnapshot
	mu    sync.RWMutex
}

func NewInventoryQueryRepository() *InventoryQueryRepository {
	return &InventoryQueryRepository{items: make(map[domain.ProductID]domain.InventorySnapshot)}
}

var _ ports.InventoryQueries = (*InventoryQueryRepository)(nil)

func (r *InventoryQueryRepository) Put(snapshot domain.InventorySnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot.AlertLevel = domain.ClassifyStock(snapshot.CurrentStock, snapshot.MinStock)
	r.items[snapshot.ProductID] = snapshot
}

func (r *InventoryQueryRepository) LowStock(ctx context.Context) ([]domain.InventorySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var low []domain.InventorySnapshot
	for _, item := range r.items {
		if item.AlertLevel != domain.AlertNone {
			low = append(low, item)
		}
	}
	return low, nil
}

func (r *InventoryQueryRepository) All(ctx context.Context) ([]domain.InventorySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]domain.InventorySnapshot, 0, len(r.items))
	for _, item := range r.items {
		all = append(all, item)
	}
	return all, nil
}
