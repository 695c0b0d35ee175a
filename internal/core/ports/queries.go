package ports

import (
	"context"

	"platewire/internal/core/domain"
)

// The query ports represent the external persistence collaborator. The
// real-time core never reads or writes application state itself; get-style
// events apply the role gate and relay whatever these report.

type OrderQueries interface {
	Active(ctx context.Context) ([]domain.OrderSnapshot, error)
	ByTable(ctx context.Context, table domain.TableID) ([]domain.OrderSnapshot, error)
	KitchenQueue(ctx context.Context) ([]domain.OrderSnapshot, error)
}

type TableQueries interface {
	Available(ctx context.Context) ([]domain.TableSnapshot, error)
	All(ctx context.Context) ([]domain.TableSnapshot, error)
}

type InventoryQueries interface {
	LowStock(ctx context.Context) ([]domain.InventorySnapshot, error)
	All(ctx context.Context) ([]domain.InventorySnapshot, error)
}
