package domain

import "time"

type OrderID string

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// IsTerminal reports whether no further transition can leave this status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// IsValid reports whether the status is one of the known order statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// orderTransitions is the order status state machine:
// pending -> confirmed -> preparing -> ready -> delivered, with cancelled
// reachable from any non-terminal state.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderReady, OrderCancelled},
	OrderReady:     {OrderDelivered, OrderCancelled},
}

// CanTransitionOrder reports whether an order may move from one status to
// another.
func CanTransitionOrder(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderRolesFor returns the roles allowed to move an order into the given
// status. Ready is the kitchen-to-front-of-house handoff, so both sides may
// flag it.
func OrderRolesFor(to OrderStatus) []Role {
	switch to {
	case OrderPreparing:
		return []Role{RoleKitchen, RoleAdmin, RoleOwner}
	case OrderReady:
		return []Role{RoleKitchen, RoleWaiter, RoleAdmin, RoleOwner}
	default:
		return []Role{RoleWaiter, RoleAdmin, RoleOwner}
	}
}

// OrderItem is a line item on an order as relayed over the wire.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Notes     string  `json:"notes,omitempty"`
}

// OrderEnvelope is the canonical payload broadcast for order events.
type OrderEnvelope struct {
	OrderID    OrderID     `json:"orderId"`
	TableID    string      `json:"tableId,omitempty"`
	CustomerID UserID      `json:"customerId,omitempty"`
	Status     OrderStatus `json:"status"`
	Items      []OrderItem `json:"items,omitempty"`
	Total      float64     `json:"total,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	UpdatedBy  UserID      `json:"updatedBy"`
	Timestamp  time.Time   `json:"timestamp"`
}

// OrderSnapshot is the read-model view returned by order query events. The
// data itself is owned by the external persistence collaborator.
type OrderSnapshot struct {
	OrderID    OrderID     `json:"orderId"`
	TableID    string      `json:"tableId,omitempty"`
	CustomerID UserID      `json:"customerId,omitempty"`
	Status     OrderStatus `json:"status"`
	Total      float64     `json:"total"`
	CreatedAt  time.Time   `json:"createdAt"`
}
