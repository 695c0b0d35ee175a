package domain

import "time"

type ProductID string

// AlertLevel classifies how urgently a stock level needs attention.
type AlertLevel string

const (
	AlertNone       AlertLevel = "none"
	AlertLow        AlertLevel = "low"
	AlertCritical   AlertLevel = "critical"
	AlertOutOfStock AlertLevel = "out_of_stock"
)

// ClassifyStock derives the alert level for a stock update. Pure and total:
// out_of_stock iff currentStock <= 0; critical iff currentStock is at or
// below half the minimum; low iff at or below the minimum; none otherwise.
func ClassifyStock(currentStock, minStock float64) AlertLevel {
	switch {
	case currentStock <= 0:
		return AlertOutOfStock
	case currentStock <= minStock*0.5:
		return AlertCritical
	case currentStock <= minStock:
		return AlertLow
	default:
		return AlertNone
	}
}

type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
	MovementWaste      MovementType = "waste"
)

func (m MovementType) IsValid() bool {
	switch m {
	case MovementIn, MovementOut, MovementAdjustment, MovementWaste:
		return true
	}
	return false
}

// StockEnvelope is the canonical payload broadcast for stock updates.
type StockEnvelope struct {
	ProductID    ProductID  `json:"productId"`
	Name         string     `json:"name,omitempty"`
	CurrentStock float64    `json:"currentStock"`
	MinStock     float64    `json:"minStock"`
	Unit         string     `json:"unit,omitempty"`
	AlertLevel   AlertLevel `json:"alertLevel"`
	UpdatedBy    UserID     `json:"updatedBy"`
	Timestamp    time.Time  `json:"timestamp"`
}

// MovementEnvelope is the canonical payload broadcast for stock movements.
type MovementEnvelope struct {
	MovementID  string       `json:"movementId"`
	ProductID   ProductID    `json:"productId"`
	Type        MovementType `json:"type"`
	Quantity    float64      `json:"quantity"`
	Reason      string       `json:"reason,omitempty"`
	PerformedBy UserID       `json:"performedBy"`
	Timestamp   time.Time    `json:"timestamp"`
}

// InventorySnapshot is the read-model view returned by inventory query
// events.
type InventorySnapshot struct {
	ProductID    ProductID  `json:"productId"`
	Name         string     `json:"name"`
	CurrentStock float64    `json:"currentStock"`
	MinStock     float64    `json:"minStock"`
	Unit         string     `json:"unit,omitempty"`
	AlertLevel   AlertLevel `json:"alertLevel"`
}
