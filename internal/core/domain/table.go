package domain

import "time"

type TableID string

type TableStatus string

const (
	TableAvailable    TableStatus = "available"
	TableOccupied     TableStatus = "occupied"
	TableCleaning     TableStatus = "cleaning"
	TableReserved     TableStatus = "reserved"
	TableOutOfService TableStatus = "out_of_service"
)

// tableTransitions is the table status state machine:
// available -> occupied -> cleaning -> available, with reserved and
// out_of_service as side states.
var tableTransitions = map[TableStatus][]TableStatus{
	TableAvailable:    {TableOccupied, TableReserved, TableOutOfService},
	TableOccupied:     {TableCleaning, TableAvailable, TableOutOfService},
	TableCleaning:     {TableAvailable, TableOutOfService},
	TableReserved:     {TableOccupied, TableAvailable, TableOutOfService},
	TableOutOfService: {TableAvailable},
}

// CanTransitionTable reports whether a table may move between two statuses.
func CanTransitionTable(from, to TableStatus) bool {
	for _, next := range tableTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s TableStatus) IsValid() bool {
	_, ok := tableTransitions[s]
	return ok
}

type ReservationID string

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationSeated    ReservationStatus = "seated"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationNoShow    ReservationStatus = "no_show"
)

// reservationTransitions is the reservation sub-state-machine:
// pending -> confirmed -> seated -> completed, with cancelled and no_show
// reachable from pending and confirmed.
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationCancelled, ReservationNoShow},
	ReservationConfirmed: {ReservationSeated, ReservationCancelled, ReservationNoShow},
	ReservationSeated:    {ReservationCompleted},
}

// IsValid reports whether the status is one of the known reservation
// statuses, terminal ones included.
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationSeated,
		ReservationCompleted, ReservationCancelled, ReservationNoShow:
		return true
	}
	return false
}

// CanTransitionReservation reports whether a reservation may move between two
// statuses.
func CanTransitionReservation(from, to ReservationStatus) bool {
	for _, next := range reservationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InitialReservationStatus is role-conditioned: customers enter the machine
// at pending, staff-created reservations enter at confirmed directly.
func InitialReservationStatus(creator Role) ReservationStatus {
	if creator.IsStaff() {
		return ReservationConfirmed
	}
	return ReservationPending
}

// TableEnvelope is the canonical payload broadcast for table status events.
type TableEnvelope struct {
	TableID   TableID     `json:"tableId"`
	Number    int         `json:"number,omitempty"`
	Status    TableStatus `json:"status"`
	UpdatedBy UserID      `json:"updatedBy"`
	Timestamp time.Time   `json:"timestamp"`
}

// ReservationEnvelope is the canonical payload broadcast for reservation
// events.
type ReservationEnvelope struct {
	ReservationID ReservationID     `json:"reservationId"`
	TableID       TableID           `json:"tableId,omitempty"`
	CustomerID    UserID            `json:"customerId"`
	CustomerName  string            `json:"customerName,omitempty"`
	PartySize     int               `json:"partySize,omitempty"`
	Status        ReservationStatus `json:"status"`
	ReservedFor   string            `json:"reservedFor,omitempty"`
	UpdatedBy     UserID            `json:"updatedBy"`
	Timestamp     time.Time         `json:"timestamp"`
}

// TableSnapshot is the read-model view returned by table query events.
type TableSnapshot struct {
	TableID TableID     `json:"tableId"`
	Number  int         `json:"number"`
	Seats   int         `json:"seats"`
	Status  TableStatus `json:"status"`
}
