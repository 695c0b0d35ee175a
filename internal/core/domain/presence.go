package domain

import "time"

type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceOffline PresenceStatus = "offline"
	PresenceBusy    PresenceStatus = "busy"
	PresenceAway    PresenceStatus = "away"
)

// IsValid reports whether the status is one of the known presence states.
func (s PresenceStatus) IsValid() bool {
	switch s {
	case PresenceOnline, PresenceOffline, PresenceBusy, PresenceAway:
		return true
	}
	return false
}

// PresenceEntry is the per-user presence record shared across that user's
// possibly-multiple connections. It only goes offline when the user's last
// connection closes.
type PresenceEntry struct {
	UserID   UserID         `json:"userId"`
	Status   PresenceStatus `json:"status"`
	LastSeen time.Time      `json:"lastSeen"`
}
