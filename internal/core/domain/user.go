package domain

import "time"

// StaffEnvelope is the canonical payload broadcast for staff lifecycle
// events: presence changes, shifts, breaks and location updates.
type StaffEnvelope struct {
	UserID      UserID         `json:"userId"`
	DisplayName string         `json:"displayName,omitempty"`
	Role        Role           `json:"role,omitempty"`
	Status      PresenceStatus `json:"status,omitempty"`
	Location    string         `json:"location,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// NotificationEnvelope is the canonical payload for targeted notifications
// and direct messages. Addressing is resolved in order: explicit user id,
// explicit role list, fallback to all_staff.
type NotificationEnvelope struct {
	NotificationID string    `json:"notificationId"`
	Title          string    `json:"title,omitempty"`
	Message        string    `json:"message"`
	Priority       string    `json:"priority,omitempty"`
	From           UserID    `json:"from"`
	FromName       string    `json:"fromName,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
