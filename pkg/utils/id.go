package utils

import (
	"fmt"
	"time"
)

// Now is the clock used for server-assigned timestamps and generated ids.
// A variable so tests can pin it.
var Now = time.Now

// GenerateID builds a server-assigned record id of the form
// "<prefix>_<timestamp>". Assigned only when the client did not supply one.
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, Now().UnixMilli())
}

func GenerateOrderID() string        { return GenerateID("order") }
func GenerateReservationID() string  { return GenerateID("res") }
func GenerateMovementID() string     { return GenerateID("mov") }
func GenerateNotificationID() string { return GenerateID("notif") }
