package dispatch

import (
	"strings"
	"time"

	"platewire/pkg/utils"
)

// EnsureID keeps a client-supplied record id or assigns a server-generated
// one when the client sent none. Part of the shared envelope hydration step.
func EnsureID(id string, generate func() string) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	return generate()
}

// Timestamp is the server-assigned envelope timestamp. Envelopes never carry
// client clocks.
func Timestamp() time.Time {
	return utils.Now()
}
