package dispatch

import (
	"encoding/json"
	"strings"

	apperrors "platewire/pkg/errors"
)

// EventMessage is the wire shape of every client-to-server request:
// a "<domain>:<action>" type plus a domain-specific payload.
type EventMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrorPayload is the canonical error envelope, identical across domains.
// It is only ever sent to the originating connection.
type ErrorPayload struct {
	Message string              `json:"message"`
	Code    apperrors.ErrorCode `json:"code"`
}

// SuccessEvent names the ack event for a request: "<domain>:<action>_success".
func SuccessEvent(requestEvent string) string {
	return requestEvent + "_success"
}

// ErrorEvent names the error event for a request's domain: "<domain>:error".
// Events without a domain prefix fall back to the bare "error" event.
func ErrorEvent(requestEvent string) string {
	if i := strings.IndexByte(requestEvent, ':'); i > 0 {
		return requestEvent[:i] + ":error"
	}
	return "error"
}
