package models

import "time"

// Supervisor event types.
const (
	EventStart           = "START"
	EventStop            = "STOP"
	EventEndpointChange  = "ENDPOINT_CHANGE"
	EventConnected       = "CONNECTED"
	EventDisconnected    = "DISCONNECTED"
	EventProxySyncFailed = "PROXY_SYNC_FAILED"
)

// EventTypes lists every type the supervisor writes.
var EventTypes = []string{
	EventStart, EventStop, EventEndpointChange, EventConnected, EventDisconnected, EventProxySyncFailed,
}

// IsEventType reports whether s is one of EventTypes.
func IsEventType(s string) bool {
	for _, t := range EventTypes {
		if t == s {
			return true
		}
	}
	return false
}

// SupervisorEvent is a single log entry.
type SupervisorEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // START | STOP | ENDPOINT_CHANGE | CONNECTED | DISCONNECTED | PROXY_SYNC_FAILED
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
