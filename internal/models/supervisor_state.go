package models

import "time"

// Connectivity is derived from the most recent status poll only.
type Connectivity string

const (
	Connected    Connectivity = "connected"
	Disconnected Connectivity = "disconnected"
)

// DeviceSnapshot is the authoritative device state as last observed.
type DeviceSnapshot struct {
	Running      bool           `json:"running"`
	Phase        Phase          `json:"phase,omitempty"`
	RemainingMs  *int64         `json:"remaining_ms,omitempty"`
	Durations    Durations      `json:"durations"`
	ClockText    *string        `json:"clock_text,omitempty"`
	Sensors      *SensorReading `json:"sensors,omitempty"`
	SensorsAt    time.Time      `json:"sensors_at,omitempty"`
	SensorsError string         `json:"sensors_error,omitempty"`
}

// SupervisorState is the view published to presentation collaborators.
type SupervisorState struct {
	Connectivity Connectivity   `json:"connectivity"`
	StatusError  string         `json:"status_error,omitempty"`
	Phase        Phase          `json:"phase"` // locally simulated
	Device       DeviceSnapshot `json:"device"`
	Endpoint     EndpointConfig `json:"endpoint"`
	Proxy        ProxyStatus    `json:"proxy"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Version      uint64         `json:"version"` // bumped on every change
}
