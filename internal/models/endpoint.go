package models

// EndpointConfig describes where device calls are sent.
type EndpointConfig struct {
	Override  string `json:"override"`
	Effective string `json:"effective"`
}

// ProxyAvailability records what is known about the optional intermediary proxy.
type ProxyAvailability string

const (
	ProxyUnknown     ProxyAvailability = "unknown"
	ProxyAvailable   ProxyAvailability = "available"
	ProxyUnavailable ProxyAvailability = "unavailable"
)

// ProxyStatus is the last observed state of the proxy.
type ProxyStatus struct {
	Availability ProxyAvailability `json:"availability"`
	Base         string            `json:"base,omitempty"`
}
