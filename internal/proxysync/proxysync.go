// Package proxysync keeps the optional intermediary proxy informed of the
// device endpoint chosen by the operator.
package proxysync

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"traffic_supervisor/internal/gateway"
	"traffic_supervisor/internal/logger"
	"traffic_supervisor/internal/models"
)

// ConfigPath is the proxy's configuration route.
const ConfigPath = "/_config/esp32_base"

const defaultTimeout = 5 * time.Second

var errEmptyProxyURL = errors.New("proxy url is not configured")

// Caller is the subset of gateway.Client used here.
type Caller interface {
	Call(ctx context.Context, path string, opts gateway.Options) (*gateway.Result, error)
}

// PushResult is the outcome of Push. Err is set whenever OK is false.
type PushResult struct {
	OK   bool
	Base string
	Err  error
}

type basePayload struct {
	Base    string `json:"base"`
	Default string `json:"default,omitempty"`
}

// Client talks to the proxy and records its availability.
type Client struct {
	caller   Caller
	proxyURL string
	timeout  time.Duration
	log      *logger.Logger

	mu           sync.RWMutex
	availability models.ProxyAvailability
	base         string
}

// New returns a client for the proxy at proxyURL. Availability starts unknown.
func New(caller Caller, proxyURL string, log *logger.Logger) *Client {
	return &Client{
		caller:       caller,
		proxyURL:     strings.TrimRight(strings.TrimSpace(proxyURL), "/"),
		timeout:      defaultTimeout,
		log:          logger.OrNop(log),
		availability: models.ProxyUnknown,
	}
}

// Availability returns what is currently known about the proxy.
func (c *Client) Availability() models.ProxyAvailability {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.availability
}

// Base returns the device address last reported by the proxy.
func (c *Client) Base() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.base
}

// Status returns availability and base together.
func (c *Client) Status() models.ProxyStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return models.ProxyStatus{Availability: c.availability, Base: c.base}
}

// Fetch reads the proxy's configured device address. Any failure marks the
// proxy unavailable and returns ok=false; it is never an error.
func (c *Client) Fetch(ctx context.Context) (string, bool) {
	var payload basePayload
	if err := c.exchange(ctx, http.MethodGet, nil, &payload); err != nil {
		c.log.Debugw("proxy_fetch_failed", "err", err)
		c.markUnavailable()
		return "", false
	}
	c.markAvailable(payload.Base)
	return payload.Base, true
}

// Push sends the operator override to the proxy. An empty override asks the
// proxy to fall back to its own default.
func (c *Client) Push(ctx context.Context, override string) PushResult {
	var payload basePayload
	if err := c.exchange(ctx, http.MethodPost, basePayload{Base: override}, &payload); err != nil {
		c.log.Debugw("proxy_push_failed", "err", err, "override", override)
		c.markUnavailable()
		return PushResult{Err: err}
	}
	c.markAvailable(payload.Base)
	return PushResult{OK: true, Base: payload.Base}
}

func (c *Client) exchange(ctx context.Context, method string, body any, out any) error {
	if c.proxyURL == "" {
		return errEmptyProxyURL
	}
	res, err := c.caller.Call(ctx, c.proxyURL+ConfigPath, gateway.Options{
		Method:  method,
		JSON:    body,
		Timeout: c.timeout,
	})
	if err != nil {
		return err
	}
	if err := res.StatusError(); err != nil {
		return err
	}
	return res.Decode(out)
}

func (c *Client) markAvailable(base string) {
	c.mu.Lock()
	c.availability = models.ProxyAvailable
	c.base = base
	c.mu.Unlock()
}

func (c *Client) markUnavailable() {
	c.mu.Lock()
	c.availability = models.ProxyUnavailable
	c.base = ""
	c.mu.Unlock()
}
