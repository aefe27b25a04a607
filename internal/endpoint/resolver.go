// Package endpoint resolves the base URL used for every device call.
//
// Priority: a persisted operator override, then the deployment default, then
// the supervisor's own origin.
package endpoint

import (
	"context"
	"strings"
	"sync"

	"traffic_supervisor/internal/logger"
	"traffic_supervisor/internal/models"
)

// StorageKey is the settings key holding the sanitized override.
const StorageKey = "esp32.apiBaseOverride"

// BuildDefaultBase can be set at link time:
//
//	go build -ldflags "-X traffic_supervisor/internal/endpoint.BuildDefaultBase=http://192.168.4.1"
var BuildDefaultBase string

// Store persists the override. Implemented by repository.SettingsSQLite.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Resolver owns the endpoint configuration. It is safe for concurrent use.
type Resolver struct {
	store    Store
	fallback string
	log      *logger.Logger

	mu       sync.RWMutex
	override string
}

// NewResolver builds a resolver. defaultBase wins over origin when both are set;
// an empty defaultBase falls back to BuildDefaultBase.
func NewResolver(store Store, defaultBase, origin string, log *logger.Logger) *Resolver {
	if strings.TrimSpace(defaultBase) == "" {
		defaultBase = BuildDefaultBase
	}
	fallback := stripTrailingSlashes(strings.TrimSpace(defaultBase))
	if fallback == "" {
		fallback = stripTrailingSlashes(strings.TrimSpace(origin))
	}
	return &Resolver{
		store:    store,
		fallback: fallback,
		log:      logger.OrNop(log),
	}
}

// Init loads the persisted override. Read failures leave the override empty.
func (r *Resolver) Init(ctx context.Context) {
	if r.store == nil {
		return
	}
	raw, ok, err := r.store.Get(ctx, StorageKey)
	if err != nil {
		r.log.Debugw("endpoint_override_load_failed", "err", err)
		return
	}
	if !ok {
		return
	}
	r.mu.Lock()
	r.override = Sanitize(raw)
	r.mu.Unlock()
}

// EffectiveBase returns the base URL currently used for device calls.
func (r *Resolver) EffectiveBase() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.effectiveLocked()
}

// Override returns the sanitized operator override, or "".
func (r *Resolver) Override() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.override
}

// Config returns override and effective base together.
func (r *Resolver) Config() models.EndpointConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return models.EndpointConfig{Override: r.override, Effective: r.effectiveLocked()}
}

func (r *Resolver) effectiveLocked() string {
	if r.override != "" {
		return r.override
	}
	return r.fallback
}

// SetOverride sanitizes and applies raw, then persists it best-effort.
// Persistence errors are logged; the in-memory value is authoritative.
func (r *Resolver) SetOverride(ctx context.Context, raw string) models.EndpointConfig {
	normalized := Sanitize(raw)

	r.mu.Lock()
	r.override = normalized
	cfg := models.EndpointConfig{Override: normalized, Effective: r.effectiveLocked()}
	r.mu.Unlock()

	r.persist(ctx, normalized)
	return cfg
}

// Reset clears the override.
func (r *Resolver) Reset(ctx context.Context) models.EndpointConfig {
	return r.SetOverride(ctx, "")
}

func (r *Resolver) persist(ctx context.Context, normalized string) {
	if r.store == nil {
		return
	}
	var err error
	if normalized != "" {
		err = r.store.Set(ctx, StorageKey, normalized)
	} else {
		err = r.store.Delete(ctx, StorageKey)
	}
	if err != nil {
		r.log.Warnw("endpoint_override_persist_failed", "err", err, "override", normalized)
	}
}

// URL builds the absolute URL for a request path. Absolute http(s) paths are
// returned unchanged.
func (r *Resolver) URL(path string) string {
	if IsAbsoluteURL(path) {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return r.EffectiveBase() + path
}
