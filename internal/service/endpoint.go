package service

import (
	"context"
	"sync"

	"traffic_supervisor/internal/logger"
	"traffic_supervisor/internal/models"
	"traffic_supervisor/internal/proxysync"
	"traffic_supervisor/internal/repository"

	"github.com/jonboulle/clockwork"
)

// NoticeProxyNotUpdated is returned when a proxy that used to answer could
// not be told about the new endpoint.
const NoticeProxyNotUpdated = "Proxy not updated: could not notify the proxy. Restart it with the device address or set it manually."

// EndpointResolver is the subset of endpoint.Resolver used here.
type EndpointResolver interface {
	Config() models.EndpointConfig
	SetOverride(ctx context.Context, raw string) models.EndpointConfig
	Reset(ctx context.Context) models.EndpointConfig
}

// ProxySync is the subset of proxysync.Client used here.
type ProxySync interface {
	Fetch(ctx context.Context) (string, bool)
	Push(ctx context.Context, override string) proxysync.PushResult
	Availability() models.ProxyAvailability
	Status() models.ProxyStatus
}

// Poller triggers immediate polls of both device routes.
type Poller interface {
	PollStatus(ctx context.Context) bool
	PollSensors(ctx context.Context) bool
}

// EndpointView is the endpoint configuration together with the proxy status.
type EndpointView struct {
	Config models.EndpointConfig `json:"config"`
	Proxy  models.ProxyStatus    `json:"proxy"`
}

// EndpointUpdate is the outcome of changing the endpoint.
type EndpointUpdate struct {
	EndpointView
	Notices []string `json:"notices,omitempty"`
}

// EndpointService runs the operator's endpoint change workflow.
type EndpointService struct {
	resolver  EndpointResolver
	proxy     ProxySync
	poller    Poller
	tracker   *MonitoringService
	eventRepo repository.EventRepo
	clock     clockwork.Clock
	log       *logger.Logger
}

func NewEndpointService(resolver EndpointResolver, proxy ProxySync, poller Poller, tracker *MonitoringService,
	eventRepo repository.EventRepo, clock clockwork.Clock, log *logger.Logger) *EndpointService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &EndpointService{
		resolver:  resolver,
		proxy:     proxy,
		poller:    poller,
		tracker:   tracker,
		eventRepo: eventRepo,
		clock:     clock,
		log:       logger.OrNop(log),
	}
}

// Current returns the endpoint configuration and proxy status.
func (s *EndpointService) Current() EndpointView {
	return EndpointView{Config: s.resolver.Config(), Proxy: s.proxy.Status()}
}

// RefreshProxy asks the proxy for its configured device address.
func (s *EndpointService) RefreshProxy(ctx context.Context) models.ProxyStatus {
	s.proxy.Fetch(ctx)
	s.touch()
	return s.proxy.Status()
}

// Update applies a new override, tells the proxy and polls the device at the
// new address.
func (s *EndpointService) Update(ctx context.Context, raw string) EndpointUpdate {
	previous := s.proxy.Availability()
	cfg := s.resolver.SetOverride(ctx, raw)
	return s.afterChange(ctx, cfg, previous)
}

// Reset clears the override.
func (s *EndpointService) Reset(ctx context.Context) EndpointUpdate {
	previous := s.proxy.Availability()
	cfg := s.resolver.Reset(ctx)
	return s.afterChange(ctx, cfg, previous)
}

func (s *EndpointService) afterChange(ctx context.Context, cfg models.EndpointConfig, previous models.ProxyAvailability) EndpointUpdate {
	s.log.Infow("endpoint_changed", "override", cfg.Override, "effective", cfg.Effective)
	appendEvent(ctx, s.eventRepo, s.clock, s.log, models.EventEndpointChange, "Device endpoint changed", map[string]any{
		"override":  cfg.Override,
		"effective": cfg.Effective,
	})

	push := s.proxy.Push(ctx, cfg.Override)
	s.touch()

	if s.poller != nil {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); s.poller.PollStatus(ctx) }()
		go func() { defer wg.Done(); s.poller.PollSensors(ctx) }()
		wg.Wait()
	}

	out := EndpointUpdate{EndpointView: EndpointView{Config: cfg, Proxy: s.proxy.Status()}}
	if !push.OK && previous == models.ProxyAvailable {
		s.log.Warnw("proxy_sync_regressed", "err", push.Err)
		appendEvent(ctx, s.eventRepo, s.clock, s.log, models.EventProxySyncFailed, "Proxy could not be updated", map[string]any{
			"override": cfg.Override,
		})
		out.Notices = append(out.Notices, NoticeProxyNotUpdated)
	}
	return out
}

func (s *EndpointService) touch() {
	if s.tracker != nil {
		s.tracker.Touch()
	}
}
