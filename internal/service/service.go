package service

import (
	"context"
	"time"

	"traffic_supervisor/internal/endpoint"
	"traffic_supervisor/internal/gateway"
	"traffic_supervisor/internal/logger"
	"traffic_supervisor/internal/models"
	"traffic_supervisor/internal/proxysync"
	"traffic_supervisor/internal/repository"

	"github.com/jonboulle/clockwork"
)

type Authorization interface {
	Enabled() bool
	ParseToken(accessToken string) (string, error)
}

// Control exposes the device start/stop commands.
type Control interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Monitoring exposes the published supervisor state.
type Monitoring interface {
	GetState(ctx context.Context) (models.SupervisorState, error)
}

// StateFeed pushes every published state to its subscribers.
type StateFeed interface {
	Subscribe(fn StateListener) (unsubscribe func())
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.SupervisorEvent, error)
}

// Endpoint exposes the endpoint configuration workflow.
type Endpoint interface {
	Current() EndpointView
	Update(ctx context.Context, raw string) EndpointUpdate
	Reset(ctx context.Context) EndpointUpdate
}

// Config carries the settings the services need from the application config.
type Config struct {
	DefaultBase     string
	Origin          string
	ProxyURL        string
	RequestTimeout  time.Duration
	StatusInterval  time.Duration
	SensorsInterval time.Duration
	JWTSecret       string
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Control
	Monitoring
	EventLog
	Endpoint
	Authorization

	Resolver   *endpoint.Resolver
	Proxy      *proxysync.Client
	Tracker    *MonitoringService
	Simulator  *CycleSimulator
	Reconciler *Reconciler
}

// NewService wires the repository layer and the device clients into concrete services.
func NewService(repos *repository.Repository, cfg Config, clock clockwork.Clock, log *logger.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	log = logger.OrNop(log)

	resolver := endpoint.NewResolver(repos.Settings, cfg.DefaultBase, cfg.Origin, log.Named("endpoint"))
	gw := gateway.New(resolver, log.Named("gateway"), gateway.WithTimeout(cfg.RequestTimeout))
	proxyURL := cfg.ProxyURL
	if proxyURL == "" {
		proxyURL = cfg.Origin
	}
	proxy := proxysync.New(gw, proxyURL, log.Named("proxy"))

	tracker := NewMonitoringService(clock, resolver, proxy)
	sim := NewCycleSimulator(clock, tracker, tracker, log.Named("simulator"))
	rec := NewReconciler(gw, tracker, sim, repos.EventRepo, clock, log.Named("reconciler"), ReconcilerConfig{
		StatusInterval:  cfg.StatusInterval,
		SensorsInterval: cfg.SensorsInterval,
	})

	return &Service{
		Control:       NewControlService(gw, tracker, sim, rec, repos.EventRepo, clock, log.Named("control")),
		Monitoring:    tracker,
		EventLog:      NewEventLogService(repos.EventRepo),
		Endpoint:      NewEndpointService(resolver, proxy, rec, tracker, repos.EventRepo, clock, log.Named("endpoint")),
		Authorization: NewAuthService(cfg.JWTSecret),
		Resolver:      resolver,
		Proxy:         proxy,
		Tracker:       tracker,
		Simulator:     sim,
		Reconciler:    rec,
	}
}

// Init loads the persisted override and asks the proxy for its current target.
func (s *Service) Init(ctx context.Context) {
	s.Resolver.Init(ctx)
	s.Proxy.Fetch(ctx)
	s.Tracker.Touch()
}

// Run polls the device until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	s.Reconciler.Run(ctx)
}
