package service

import (
	"context"
	"net/http"
	"sync"

	"traffic_supervisor/internal/gateway"
	"traffic_supervisor/internal/logger"
	"traffic_supervisor/internal/models"
	"traffic_supervisor/internal/repository"

	"github.com/jonboulle/clockwork"
)

// StatusPoller triggers an immediate status poll.
type StatusPoller interface {
	PollStatus(ctx context.Context) bool
}

// ControlService sends start/stop commands to the device. Commands run one at
// a time so the running check and the command it guards cannot interleave.
type ControlService struct {
	mu        sync.Mutex
	gw        Gateway
	tracker   *MonitoringService
	sim       *CycleSimulator
	poller    StatusPoller
	eventRepo repository.EventRepo
	clock     clockwork.Clock
	log       *logger.Logger
}

func NewControlService(gw Gateway, tracker *MonitoringService, sim *CycleSimulator, poller StatusPoller,
	eventRepo repository.EventRepo, clock clockwork.Clock, log *logger.Logger) *ControlService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ControlService{
		gw:        gw,
		tracker:   tracker,
		sim:       sim,
		poller:    poller,
		eventRepo: eventRepo,
		clock:     clock,
		log:       logger.OrNop(log),
	}
}

// Start asks the device to run the cycle. It is a no-op when the device is
// already known to be running. A failed command marks the device disconnected
// but leaves the last device snapshot alone.
func (s *ControlService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tracker.Running() {
		return nil
	}
	s.sim.Stop()

	if err := s.command(ctx, StartPath); err != nil {
		s.log.Errorw("device_start_failed", "err", err)
		msg := gateway.Describe(err)
		if s.tracker.MarkUnreachable(msg) {
			appendEvent(ctx, s.eventRepo, s.clock, s.log, models.EventDisconnected, "Device unreachable", map[string]any{"error": msg})
		}
		return err
	}

	s.tracker.SetRunning(true)
	s.tracker.MarkConnected()
	appendEvent(ctx, s.eventRepo, s.clock, s.log, models.EventStart, "Traffic light started", nil)
	s.log.Infow("device_started")

	s.refresh(ctx)
	return nil
}

// Stop asks the device to halt. It is a no-op when the device is not running.
func (s *ControlService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tracker.Running() {
		return nil
	}

	if err := s.command(ctx, StopPath); err != nil {
		s.log.Errorw("device_stop_failed", "err", err)
		return err
	}

	s.sim.ForceOff()
	s.tracker.SetRunning(false)
	s.tracker.MarkConnected()
	appendEvent(ctx, s.eventRepo, s.clock, s.log, models.EventStop, "Traffic light stopped", nil)
	s.log.Infow("device_stopped")

	s.refresh(ctx)
	return nil
}

func (s *ControlService) command(ctx context.Context, path string) error {
	res, err := s.gw.Call(ctx, path, gateway.Options{Method: http.MethodPost})
	if err != nil {
		return err
	}
	return res.StatusError()
}

func (s *ControlService) refresh(ctx context.Context) {
	if s.poller != nil {
		s.poller.PollStatus(ctx)
	}
}
