package service

import (
	"context"
	"sync"
	"time"

	"traffic_supervisor/internal/models"

	"github.com/jonboulle/clockwork"
)

// EndpointSource reports the current endpoint configuration.
type EndpointSource interface {
	Config() models.EndpointConfig
}

// ProxySource reports what is known about the proxy.
type ProxySource interface {
	Status() models.ProxyStatus
}

// StateListener is notified with a fresh copy after every published change.
type StateListener func(models.SupervisorState)

// MonitoringService holds the published supervisor state. The reconciler is
// the only writer of the device snapshot; the simulator writes only the phase.
type MonitoringService struct {
	clock    clockwork.Clock
	endpoint EndpointSource
	proxy    ProxySource

	mu           sync.RWMutex
	connectivity models.Connectivity
	statusErr    string
	phase        models.Phase
	device       models.DeviceSnapshot
	updatedAt    time.Time
	version      uint64

	// notifyMu orders a mutation together with its delivery, so listeners
	// see states in version order. Listeners must not mutate the tracker.
	notifyMu    sync.Mutex
	listenersMu sync.Mutex
	nextID      uint64
	listeners   []subscription
}

type subscription struct {
	id uint64
	fn StateListener
}

func NewMonitoringService(clock clockwork.Clock, endpoint EndpointSource, proxy ProxySource) *MonitoringService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MonitoringService{
		clock:        clock,
		endpoint:     endpoint,
		proxy:        proxy,
		connectivity: models.Disconnected,
		phase:        models.PhaseOff,
		device: models.DeviceSnapshot{
			Phase:     models.PhaseOff,
			Durations: models.DefaultDurations(),
		},
		updatedAt: clock.Now().UTC(),
	}
}

// GetState returns the current published state.
func (s *MonitoringService) GetState(ctx context.Context) (models.SupervisorState, error) {
	if err := ctx.Err(); err != nil {
		return models.SupervisorState{}, err
	}
	return s.snapshot(), nil
}

func (s *MonitoringService) snapshot() models.SupervisorState {
	s.mu.RLock()
	st := s.snapshotLocked()
	s.mu.RUnlock()
	return s.withSources(st)
}

func (s *MonitoringService) snapshotLocked() models.SupervisorState {
	return models.SupervisorState{
		Connectivity: s.connectivity,
		StatusError:  s.statusErr,
		Phase:        s.phase,
		Device:       cloneDevice(s.device),
		UpdatedAt:    s.updatedAt,
		Version:      s.version,
	}
}

// withSources adds the endpoint and proxy status, which the tracker does not own.
func (s *MonitoringService) withSources(st models.SupervisorState) models.SupervisorState {
	if s.endpoint != nil {
		st.Endpoint = s.endpoint.Config()
	}
	st.Proxy = models.ProxyStatus{Availability: models.ProxyUnknown}
	if s.proxy != nil {
		st.Proxy = s.proxy.Status()
	}
	return st
}

// Device returns a copy of the device snapshot.
func (s *MonitoringService) Device() models.DeviceSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDevice(s.device)
}

// Durations returns the latest known phase durations.
func (s *MonitoringService) Durations() models.Durations {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.device.Durations
}

// Phase returns the locally simulated phase.
func (s *MonitoringService) Phase() models.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Connectivity returns the result of the most recent status poll.
func (s *MonitoringService) Connectivity() models.Connectivity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectivity
}

// Running reports the device running flag as last observed.
func (s *MonitoringService) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.device.Running
}

// SetPhase publishes the simulated phase.
func (s *MonitoringService) SetPhase(p models.Phase) {
	s.mutate(func() { s.phase = p })
}

// MarkConnected records a successful exchange with the device.
// It reports whether connectivity changed.
func (s *MonitoringService) MarkConnected() (changed bool) {
	s.mutate(func() {
		changed = s.connectivity != models.Connected
		s.connectivity = models.Connected
		s.statusErr = ""
	})
	return changed
}

// MarkDisconnected records a failed status exchange and clears the device
// clock text. It reports whether connectivity changed.
func (s *MonitoringService) MarkDisconnected(reason string) (changed bool) {
	s.mutate(func() {
		changed = s.connectivity != models.Disconnected
		s.connectivity = models.Disconnected
		s.statusErr = reason
		s.device.ClockText = nil
	})
	return changed
}

// MarkUnreachable records a failed command. Unlike MarkDisconnected it keeps
// the device snapshot, since no status poll failed.
func (s *MonitoringService) MarkUnreachable(reason string) (changed bool) {
	s.mutate(func() {
		changed = s.connectivity != models.Disconnected
		s.connectivity = models.Disconnected
		s.statusErr = reason
	})
	return changed
}

// SetRunning overrides the running flag after a start/stop command.
func (s *MonitoringService) SetRunning(running bool) {
	s.mutate(func() { s.device.Running = running })
}

// UpdateDevice applies fn to the device snapshot under the write lock.
func (s *MonitoringService) UpdateDevice(fn func(d *models.DeviceSnapshot)) {
	s.mutate(func() { fn(&s.device) })
}

// ReplaceSensors swaps the sensor snapshot wholesale. Blocks the payload
// omits are gone afterwards.
func (s *MonitoringService) ReplaceSensors(r *models.SensorReading) {
	s.mutate(func() { s.replaceSensorsLocked(r) })
}

func (s *MonitoringService) replaceSensorsLocked(r *models.SensorReading) {
	s.device.Sensors = r
	s.device.SensorsAt = s.clock.Now().UTC()
	s.device.SensorsError = ""
}

// SetSensorsError keeps the last sensor snapshot and records why the latest
// read failed.
func (s *MonitoringService) SetSensorsError(msg string) {
	s.mutate(func() { s.device.SensorsError = msg })
}

// Subscribe registers fn for state changes and returns a func that removes it.
func (s *MonitoringService) Subscribe(fn StateListener) (unsubscribe func()) {
	s.listenersMu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Touch notifies listeners without changing state. Used after the endpoint
// or proxy status moves, since those live outside the tracker.
func (s *MonitoringService) Touch() {
	s.mutate(func() {})
}

func (s *MonitoringService) mutate(fn func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	fn()
	s.updatedAt = s.clock.Now().UTC()
	s.version++
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.listenersMu.Lock()
	listeners := append([]subscription(nil), s.listeners...)
	s.listenersMu.Unlock()
	if len(listeners) == 0 {
		return
	}
	st = s.withSources(st)
	for _, sub := range listeners {
		sub.fn(st)
	}
}

// cloneDevice copies the pointer fields callers may hold on to.
func cloneDevice(d models.DeviceSnapshot) models.DeviceSnapshot {
	if d.RemainingMs != nil {
		v := *d.RemainingMs
		d.RemainingMs = &v
	}
	if d.ClockText != nil {
		v := *d.ClockText
		d.ClockText = &v
	}
	return d
}
