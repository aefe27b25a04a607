package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"traffic_supervisor/internal/gateway"
	"traffic_supervisor/internal/logger"
	"traffic_supervisor/internal/models"
	"traffic_supervisor/internal/repository"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Device routes.
const (
	StatusPath  = "/api/status"
	SensorsPath = "/api/sensors"
	StartPath   = "/api/start"
	StopPath    = "/api/stop"
)

// Default polling cadences.
const (
	DefaultStatusInterval  = 10 * time.Second
	DefaultSensorsInterval = 5 * time.Second
)

// Gateway is the subset of gateway.Client the services depend on.
type Gateway interface {
	Call(ctx context.Context, path string, opts gateway.Options) (*gateway.Result, error)
}

// statusPayload is the /api/status body. Every field is optional and a field
// of the wrong type is treated as absent.
type statusPayload struct {
	Running     *bool
	State       any
	Time        *string
	MsRemaining *float64
	DurationsMs *models.DurationsPatch
	Sensors     *models.SensorReading
}

func (p *statusPayload) UnmarshalJSON(b []byte) error {
	o, err := models.DecodeObject(b)
	if err != nil {
		return err
	}
	*p = statusPayload{
		Running:     models.Field[bool](o, "running"),
		Time:        models.Field[string](o, "time"),
		MsRemaining: models.Field[float64](o, "ms_remaining"),
		DurationsMs: models.Field[models.DurationsPatch](o, "durations_ms"),
		Sensors:     models.Field[models.SensorReading](o, "sensors"),
	}
	if st := models.Field[any](o, "state"); st != nil {
		p.State = *st
	}
	return nil
}

// ReconcilerConfig sets the polling cadences. Zero values use the defaults.
type ReconcilerConfig struct {
	StatusInterval  time.Duration
	SensorsInterval time.Duration
}

// Reconciler polls the device and folds the answers into the tracker and
// the cycle simulator. Polls never return errors; failures become state.
type Reconciler struct {
	gw        Gateway
	tracker   *MonitoringService
	sim       *CycleSimulator
	eventRepo repository.EventRepo
	clock     clockwork.Clock
	log       *logger.Logger

	statusEvery  time.Duration
	sensorsEvery time.Duration

	statusBusy  atomic.Bool
	sensorsBusy atomic.Bool
}

func NewReconciler(gw Gateway, tracker *MonitoringService, sim *CycleSimulator, eventRepo repository.EventRepo,
	clock clockwork.Clock, log *logger.Logger, cfg ReconcilerConfig) *Reconciler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = DefaultStatusInterval
	}
	if cfg.SensorsInterval <= 0 {
		cfg.SensorsInterval = DefaultSensorsInterval
	}
	return &Reconciler{
		gw:           gw,
		tracker:      tracker,
		sim:          sim,
		eventRepo:    eventRepo,
		clock:        clock,
		log:          logger.OrNop(log),
		statusEvery:  cfg.StatusInterval,
		sensorsEvery: cfg.SensorsInterval,
	}
}

// Run polls both routes immediately and then on their own cadences until ctx
// is cancelled. On return both tickers are stopped and the simulator has no
// pending transition.
func (r *Reconciler) Run(ctx context.Context) {
	statusTick := r.clock.NewTicker(r.statusEvery)
	defer statusTick.Stop()
	sensorsTick := r.clock.NewTicker(r.sensorsEvery)
	defer sensorsTick.Stop()

	// In-flight polls finish before the simulator is stopped so none of them
	// can reseed it after teardown.
	var wg sync.WaitGroup
	defer r.sim.Stop()
	defer wg.Wait()

	poll := func(fn func(context.Context) bool) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}

	poll(r.PollStatus)
	poll(r.PollSensors)

	for {
		select {
		case <-ctx.Done():
			return
		case <-statusTick.Chan():
			// A slow poll must not delay the next tick; single-flight drops overlaps.
			poll(r.PollStatus)
		case <-sensorsTick.Chan():
			poll(r.PollSensors)
		}
	}
}

// PollStatus fetches /api/status once. It returns false without touching the
// network when another status poll is still outstanding.
func (r *Reconciler) PollStatus(ctx context.Context) bool {
	if !r.statusBusy.CompareAndSwap(false, true) {
		return false
	}
	defer r.statusBusy.Store(false)

	res, err := r.gw.Call(ctx, StatusPath, gateway.Options{})
	if err == nil {
		err = res.StatusError()
	}
	if err != nil {
		if ctx.Err() != nil {
			// Shutting down; the device did not go anywhere.
			return true
		}
		r.statusFailed(ctx, err)
		return true
	}

	// A body that is not an object still proves the device answered.
	var p statusPayload
	if err := res.Decode(&p); err != nil {
		r.log.Debugw("status_decode_failed", "err", err)
	}
	r.applyStatus(ctx, p)
	return true
}

func (r *Reconciler) statusFailed(ctx context.Context, err error) {
	msg := gateway.Describe(err)
	r.log.Debugw("status_poll_failed", "err", err)
	if r.tracker.MarkDisconnected(msg) {
		r.log.Warnw("device_disconnected", "reason", msg)
		r.appendEvent(ctx, models.EventDisconnected, "Device unreachable", map[string]any{"error": msg})
	}
}

func (r *Reconciler) applyStatus(ctx context.Context, p statusPayload) {
	if r.tracker.MarkConnected() {
		r.log.Infow("device_connected")
		r.appendEvent(ctx, models.EventConnected, "Device reachable", nil)
	}

	phase, recognized := models.ParsePhase(p.State)
	var remaining *time.Duration
	if p.MsRemaining != nil {
		d := time.Duration(*p.MsRemaining * float64(time.Millisecond))
		remaining = &d
	}

	r.tracker.UpdateDevice(func(d *models.DeviceSnapshot) {
		if p.Time != nil && strings.TrimSpace(*p.Time) != "" {
			t := *p.Time
			d.ClockText = &t
		}
		d.Durations = d.Durations.Merge(p.DurationsMs)
		if p.Running != nil {
			d.Running = *p.Running
		}
		if recognized {
			d.Phase = phase
		}
		if remaining != nil {
			ms := remaining.Milliseconds()
			d.RemainingMs = &ms
		} else {
			d.RemainingMs = nil
		}
	})

	if p.Sensors != nil {
		r.tracker.ReplaceSensors(p.Sensors)
	}

	running := p.Running != nil && *p.Running
	switch {
	case p.Running != nil && !*p.Running:
		r.sim.ForceOff()
	case running && recognized:
		r.sim.Seed(phase, remaining)
	case recognized && phase == models.PhaseOff:
		r.sim.ForceOff()
	}
}

// PollSensors fetches /api/sensors once, single-flight like PollStatus.
// Failures keep the previous readings and only record an error message.
func (r *Reconciler) PollSensors(ctx context.Context) bool {
	if !r.sensorsBusy.CompareAndSwap(false, true) {
		return false
	}
	defer r.sensorsBusy.Store(false)

	res, err := r.gw.Call(ctx, SensorsPath, gateway.Options{})
	if err == nil {
		err = res.StatusError()
	}
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		r.log.Debugw("sensors_poll_failed", "err", err)
		r.tracker.SetSensorsError(gateway.Describe(err))
		return true
	}

	var reading *models.SensorReading
	err = res.ParseErr
	if err == nil {
		err = res.Decode(&reading)
	}
	if err != nil {
		// Unreadable data is a failed read: keep the last good snapshot.
		r.log.Debugw("sensors_decode_failed", "err", err)
		r.tracker.SetSensorsError(gateway.Describe(err))
		return true
	}
	r.tracker.ReplaceSensors(reading)
	return true
}

func (r *Reconciler) appendEvent(ctx context.Context, typ, desc string, meta map[string]any) {
	appendEvent(ctx, r.eventRepo, r.clock, r.log, typ, desc, meta)
}

// appendEvent writes a log entry. Event log failures never fail the caller.
func appendEvent(ctx context.Context, repo repository.EventRepo, clock clockwork.Clock, log *logger.Logger,
	typ, desc string, meta map[string]any) {
	if repo == nil {
		return
	}
	e := models.SupervisorEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  clock.Now().UTC(),
		Type:        typ,
		Description: desc,
	}
	if meta != nil {
		e.Metadata = meta
	}
	if err := repo.Append(ctx, e); err != nil {
		log.Errorw("event_append_failed", "err", err, "type", typ)
	}
}
