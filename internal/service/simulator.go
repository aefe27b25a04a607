package service

import (
	"sync"
	"time"

	"traffic_supervisor/internal/logger"
	"traffic_supervisor/internal/models"

	"github.com/jonboulle/clockwork"
)

// DurationSource supplies the phase durations used for every scheduled transition.
type DurationSource interface {
	Durations() models.Durations
}

// PhaseSink receives every phase the simulator enters.
type PhaseSink interface {
	SetPhase(p models.Phase)
}

// CycleSimulator free-runs the light cycle between status polls and is
// resynchronized by Seed whenever the device reports a running phase.
// At most one transition is pending at any time.
type CycleSimulator struct {
	clock     clockwork.Clock
	durations DurationSource
	sink      PhaseSink
	log       *logger.Logger

	mu      sync.Mutex
	phase   models.Phase
	pending clockwork.Timer
	// gen invalidates callbacks of timers that were already firing when cancelled.
	gen uint64
}

// NewCycleSimulator returns a simulator in the OFF phase with nothing scheduled.
func NewCycleSimulator(clock clockwork.Clock, durations DurationSource, sink PhaseSink, log *logger.Logger) *CycleSimulator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CycleSimulator{
		clock:     clock,
		durations: durations,
		sink:      sink,
		log:       logger.OrNop(log),
		phase:     models.PhaseOff,
	}
}

// Phase returns the current simulated phase.
func (s *CycleSimulator) Phase() models.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Pending reports whether a transition is scheduled.
func (s *CycleSimulator) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Seed cancels any pending transition and restarts the cycle at phase.
// An OFF seed starts at GREEN. The first transition fires after firstDelay
// when it is given and non-negative, otherwise after the phase duration.
func (s *CycleSimulator) Seed(phase models.Phase, firstDelay *time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	if phase == models.PhaseOff {
		phase = models.PhaseGreen
	}
	s.phase = phase

	delay := s.durationOf(phase)
	if firstDelay != nil && *firstDelay >= 0 {
		delay = *firstDelay
	}
	s.scheduleLocked(delay)
	s.publishLocked()
	s.log.Debugw("simulator_seeded", "phase", phase, "first_delay", delay)
}

// ForceOff cancels any pending transition and enters OFF.
func (s *CycleSimulator) ForceOff() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	if s.phase == models.PhaseOff {
		return
	}
	s.phase = models.PhaseOff
	s.publishLocked()
}

// Stop cancels the pending transition and keeps the current phase.
func (s *CycleSimulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

func (s *CycleSimulator) fire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return
	}
	s.phase = s.phase.Next()
	s.scheduleLocked(s.durationOf(s.phase))
	s.publishLocked()
}

// scheduleLocked arms the single pending transition for the current generation.
func (s *CycleSimulator) scheduleLocked(d time.Duration) {
	gen := s.gen
	s.pending = s.clock.AfterFunc(d, func() { s.fire(gen) })
}

func (s *CycleSimulator) cancelLocked() {
	s.gen++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

func (s *CycleSimulator) publishLocked() {
	if s.sink != nil {
		s.sink.SetPhase(s.phase)
	}
}

func (s *CycleSimulator) durationOf(p models.Phase) time.Duration {
	d := models.DefaultDurations()
	if s.durations != nil {
		d = s.durations.Durations()
	}
	v := d.For(p)
	if v <= 0 {
		v = models.DefaultDurations().For(p)
	}
	return v
}
