package models

import (
	"encoding/json"
	"time"
)

// Default phase durations used until the device reports its own.
const (
	DefaultRedDuration    = 8000 * time.Millisecond
	DefaultGreenDuration  = 9000 * time.Millisecond
	DefaultYellowDuration = 2000 * time.Millisecond

	// offDelay is only used if an OFF phase is ever asked for a duration.
	offDelay = 3000 * time.Millisecond
)

// Durations holds the configured length of each phase. All values are positive.
type Durations struct {
	Red    time.Duration `json:"red"`
	Green  time.Duration `json:"green"`
	Yellow time.Duration `json:"yellow"`
}

// DefaultDurations returns the durations assumed before the first status poll.
func DefaultDurations() Durations {
	return Durations{
		Red:    DefaultRedDuration,
		Green:  DefaultGreenDuration,
		Yellow: DefaultYellowDuration,
	}
}

// For returns the configured duration of phase p.
func (d Durations) For(p Phase) time.Duration {
	switch p {
	case PhaseGreen:
		return d.Green
	case PhaseYellow:
		return d.Yellow
	case PhaseRed:
		return d.Red
	default:
		return offDelay
	}
}

// DurationsPatch carries the durations reported by the device, in milliseconds.
// Nil fields were omitted by the device.
type DurationsPatch struct {
	Red    *int64 `json:"red,omitempty"`
	Green  *int64 `json:"green,omitempty"`
	Yellow *int64 `json:"yellow,omitempty"`
}

// Merge applies the reported fields on top of d. Omitted or non-positive values
// keep the previously known duration.
func (d Durations) Merge(p *DurationsPatch) Durations {
	if p == nil {
		return d
	}
	d.Red = mergeMs(d.Red, p.Red)
	d.Green = mergeMs(d.Green, p.Green)
	d.Yellow = mergeMs(d.Yellow, p.Yellow)
	return d
}

// UnmarshalJSON reads each field on its own; a mistyped field is left nil.
func (p *DurationsPatch) UnmarshalJSON(b []byte) error {
	o, err := DecodeObject(b)
	if err != nil {
		return err
	}
	*p = DurationsPatch{
		Red:    IntField(o, "red"),
		Green:  IntField(o, "green"),
		Yellow: IntField(o, "yellow"),
	}
	return nil
}

func mergeMs(prev time.Duration, ms *int64) time.Duration {
	if ms == nil || *ms <= 0 {
		return prev
	}
	return time.Duration(*ms) * time.Millisecond
}

type durationsJSON struct {
	RedMs    int64 `json:"red_ms"`
	GreenMs  int64 `json:"green_ms"`
	YellowMs int64 `json:"yellow_ms"`
}

// MarshalJSON renders durations in milliseconds, the unit the device uses.
func (d Durations) MarshalJSON() ([]byte, error) {
	return json.Marshal(durationsJSON{
		RedMs:    d.Red.Milliseconds(),
		GreenMs:  d.Green.Milliseconds(),
		YellowMs: d.Yellow.Milliseconds(),
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (d *Durations) UnmarshalJSON(b []byte) error {
	var v durationsJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	d.Red = time.Duration(v.RedMs) * time.Millisecond
	d.Green = time.Duration(v.GreenMs) * time.Millisecond
	d.Yellow = time.Duration(v.YellowMs) * time.Millisecond
	return nil
}
