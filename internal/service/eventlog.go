package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"traffic_supervisor/internal/models"
	"traffic_supervisor/internal/repository"
)

// MaxLogLimit caps how many events one query may return.
const MaxLogLimit = 1000

// LogFilter selects supervisor events. Zero bounds are open.
type LogFilter struct {
	From  time.Time // inclusive
	To    time.Time // inclusive
	Type  string    // one of models.EventTypes, any case; "" for all
	Limit int       // keep only the newest Limit events; 0 for all
}

var (
	ErrInvalidTimeRange = errors.New("'from' must be <= 'to'")
	ErrUnknownEventType = errors.New("unknown event type")
	ErrInvalidLimit     = fmt.Errorf("limit must be between 1 and %d", MaxLogLimit)
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

func normalizeAndValidateFilter(f LogFilter) (LogFilter, error) {
	out := LogFilter{
		From:  normalizeToUTC(f.From),
		To:    normalizeToUTC(f.To),
		Type:  normalizeEventType(f.Type),
		Limit: f.Limit,
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return LogFilter{}, ErrInvalidTimeRange
	}
	if out.Type != "" && !models.IsEventType(out.Type) {
		return LogFilter{}, fmt.Errorf("%w %q", ErrUnknownEventType, out.Type)
	}
	if out.Limit < 0 || out.Limit > MaxLogLimit {
		return LogFilter{}, ErrInvalidLimit
	}
	return out, nil
}

// List returns matching events oldest first. With a limit, the oldest ones
// beyond it are dropped.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.SupervisorEvent, error) {
	f, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.List(ctx, f.From, f.To, f.Type)
	if err != nil {
		return nil, err
	}
	if f.Limit > 0 && len(events) > f.Limit {
		events = events[len(events)-f.Limit:]
	}
	return events, nil
}
