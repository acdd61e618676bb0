package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	applog "pocketbook/internal/log"
)

// Job is the work a MidnightScheduler runs.
type Job func(ctx context.Context, now time.Time) error

// Timer is the subset of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// SchedulerOption configures a MidnightScheduler.
type SchedulerOption func(*MidnightScheduler)

// WithClock sets the time source. The location of the returned times decides
// where midnight falls.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *MidnightScheduler) { s.now = now }
}

// WithAfterFunc replaces time.AfterFunc.
func WithAfterFunc(f func(time.Duration, func()) Timer) SchedulerOption {
	return func(s *MidnightScheduler) { s.afterFunc = f }
}

// MidnightScheduler runs a job immediately when armed and then once at every
// following local midnight, using a single one-shot timer at a time.
type MidnightScheduler struct {
	name      string
	job       Job
	now       func() time.Time
	afterFunc func(time.Duration, func()) Timer

	mu    sync.Mutex
	timer Timer
	// gen changes on every Arm and Stop so a timer that already fired cannot
	// re-arm a stopped or replaced schedule.
	gen uint64
}

func NewMidnightScheduler(name string, job Job, opts ...SchedulerOption) *MidnightScheduler {
	s := &MidnightScheduler{
		name: name,
		job:  job,
		now:  time.Now,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Arm clears any pending timer, runs the job once and schedules the next run
// for the coming midnight. The timer is armed even when the immediate run
// fails; its error is returned.
func (s *MidnightScheduler) Arm(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	s.clearLocked()
	gen := s.gen
	s.mu.Unlock()

	err := s.job(ctx, s.now())

	s.mu.Lock()
	if s.gen == gen {
		s.scheduleLocked(ctx, gen)
	}
	s.mu.Unlock()
	return err
}

// Stop cancels the pending run, if any.
func (s *MidnightScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// Armed reports whether a midnight run is pending.
func (s *MidnightScheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *MidnightScheduler) clearLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *MidnightScheduler) scheduleLocked(ctx context.Context, gen uint64) {
	now := s.now()
	next := nextMidnight(now)
	s.timer = s.afterFunc(next.Sub(now), func() { s.fire(ctx, gen) })

	slog.DebugContext(ctx, "Midnight run scheduled",
		applog.FieldComponent, applog.ComponentScheduler, "scheduler", s.name, "next_run", next.Format(time.RFC3339))
}

func (s *MidnightScheduler) fire(ctx context.Context, gen uint64) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	if err := s.job(ctx, s.now()); err != nil {
		slog.ErrorContext(ctx, "Midnight run failed",
			applog.FieldComponent, applog.ComponentScheduler, "scheduler", s.name, applog.FieldError, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.scheduleLocked(ctx, gen)
	}
}

// nextMidnight returns 00:00 of the calendar day after now, in now's location.
func nextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}
