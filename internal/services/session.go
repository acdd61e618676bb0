package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	applog "pocketbook/internal/log"
	"pocketbook/internal/ports"
)

// SessionManager keeps a midnight materialization schedule for every
// signed-in user that has recurring expenses.
type SessionManager struct {
	expenses     ports.ExpenseStore
	materializer *Materializer
	now          func() time.Time
	opts         []SchedulerOption

	mu         sync.Mutex
	schedulers map[string]*MidnightScheduler
}

// NewSessionManager creates a manager. now decides "today" and where midnight
// falls; pass a clock in the configured time zone.
func NewSessionManager(expenses ports.ExpenseStore, materializer *Materializer, now func() time.Time, opts ...SchedulerOption) *SessionManager {
	if now == nil {
		now = time.Now
	}
	return &SessionManager{
		expenses:     expenses,
		materializer: materializer,
		now:          now,
		opts:         opts,
		schedulers:   make(map[string]*MidnightScheduler),
	}
}

// SignIn materializes today's recurring expenses for the user and arms the
// user's midnight schedule. Users without recurring expenses get no schedule.
// Signing in again replaces the previous schedule.
func (m *SessionManager) SignIn(ctx context.Context, userID string) error {
	expenses, err := m.expenses.ListExpenses(ctx, userID)
	if err != nil {
		return fmt.Errorf("load recurring expenses: %w", err)
	}

	if len(expenses) == 0 {
		m.SignOut(userID)
		slog.InfoContext(ctx, "Signed in without recurring expenses",
			applog.FieldUserID, userID, applog.FieldComponent, applog.ComponentSession, applog.FieldOperation, applog.OpSignIn)
		return nil
	}

	if err := m.arm(ctx, userID, m.scheduler(userID)); err != nil {
		return fmt.Errorf("materialize recurring expenses: %w", err)
	}

	slog.InfoContext(ctx, "Signed in",
		applog.FieldUserID, userID,
		applog.FieldComponent, applog.ComponentSession,
		applog.FieldOperation, applog.OpSignIn,
		"recurring_expenses", len(expenses))
	return nil
}

// Refresh re-reads the user's expenses and re-arms the schedule. It is called
// after the expense list changes.
func (m *SessionManager) Refresh(ctx context.Context, userID string) error {
	return m.SignIn(ctx, userID)
}

// SignOut stops and forgets the user's schedule.
func (m *SessionManager) SignOut(userID string) {
	m.mu.Lock()
	s, ok := m.schedulers[userID]
	delete(m.schedulers, userID)
	m.mu.Unlock()

	if ok {
		s.Stop()
		slog.Info("Signed out",
			applog.FieldUserID, userID, applog.FieldComponent, applog.ComponentSession, applog.FieldOperation, applog.OpSignOut)
	}
}

// Active reports whether the user has an armed schedule.
func (m *SessionManager) Active(userID string) bool {
	m.mu.Lock()
	s, ok := m.schedulers[userID]
	m.mu.Unlock()
	return ok && s.Armed()
}

// Close stops every schedule.
func (m *SessionManager) Close() {
	m.mu.Lock()
	all := m.schedulers
	m.schedulers = make(map[string]*MidnightScheduler)
	m.mu.Unlock()

	for _, s := range all {
		s.Stop()
	}
}

// arm arms s and stops it again if the user signed out meanwhile, so an
// untracked schedule never keeps running.
func (m *SessionManager) arm(ctx context.Context, userID string, s *MidnightScheduler) error {
	err := s.Arm(ctx)

	m.mu.Lock()
	current := m.schedulers[userID] == s
	m.mu.Unlock()
	if !current {
		s.Stop()
	}
	return err
}

func (m *SessionManager) scheduler(userID string) *MidnightScheduler {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.schedulers[userID]; ok {
		return s
	}
	s := NewMidnightScheduler("materialize:"+userID, m.materializeJob(userID), append([]SchedulerOption{WithClock(m.now)}, m.opts...)...)
	m.schedulers[userID] = s
	return s
}

// materializeJob reloads the expense list on every run so edits made since
// sign-in are honored.
func (m *SessionManager) materializeJob(userID string) Job {
	return func(ctx context.Context, now time.Time) error {
		expenses, err := m.expenses.ListExpenses(ctx, userID)
		if err != nil {
			return fmt.Errorf("load recurring expenses: %w", err)
		}
		created, err := m.materializer.Materialize(ctx, userID, expenses, now)
		if err != nil {
			return err
		}
		if len(created) > 0 {
			slog.InfoContext(ctx, "Materialized recurring expenses",
				applog.FieldUserID, userID, applog.FieldComponent, applog.ComponentSession, "created", len(created))
		}
		return nil
	}
}
