package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"pocketbook/internal/core"
	applog "pocketbook/internal/log"
	"pocketbook/internal/ports"
)

// Materializer turns recurring expenses that are due today into concrete
// transactions. It is safe to call repeatedly: an expense yields at most one
// transaction per day.
type Materializer struct {
	transactions ports.TransactionStore
	publisher    ports.EventPublisher
	checker      DuenessChecker
	flights      singleflight.Group
}

// NewMaterializer creates a materializer. publisher may be nil.
func NewMaterializer(transactions ports.TransactionStore, publisher ports.EventPublisher) *Materializer {
	return &Materializer{
		transactions: transactions,
		publisher:    publisher,
		checker:      WeekdayChecker{},
	}
}

// WithChecker replaces the dueness strategy.
func (m *Materializer) WithChecker(c DuenessChecker) *Materializer {
	m.checker = c
	return m
}

// Materialize creates today's transactions for the user's due expenses and
// returns the ones it created. "Today" is the calendar date of now in now's
// location. Concurrent calls for the same user, day and set of due expenses
// share one run.
func (m *Materializer) Materialize(ctx context.Context, userID string, expenses []core.RecurringExpense, now time.Time) ([]core.Transaction, error) {
	today := core.DateOf(now)
	due := DueOn(m.checker, expenses, today)

	v, err, shared := m.flights.Do(flightKey(userID, today, due), func() (any, error) {
		return m.materialize(ctx, userID, due, today)
	})
	created, _ := v.([]core.Transaction)
	if shared {
		slog.DebugContext(ctx, "Materialization shared with concurrent caller",
			applog.FieldUserID, userID, applog.FieldDate, today.String())
	}
	return created, err
}

// flightKey identifies a run by user, day and the sorted ids of the due
// expenses. Callers holding a different expense list never join each other.
func flightKey(userID string, day core.Date, due []core.RecurringExpense) string {
	ids := make([]string, 0, len(due))
	for _, e := range due {
		ids = append(ids, e.ID)
	}
	slices.Sort(ids)
	return userID + "|" + day.String() + "|" + strings.Join(ids, ",")
}

func (m *Materializer) materialize(ctx context.Context, userID string, due []core.RecurringExpense, today core.Date) ([]core.Transaction, error) {
	existing, err := m.transactions.TransactionsOnDate(ctx, userID, today)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions for %s: %w", today, err)
	}

	done := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		if t.Materialized() {
			done[t.ExpenseID] = struct{}{}
		}
	}

	var created []core.Transaction
	for _, e := range due {
		if _, ok := done[e.ID]; ok {
			continue
		}

		stored, isNew, err := m.transactions.CreateTransactionIfAbsent(ctx, core.NewMaterializedTransaction(e, today))
		if err != nil {
			fields := applog.NewFields().
				WithExpense(e).
				WithComponent(applog.ComponentMaterializer).
				WithOperation(applog.OpMaterialize).
				WithError(err)
			fields[applog.FieldDate] = today.String()
			slog.ErrorContext(ctx, "Failed to materialize recurring expense", fields.ToSlice()...)
			return created, fmt.Errorf("materialize expense %s: %w", e.ID, err)
		}
		done[e.ID] = struct{}{}
		if !isNew {
			continue
		}

		created = append(created, stored)
		slog.InfoContext(ctx, "Created transaction from recurring expense",
			applog.NewFields().WithTransaction(stored).WithComponent(applog.ComponentMaterializer).ToSlice()...)

		publishCreated(ctx, m.publisher, stored)
	}

	return created, nil
}

func publishCreated(ctx context.Context, p ports.EventPublisher, t core.Transaction) {
	if p == nil {
		return
	}
	if err := p.PublishTransactionCreated(ctx, t); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction created event",
			applog.FieldTransactionID, t.ID, applog.FieldComponent, applog.ComponentAMQP, applog.FieldError, err)
	}
}

func publishDeleted(ctx context.Context, p ports.EventPublisher, t core.Transaction) {
	if p == nil {
		return
	}
	if err := p.PublishTransactionDeleted(ctx, t); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction deleted event",
			applog.FieldTransactionID, t.ID, applog.FieldComponent, applog.ComponentAMQP, applog.FieldError, err)
	}
}
