package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	applog "pocketbook/internal/log"
	"pocketbook/internal/ports"
	"pocketbook/internal/services"
)

// RecurringRunner materializes recurring expenses for every registered user.
// It backs the recurring-worker process, which covers users who are not
// signed in at midnight.
type RecurringRunner struct {
	users        ports.UserStore
	expenses     ports.ExpenseStore
	materializer *services.Materializer
	concurrency  int
}

func NewRecurringRunner(users ports.UserStore, expenses ports.ExpenseStore, materializer *services.Materializer, concurrency int) *RecurringRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &RecurringRunner{
		users:        users,
		expenses:     expenses,
		materializer: materializer,
		concurrency:  concurrency,
	}
}

// RunOnce materializes today's occurrences for all users. A failure for one
// user does not stop the others; all failures are joined into the result.
// It matches services.Job so it can be armed on a MidnightScheduler.
func (r *RecurringRunner) RunOnce(ctx context.Context, now time.Time) error {
	ids, err := r.users.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var (
		mu      sync.Mutex
		errs    []error
		created int
	)
	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for _, userID := range ids {
		g.Go(func() error {
			n, err := r.runUser(ctx, userID, now)
			mu.Lock()
			defer mu.Unlock()
			created += n
			if err != nil {
				errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.InfoContext(ctx, "Recurring expense run complete",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldOperation, applog.OpMaterialize,
		"users", len(ids),
		"created", created,
		"failed", len(errs),
		"date", now.Format("2006-01-02"))
	return errors.Join(errs...)
}

func (r *RecurringRunner) runUser(ctx context.Context, userID string, now time.Time) (int, error) {
	expenses, err := r.expenses.ListExpenses(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list expenses: %w", err)
	}
	if len(expenses) == 0 {
		return 0, nil
	}
	created, err := r.materializer.Materialize(ctx, userID, expenses, now)
	return len(created), err
}
