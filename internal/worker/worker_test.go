package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketbook/internal/amqp"
	"pocketbook/internal/core"
	"pocketbook/internal/services"
	sheetsmem "pocketbook/internal/sheets/memory"
	"pocketbook/internal/storage/memory"
)

func seedUser(t *testing.T, store *memory.Store, id string) {
	t.Helper()
	_, err := store.CreateUser(context.Background(), core.User{ID: id, Name: id, Age: 20, Email: id + "@example.com"})
	require.NoError(t, err)
}

func TestSyncWorkerHandleEvent(t *testing.T) {
	ctx := context.Background()
	exporter := sheetsmem.New()
	w := NewSyncWorker(exporter, 2)
	tx := core.Transaction{ID: "t1", UserID: "u1", Description: "Rent", Category: core.Bills, Amount: decimal.NewFromInt(400), Date: core.NewDate(2024, 9, 1)}

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionCreated, tx)))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionCreated, tx)))
	assert.Len(t, exporter.Rows(), 1)

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionDeleted, tx)))
	assert.Empty(t, exporter.Rows())

	err := w.HandleEvent(ctx, &amqp.TransactionEvent{Type: "transaction.moved", Transaction: tx})
	assert.Error(t, err)
}

func TestSyncWorkerBackfill(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedUser(t, store, "u1")
	seedUser(t, store, "u2")
	for _, userID := range []string{"u1", "u1", "u2"} {
		_, err := store.CreateTransaction(ctx, core.Transaction{UserID: userID, Description: "x", Category: core.Other, Date: core.NewDate(2024, 9, 1)})
		require.NoError(t, err)
	}

	exporter := sheetsmem.New()
	n, err := NewSyncWorker(exporter, 4).Backfill(ctx, store, store)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, exporter.Rows(), 3)

	// Running again does not duplicate rows.
	_, err = NewSyncWorker(exporter, 4).Backfill(ctx, store, store)
	require.NoError(t, err)
	assert.Len(t, exporter.Rows(), 3)
}

type failingExpenses struct {
	*memory.Store
	failFor string
}

func (f *failingExpenses) ListExpenses(ctx context.Context, userID string) ([]core.RecurringExpense, error) {
	if userID == f.failFor {
		return nil, errors.New("boom")
	}
	return f.Store.ListExpenses(ctx, userID)
}

func TestRecurringRunnerRunOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	for _, id := range []string{"u1", "u2", "u3"} {
		seedUser(t, store, id)
		_, err := store.CreateExpense(ctx, core.RecurringExpense{
			UserID:        id,
			Description:   "Coffee",
			Category:      core.Food,
			Amount:        decimal.RequireFromString("2.50"),
			RecurringDays: core.Weekdays{3},
		})
		require.NoError(t, err)
	}

	// 2024-05-15 is a Wednesday.
	now := time.Date(2024, 5, 15, 0, 0, 1, 0, time.UTC)
	expenses := &failingExpenses{Store: store, failFor: "u2"}
	runner := NewRecurringRunner(store, expenses, services.NewMaterializer(store, nil), 2)

	err := runner.RunOnce(ctx, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user u2")

	for id, want := range map[string]int{"u1": 1, "u2": 0, "u3": 1} {
		list, err := store.TransactionsOnDate(ctx, id, core.DateOf(now))
		require.NoError(t, err)
		assert.Len(t, list, want, id)
	}

	// A second run the same day creates nothing new.
	expenses.failFor = ""
	require.NoError(t, runner.RunOnce(ctx, now.Add(time.Hour)))
	all, err := store.TransactionsOnDate(ctx, "u1", core.DateOf(now))
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
