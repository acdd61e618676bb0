package services

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketbook/internal/cache"
	"pocketbook/internal/core"
	"pocketbook/internal/ports"
	"pocketbook/internal/storage/memory"
)

func TestExpenseServiceValidatesInput(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(memory.New())

	_, err := svc.CreateExpense(ctx, "u1", core.RecurringExpense{
		Description:   "Gym",
		Category:      core.Entertainment,
		Amount:        decimal.NewFromInt(-1),
		RecurringDays: core.Weekdays{1},
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = svc.CreateExpense(ctx, "u1", core.RecurringExpense{
		Description:   "Gym",
		Category:      core.Entertainment,
		Amount:        decimal.NewFromInt(5),
		RecurringDays: core.Weekdays{1, 7},
	})
	assert.ErrorIs(t, err, core.ErrInvalidWeekday)

	e, err := svc.CreateExpense(ctx, "u1", core.RecurringExpense{
		UserID:        "someone-else",
		Description:   "Gym",
		Category:      core.Entertainment,
		Amount:        decimal.NewFromInt(5),
		RecurringDays: core.Weekdays{1},
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", e.UserID)

	_, err = svc.UpdateExpense(ctx, "u1", e.ID, core.ExpenseChanges{Description: "", Amount: decimal.NewFromInt(5), RecurringDays: core.Weekdays{1}})
	assert.ErrorIs(t, err, core.ErrEmptyDescription)

	err = svc.DeleteExpense(ctx, "u2", e.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestServiceLogsUseSharedFieldNames(t *testing.T) {
	ctx := context.Background()
	logs := captureLogs(t)
	now := wednesdayMorning
	sessions, store, _ := newTestSessions(t, &now)
	svc := NewExpenseService(store)

	e := addExpense(t, store, "u1", 3)
	_, err := svc.UpdateExpense(ctx, "u1", e.ID, core.ExpenseChanges{Description: "Dinner", Amount: decimal.NewFromInt(9), RecurringDays: core.Weekdays{3}})
	require.NoError(t, err)
	require.NoError(t, sessions.SignIn(ctx, "u1"))
	require.NoError(t, svc.DeleteExpense(ctx, "u1", e.ID))

	out := logs.String()
	assert.Contains(t, out, "msg=\"Recurring expense updated\" operation=update user_id=u1 expense_id="+e.ID)
	assert.Contains(t, out, "msg=\"Materialized recurring expenses\" user_id=u1 component=session created=1")
	assert.Contains(t, out, "msg=\"Recurring expense deleted\" operation=delete user_id=u1 expense_id="+e.ID)
}

func TestTransactionServicePublishes(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewTransactionService(memory.New(), pub)

	created, err := svc.CreateTransaction(ctx, "u1", core.Transaction{
		ExpenseID:   "forged",
		Description: "Textbook",
		Category:    core.Education,
		Amount:      decimal.RequireFromString("45.90"),
		Date:        core.NewDate(2024, 9, 2),
	})
	require.NoError(t, err)
	assert.Empty(t, created.ExpenseID)
	assert.Equal(t, "u1", created.UserID)
	require.Len(t, pub.created, 1)

	_, err = svc.CreateTransaction(ctx, "u1", core.Transaction{Description: "x", Category: "Rent", Date: core.NewDate(2024, 9, 2)})
	assert.ErrorIs(t, err, core.ErrInvalidCategory)

	require.NoError(t, svc.DeleteTransaction(ctx, "u1", created.ID))
	require.Len(t, pub.deleted, 1)
	assert.Equal(t, created.ID, pub.deleted[0].ID)

	assert.ErrorIs(t, svc.DeleteTransaction(ctx, "u1", created.ID), ports.ErrNotFound)
}

func TestUserServiceCachesProfiles(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	profiles := cache.NewLRUCache[core.User](10, time.Minute)
	svc := NewUserService(store, profiles)

	_, err := svc.Register(ctx, core.User{ID: "u1", Name: "Ana", Age: 0, Email: "ana@example.com"})
	assert.ErrorIs(t, err, core.ErrInvalidAge)

	_, err = svc.Register(ctx, core.User{ID: "u1", Name: "Ana", Age: 19, Email: "ana@example.com", MonthlyBudget: decimal.NewFromInt(800)})
	require.NoError(t, err)
	assert.Equal(t, 1, profiles.Size())

	_, err = svc.Register(ctx, core.User{ID: "u1", Name: "Ana", Age: 19, Email: "ana@example.com"})
	assert.ErrorIs(t, err, ports.ErrAlreadyExists)

	_, err = svc.UpdateProfile(ctx, "u1", core.ProfileChanges{})
	assert.ErrorIs(t, err, ErrNoChanges)

	budget := decimal.NewFromInt(950)
	_, err = svc.UpdateProfile(ctx, "u1", core.ProfileChanges{MonthlyBudget: &budget})
	require.NoError(t, err)

	cached, ok := profiles.Get("u1")
	require.True(t, ok)
	assert.True(t, cached.MonthlyBudget.Equal(budget))

	u, err := svc.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.MonthlyBudget.Equal(budget))

	_, err = svc.Profile(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	ids, err := svc.UserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)
}

func TestReportService(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewReportService(store, store)

	for _, tr := range []core.Transaction{
		tx(core.NewDate(2024, 5, 3), core.Food, "200.00"),
		tx(core.NewDate(2024, 5, 4), core.Food, "50.00"),
		tx(core.NewDate(2024, 5, 5), core.Bills, "300.00"),
		tx(core.NewDate(2024, 6, 5), core.Bills, "300.00"),
	} {
		_, err := store.CreateTransaction(ctx, tr)
		require.NoError(t, err)
	}
	_, err := store.CreateExpense(ctx, expense("", "10.00", 1, 3, 5))
	require.NoError(t, err)

	report, err := svc.MonthlyReport(ctx, "u1", core.NewDate(2024, 5, 20), dec("1000"))
	require.NoError(t, err)
	assert.True(t, report.TotalSpent.Equal(dec("550")))
	assert.True(t, report.RemainingBudget.Equal(dec("450")))
	assert.Len(t, report.Transactions, 3)

	current, err := svc.CurrentMonthReport(ctx, "u1", time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC), dec("1000"))
	require.NoError(t, err)
	assert.True(t, current.TotalSpent.Equal(dec("300")))

	projected, err := svc.ProjectedMonthlyTotal(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "128.57", projected.StringFixed(2))

	// Mon/Wed/Fri on or before Wednesday 2024-05-15: 1, 3, 6, 8, 10, 13, 15.
	remaining, err := svc.RemainingBudgetByDayWalk(ctx, "u1", dec("100"), wednesdayMorning)
	require.NoError(t, err)
	assert.True(t, remaining.Equal(dec("30")), "got %s", remaining)
}
