package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketbook/internal/core"
	"pocketbook/internal/ports"
)

func TestCreateTransactionIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := core.NewDate(2024, 5, 15)

	tx := core.Transaction{
		UserID:      "u1",
		ExpenseID:   "e1",
		Description: "Coffee",
		Category:    core.Food,
		Amount:      decimal.RequireFromString("3.50"),
		Date:        day,
	}

	first, created, err := s.CreateTransactionIfAbsent(ctx, tx)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.ID)

	second, created, err := s.CreateTransactionIfAbsent(ctx, tx)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// Same expense on another day is a new occurrence.
	tx.Date = day.AddDays(7)
	_, created, err = s.CreateTransactionIfAbsent(ctx, tx)
	require.NoError(t, err)
	assert.True(t, created)

	all, err := s.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2024-05-22", all[0].Date.String())
}

func TestTransactionsAreUserScoped(t *testing.T) {
	ctx := context.Background()
	s := New()

	mine, err := s.CreateTransaction(ctx, core.Transaction{UserID: "u1", Description: "Bus", Category: core.Transportation, Date: core.NewDate(2024, 5, 1)})
	require.NoError(t, err)
	_, err = s.CreateTransaction(ctx, core.Transaction{UserID: "u2", Description: "Bus", Category: core.Transportation, Date: core.NewDate(2024, 5, 1)})
	require.NoError(t, err)

	_, err = s.GetTransaction(ctx, "u2", mine.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, "u2", mine.ID), ports.ErrNotFound)

	onDay, err := s.TransactionsOnDate(ctx, "u1", core.NewDate(2024, 5, 1))
	require.NoError(t, err)
	assert.Len(t, onDay, 1)

	require.NoError(t, s.DeleteTransaction(ctx, "u1", mine.ID))
	onDay, err = s.TransactionsOnDate(ctx, "u1", core.NewDate(2024, 5, 1))
	require.NoError(t, err)
	assert.Empty(t, onDay)
}

func TestTransactionsBetweenIsInclusive(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, d := range []core.Date{
		core.NewDate(2024, 4, 30),
		core.NewDate(2024, 5, 1),
		core.NewDate(2024, 5, 31),
		core.NewDate(2024, 6, 1),
	} {
		_, err := s.CreateTransaction(ctx, core.Transaction{UserID: "u1", Description: "x", Category: core.Other, Date: d})
		require.NoError(t, err)
	}

	got, err := s.TransactionsBetween(ctx, "u1", core.NewDate(2024, 5, 1), core.NewDate(2024, 5, 31))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-05-31", got[0].Date.String())
	assert.Equal(t, "2024-05-01", got[1].Date.String())
}

func TestExpenseLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	e, err := s.CreateExpense(ctx, core.RecurringExpense{
		UserID:        "u1",
		Description:   "Lunch",
		Category:      core.Food,
		Amount:        decimal.NewFromInt(10),
		RecurringDays: core.Weekdays{1, 3},
	})
	require.NoError(t, err)

	updated, err := s.UpdateExpense(ctx, "u1", e.ID, core.ExpenseChanges{
		Description:   "Dinner",
		Amount:        decimal.NewFromInt(12),
		RecurringDays: core.Weekdays{5},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dinner", updated.Description)
	assert.Equal(t, core.Food, updated.Category)
	assert.Equal(t, core.Weekdays{5}, updated.RecurringDays)

	_, err = s.UpdateExpense(ctx, "u2", e.ID, core.ExpenseChanges{Description: "x"})
	assert.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, s.DeleteExpense(ctx, "u1", e.ID))
	list, err := s.ListExpenses(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.CreateUser(ctx, core.User{ID: "u1", Name: "Ana", Age: 20, Email: "ana@example.com"})
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, core.User{ID: "u1", Name: "Ana"})
	assert.ErrorIs(t, err, ports.ErrAlreadyExists)

	budget := decimal.NewFromInt(900)
	u, err := s.UpdateUser(ctx, "u1", core.ProfileChanges{MonthlyBudget: &budget})
	require.NoError(t, err)
	assert.True(t, u.MonthlyBudget.Equal(budget))
	assert.Equal(t, "Ana", u.Name)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	ids, err := s.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)
}
