package services

import (
	"context"
	"fmt"
	"log/slog"

	"pocketbook/internal/core"
	applog "pocketbook/internal/log"
	"pocketbook/internal/ports"
)

// ExpenseService manages a user's recurring expense definitions.
type ExpenseService struct {
	store ports.ExpenseStore
}

func NewExpenseService(store ports.ExpenseStore) *ExpenseService {
	return &ExpenseService{store: store}
}

// CreateExpense validates and stores a new recurring expense owned by userID.
func (s *ExpenseService) CreateExpense(ctx context.Context, userID string, e core.RecurringExpense) (core.RecurringExpense, error) {
	e.UserID = userID
	if err := e.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}

	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Recurring expense created",
		append(applog.NewFields().WithExpense(created).WithOperation(applog.OpCreate).ToSlice(),
			"recurring_days", created.RecurringDays)...)
	return created, nil
}

func (s *ExpenseService) ListExpenses(ctx context.Context, userID string) ([]core.RecurringExpense, error) {
	expenses, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// UpdateExpense overwrites description, amount and recurring days. Already
// materialized transactions are left as they are.
func (s *ExpenseService) UpdateExpense(ctx context.Context, userID, id string, changes core.ExpenseChanges) (core.RecurringExpense, error) {
	if err := changes.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}

	updated, err := s.store.UpdateExpense(ctx, userID, id, changes)
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("update expense: %w", err)
	}

	slog.InfoContext(ctx, "Recurring expense updated",
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldUserID, userID,
		applog.FieldExpenseID, id,
		applog.FieldAmount, updated.Amount.String(),
		"recurring_days", updated.RecurringDays)
	return updated, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	slog.InfoContext(ctx, "Recurring expense deleted",
		applog.FieldOperation, applog.OpDelete, applog.FieldUserID, userID, applog.FieldExpenseID, id)
	return nil
}
