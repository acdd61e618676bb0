package services

import (
	"context"
	"fmt"
	"log/slog"

	"pocketbook/internal/core"
	applog "pocketbook/internal/log"
	"pocketbook/internal/ports"
)

// TransactionService records manual transactions and announces changes to
// downstream consumers.
type TransactionService struct {
	store     ports.TransactionStore
	publisher ports.EventPublisher
}

// NewTransactionService creates the service. publisher may be nil.
func NewTransactionService(store ports.TransactionStore, publisher ports.EventPublisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher}
}

// CreateTransaction saves a manual transaction for userID. Any expense id on
// the input is cleared: only the materializer links transactions to
// recurring expenses.
func (s *TransactionService) CreateTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	t.UserID = userID
	t.ExpenseID = ""
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		applog.NewFields().WithTransaction(created).WithOperation(applog.OpCreate).ToSlice()...)

	publishCreated(ctx, s.publisher, created)
	return created, nil
}

// ListTransactions returns the user's transactions, most recent first.
func (s *TransactionService) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	list, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return list, nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, id string) error {
	t, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", applog.FieldUserID, userID, applog.FieldTransactionID, id)
	publishDeleted(ctx, s.publisher, t)
	return nil
}
