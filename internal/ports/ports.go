// Package ports declares the persistence boundaries the services depend on.
// Every call is scoped to the acting user's id.
package ports

import (
	"context"
	"errors"

	"pocketbook/internal/core"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a user whose id is taken.
	ErrAlreadyExists = errors.New("already exists")
)

type (
	// ExpenseStore holds recurring daily-expense definitions (collection daily_expenses).
	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.RecurringExpense) (core.RecurringExpense, error)
		ListExpenses(ctx context.Context, userID string) ([]core.RecurringExpense, error)
		GetExpense(ctx context.Context, userID, id string) (core.RecurringExpense, error)
		// UpdateExpense overwrites description, amount and recurring days in place.
		UpdateExpense(ctx context.Context, userID, id string, changes core.ExpenseChanges) (core.RecurringExpense, error)
		DeleteExpense(ctx context.Context, userID, id string) error
	}

	// TransactionStore holds concrete dated transactions (collection transactions).
	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		// CreateTransactionIfAbsent inserts a materialized transaction unless one
		// already exists for the same (user, expense, date). created is false
		// when the existing row won.
		CreateTransactionIfAbsent(ctx context.Context, t core.Transaction) (stored core.Transaction, created bool, err error)
		// ListTransactions returns all of a user's transactions, most recent date first.
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
		TransactionsOnDate(ctx context.Context, userID string, day core.Date) ([]core.Transaction, error)
		// TransactionsBetween returns transactions dated from..to, both inclusive.
		TransactionsBetween(ctx context.Context, userID string, from, to core.Date) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	// UserStore holds profile records keyed by the identity provider's user id.
	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id string) (core.User, error)
		UpdateUser(ctx context.Context, id string, changes core.ProfileChanges) (core.User, error)
		ListUserIDs(ctx context.Context) ([]string, error)
	}

	// Store bundles every collection a backend provides.
	Store interface {
		ExpenseStore
		TransactionStore
		UserStore
		Close() error
	}

	// EventPublisher announces transaction changes to downstream consumers.
	EventPublisher interface {
		PublishTransactionCreated(ctx context.Context, t core.Transaction) error
		PublishTransactionDeleted(ctx context.Context, t core.Transaction) error
	}
)
