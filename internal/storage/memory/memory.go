// Package memory is an in-process implementation of the store ports. It is
// used by the memory backend and by service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pocketbook/internal/core"
	"pocketbook/internal/ports"
)

type Store struct {
	mu           sync.Mutex
	users        map[string]core.User
	expenses     []core.RecurringExpense
	transactions []core.Transaction
	now          func() time.Time
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users: make(map[string]core.User),
		now:   time.Now,
	}
}

func (s *Store) Close() error { return nil }

// CreateExpense implements ports.ExpenseStore
func (s *Store) CreateExpense(_ context.Context, e core.RecurringExpense) (core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()
	e.RecurringDays = append(core.Weekdays(nil), e.RecurringDays...)
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, userID string) ([]core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RecurringExpense
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, userID, id string) (core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(userID, id)
	if i < 0 {
		return core.RecurringExpense{}, fmt.Errorf("expense %s: %w", id, ports.ErrNotFound)
	}
	return s.expenses[i], nil
}

func (s *Store) UpdateExpense(_ context.Context, userID, id string, changes core.ExpenseChanges) (core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(userID, id)
	if i < 0 {
		return core.RecurringExpense{}, fmt.Errorf("expense %s: %w", id, ports.ErrNotFound)
	}
	s.expenses[i].Description = changes.Description
	s.expenses[i].Amount = changes.Amount
	s.expenses[i].RecurringDays = append(core.Weekdays(nil), changes.RecurringDays...)
	return s.expenses[i], nil
}

func (s *Store) DeleteExpense(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(userID, id)
	if i < 0 {
		return fmt.Errorf("expense %s: %w", id, ports.ErrNotFound)
	}
	s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
	return nil
}

func (s *Store) expenseIndex(userID, id string) int {
	for i, e := range s.expenses {
		if e.ID == id && e.UserID == userID {
			return i
		}
	}
	return -1
}

// CreateTransaction implements ports.TransactionStore
func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertTransaction(t), nil
}

// CreateTransactionIfAbsent checks and inserts under one lock, so it is the
// in-memory equivalent of the unique index used by the SQLite backend.
func (s *Store) CreateTransactionIfAbsent(_ context.Context, t core.Transaction) (core.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ExpenseID != "" {
		for _, existing := range s.transactions {
			if existing.UserID == t.UserID && existing.ExpenseID == t.ExpenseID && existing.Date.Equal(t.Date) {
				return existing, false, nil
			}
		}
	}
	return s.insertTransaction(t), true, nil
}

func (s *Store) insertTransaction(t core.Transaction) core.Transaction {
	t.ID = uuid.NewString()
	t.CreatedAt = s.now().UTC()
	s.transactions = append(s.transactions, t)
	return t
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	return s.filterTransactions(func(t core.Transaction) bool { return t.UserID == userID }), nil
}

func (s *Store) TransactionsOnDate(_ context.Context, userID string, day core.Date) ([]core.Transaction, error) {
	return s.filterTransactions(func(t core.Transaction) bool {
		return t.UserID == userID && t.Date.Equal(day)
	}), nil
}

func (s *Store) TransactionsBetween(_ context.Context, userID string, from, to core.Date) ([]core.Transaction, error) {
	lo, hi := from.String(), to.String()
	return s.filterTransactions(func(t core.Transaction) bool {
		d := t.Date.String()
		return t.UserID == userID && d >= lo && d <= hi
	}), nil
}

func (s *Store) filterTransactions(keep func(core.Transaction) bool) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.ID == id && t.UserID == userID {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ports.ErrNotFound)
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.transactions {
		if t.ID == id && t.UserID == userID {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", id, ports.ErrNotFound)
}

// CreateUser implements ports.UserStore
func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.ID]; exists {
		return core.User{}, fmt.Errorf("user %s: %w", u.ID, ports.ErrAlreadyExists)
	}
	u.CreatedAt = s.now().UTC()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
	}
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, id string, changes core.ProfileChanges) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
	}
	if changes.Name != nil {
		u.Name = *changes.Name
	}
	if changes.Email != nil {
		u.Email = *changes.Email
	}
	if changes.MonthlyBudget != nil {
		u.MonthlyBudget = *changes.MonthlyBudget
	}
	s.users[id] = u
	return u, nil
}

func (s *Store) ListUserIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
