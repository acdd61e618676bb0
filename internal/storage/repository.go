package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pocketbook/internal/core"
	applog "pocketbook/internal/log"
	"pocketbook/internal/ports"

	_ "modernc.org/sqlite"
)

const timestampLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer connection keeps SQLite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) timestamp() string {
	return r.now().UTC().Format(timestampLayout)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const expenseColumns = `id, user_id, description, category, amount, recurring_days, created_at`

func scanExpense(s rowScanner) (core.RecurringExpense, error) {
	var (
		e                      core.RecurringExpense
		category, amount, days string
		createdAt              string
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.Description, &category, &amount, &days, &createdAt); err != nil {
		return e, err
	}
	e.Category = core.Category(category)
	var err error
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return e, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if err := json.Unmarshal([]byte(days), &e.RecurringDays); err != nil {
		return e, fmt.Errorf("parse recurring days %q: %w", days, err)
	}
	e.CreatedAt, _ = time.Parse(timestampLayout, createdAt)
	return e, nil
}

func encodeDays(days core.Weekdays) (string, error) {
	if days == nil {
		days = core.Weekdays{}
	}
	b, err := json.Marshal(days)
	if err != nil {
		return "", fmt.Errorf("encode recurring days: %w", err)
	}
	return string(b), nil
}

// CreateExpense implements ports.ExpenseStore
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.RecurringExpense) (core.RecurringExpense, error) {
	days, err := encodeDays(e.RecurringDays)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	e.ID = uuid.NewString()
	created := r.timestamp()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO daily_expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Description, string(e.Category), e.Amount.String(), days, created)
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("create expense: %w", err)
	}
	e.CreatedAt, _ = time.Parse(timestampLayout, created)

	slog.DebugContext(ctx, "Recurring expense saved to SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		"id", e.ID,
		applog.FieldUserID, e.UserID,
		"description", e.Description,
		applog.FieldAmount, e.Amount.String(),
		"recurring_days", days)

	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string) ([]core.RecurringExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM daily_expenses WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringExpense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, userID, id string) (core.RecurringExpense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM daily_expenses WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringExpense{}, fmt.Errorf("expense %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, userID, id string, changes core.ExpenseChanges) (core.RecurringExpense, error) {
	days, err := encodeDays(changes.RecurringDays)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE daily_expenses SET description = ?, amount = ?, recurring_days = ? WHERE id = ? AND user_id = ?`,
		changes.Description, changes.Amount.String(), days, id, userID)
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("update expense: %w", err)
	}
	if err := expectOneRow(res, "expense", id); err != nil {
		return core.RecurringExpense{}, err
	}
	return r.GetExpense(ctx, userID, id)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM daily_expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return expectOneRow(res, "expense", id)
}

func expectOneRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ports.ErrNotFound)
	}
	return nil
}

const transactionColumns = `id, user_id, expense_id, description, category, amount, date, created_at`

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t                      core.Transaction
		expenseID              sql.NullString
		category, amount, date string
		createdAt              string
	)
	if err := s.Scan(&t.ID, &t.UserID, &expenseID, &t.Description, &category, &amount, &date, &createdAt); err != nil {
		return t, err
	}
	t.ExpenseID = expenseID.String
	t.Category = core.Category(category)
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return t, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if t.Date, err = core.ParseDate(date); err != nil {
		return t, err
	}
	t.CreatedAt, _ = time.Parse(timestampLayout, createdAt)
	return t, nil
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, where string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE `+where+` ORDER BY date DESC, created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: strings.TrimSpace(s) != ""}
}

// CreateTransaction implements ports.TransactionStore
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	created := r.timestamp()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, nullable(t.ExpenseID), t.Description, string(t.Category), t.Amount.String(), t.Date.String(), created)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	t.CreatedAt, _ = time.Parse(timestampLayout, created)

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		"id", t.ID,
		applog.FieldUserID, t.UserID,
		applog.FieldAmount, t.Amount.String(),
		"date", t.Date.String())

	return t, nil
}

// CreateTransactionIfAbsent relies on idx_transactions_occurrence: a second
// insert for the same (user, expense, date) is ignored and the existing row
// is returned instead.
func (r *SQLiteRepository) CreateTransactionIfAbsent(ctx context.Context, t core.Transaction) (core.Transaction, bool, error) {
	id := uuid.NewString()
	created := r.timestamp()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		id, t.UserID, nullable(t.ExpenseID), t.Description, string(t.Category), t.Amount.String(), t.Date.String(), created)
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("create transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		t.ID = id
		t.CreatedAt, _ = time.Parse(timestampLayout, created)
		return t, true, nil
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND expense_id = ? AND date = ?`,
		t.UserID, t.ExpenseID, t.Date.String())
	existing, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("load existing occurrence: %w", err)
	}
	return existing, false, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `user_id = ?`, userID)
}

func (r *SQLiteRepository) TransactionsOnDate(ctx context.Context, userID string, day core.Date) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `user_id = ? AND date = ?`, userID, day.String())
}

func (r *SQLiteRepository) TransactionsBetween(ctx context.Context, userID string, from, to core.Date) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `user_id = ? AND date >= ? AND date <= ?`, userID, from.String(), to.String())
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectOneRow(res, "transaction", id)
}

const userColumns = `id, name, age, email, monthly_budget, created_at`

func scanUser(s rowScanner) (core.User, error) {
	var (
		u                 core.User
		budget, createdAt string
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Age, &u.Email, &budget, &createdAt); err != nil {
		return u, err
	}
	var err error
	if u.MonthlyBudget, err = decimal.NewFromString(budget); err != nil {
		return u, fmt.Errorf("parse monthly budget %q: %w", budget, err)
	}
	u.CreatedAt, _ = time.Parse(timestampLayout, createdAt)
	return u, nil
}

// CreateUser implements ports.UserStore
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	created := r.timestamp()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		u.ID, u.Name, u.Age, u.Email, u.MonthlyBudget.String(), created)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return core.User{}, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return core.User{}, fmt.Errorf("user %s: %w", u.ID, ports.ErrAlreadyExists)
	}
	u.CreatedAt, _ = time.Parse(timestampLayout, created)
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, id string, changes core.ProfileChanges) (core.User, error) {
	var (
		sets []string
		args []any
	)
	if changes.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *changes.Name)
	}
	if changes.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *changes.Email)
	}
	if changes.MonthlyBudget != nil {
		sets = append(sets, "monthly_budget = ?")
		args = append(args, changes.MonthlyBudget.String())
	}
	if len(sets) > 0 {
		args = append(args, id)
		res, err := r.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return core.User{}, fmt.Errorf("update user: %w", err)
		}
		if err := expectOneRow(res, "user", id); err != nil {
			return core.User{}, err
		}
	}
	return r.GetUser(ctx, id)
}

func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return ids, nil
}
