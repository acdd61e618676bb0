package core

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Food           Category = "Food"
	Transportation Category = "Transportation"
	Entertainment  Category = "Entertainment"
	Shopping       Category = "Shopping"
	Bills          Category = "Bills"
	Education      Category = "Education"
	Other          Category = "Other"
)

// DateLayout is the ISO-8601 calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

const maxDescriptionLength = 200

type (
	Category string

	// Weekdays is a set of day-of-week numbers, 0 (Sunday) to 6 (Saturday).
	Weekdays []int

	// Date is a calendar date with no time-of-day. The wrapped time is always
	// midnight UTC so dates compare and format the same regardless of zone.
	Date struct {
		time.Time
	}

	RecurringExpense struct {
		ID            string          `json:"id"`
		UserID        string          `json:"userId"`
		Description   string          `json:"description"`
		Category      Category        `json:"category"`
		Amount        decimal.Decimal `json:"amount"`
		RecurringDays Weekdays        `json:"recurringDays"`
		CreatedAt     time.Time       `json:"createdAt"`
	}

	Transaction struct {
		ID     string `json:"id"`
		UserID string `json:"userId"`
		// ExpenseID is set only for transactions materialized from a RecurringExpense.
		ExpenseID   string          `json:"expenseId,omitempty"`
		Description string          `json:"description"`
		Category    Category        `json:"category"`
		Amount      decimal.Decimal `json:"amount"`
		Date        Date            `json:"date"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	User struct {
		ID            string          `json:"id"`
		Name          string          `json:"name"`
		Age           int             `json:"age"`
		Email         string          `json:"email"`
		MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
		CreatedAt     time.Time       `json:"createdAt"`
	}

	// ExpenseChanges holds the editable fields of a RecurringExpense.
	ExpenseChanges struct {
		Description   string
		Amount        decimal.Decimal
		RecurringDays Weekdays
	}

	// ProfileChanges holds optional profile updates; nil fields are left untouched.
	ProfileChanges struct {
		Name          *string
		Email         *string
		MonthlyBudget *decimal.Decimal
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyDescription  = errors.New("empty description")
	ErrDescriptionLength = errors.New("description too long (max 200 characters)")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidWeekday    = errors.New("invalid weekday")
	ErrDuplicateWeekday  = errors.New("duplicate weekday")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidBudget     = errors.New("invalid monthly budget")
	ErrInvalidAge        = errors.New("invalid age")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrEmptyName         = errors.New("empty name")
	ErrEmptyUserID       = errors.New("empty user id")
)

// Categories returns every supported category in display order.
func Categories() []Category {
	return []Category{Food, Transportation, Entertainment, Shopping, Bills, Education, Other}
}

// ParseCategory matches s case-insensitively against the supported categories.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories() {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

func (c Category) Validate() error {
	_, err := ParseCategory(string(c))
	return err
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date t falls on in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string. Longer RFC 3339 timestamps are
// accepted and truncated to their date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Equal reports whether both values denote the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.String() == o.String()
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// FirstOfMonth returns the first calendar day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// LastOfMonth returns the last calendar day of d's month.
func (d Date) LastOfMonth() Date {
	return NewDate(d.Year(), int(d.Month())+1, 0)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	value := strings.Trim(string(data), `"`)
	if value == "" || value == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks that every day is in 0..6 and appears once.
func (w Weekdays) Validate() error {
	seen := make(map[int]struct{}, len(w))
	for _, d := range w {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: %d", ErrInvalidWeekday, d)
		}
		if _, dup := seen[d]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateWeekday, d)
		}
		seen[d] = struct{}{}
	}
	return nil
}

// Contains reports whether the set includes the given day of week.
func (w Weekdays) Contains(day time.Weekday) bool {
	for _, d := range w {
		if d == int(day) {
			return true
		}
	}
	return false
}

func (w Weekdays) Len() int {
	return len(w)
}

func validateAmount(a decimal.Decimal) error {
	if a.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func validateDescription(s string) error {
	if len(strings.TrimSpace(s)) == 0 {
		return ErrEmptyDescription
	}
	if len(s) > maxDescriptionLength {
		return ErrDescriptionLength
	}
	return nil
}

// OccursOn reports whether the expense recurs on the weekday of d.
func (e RecurringExpense) OccursOn(d Date) bool {
	return e.RecurringDays.Contains(d.Weekday())
}

func (e RecurringExpense) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUserID
	}
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	if err := e.Category.Validate(); err != nil {
		return err
	}
	if err := validateAmount(e.Amount); err != nil {
		return err
	}
	return e.RecurringDays.Validate()
}

func (c ExpenseChanges) Validate() error {
	if err := validateDescription(c.Description); err != nil {
		return err
	}
	if err := validateAmount(c.Amount); err != nil {
		return err
	}
	return c.RecurringDays.Validate()
}

// Materialized reports whether the transaction was created from a recurring expense.
func (t Transaction) Materialized() bool {
	return t.ExpenseID != ""
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUserID
	}
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if err := t.Category.Validate(); err != nil {
		return err
	}
	if err := validateAmount(t.Amount); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewMaterializedTransaction copies the expense's description, category and
// amount into a transaction dated on the given day.
func NewMaterializedTransaction(e RecurringExpense, day Date) Transaction {
	return Transaction{
		UserID:      e.UserID,
		ExpenseID:   e.ID,
		Description: e.Description,
		Category:    e.Category,
		Amount:      e.Amount,
		Date:        day,
	}
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if u.Age < 1 || u.Age > 150 {
		return ErrInvalidAge
	}
	if err := validateEmail(u.Email); err != nil {
		return err
	}
	if u.MonthlyBudget.IsNegative() {
		return ErrInvalidBudget
	}
	return nil
}

func (p ProfileChanges) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrEmptyName
	}
	if p.Email != nil {
		if err := validateEmail(*p.Email); err != nil {
			return err
		}
	}
	if p.MonthlyBudget != nil && p.MonthlyBudget.IsNegative() {
		return ErrInvalidBudget
	}
	return nil
}

// Empty reports whether no field is set.
func (p ProfileChanges) Empty() bool {
	return p.Name == nil && p.Email == nil && p.MonthlyBudget == nil
}

func validateEmail(s string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// IsValidation reports whether err is one of the input validation errors.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrEmptyDescription, ErrDescriptionLength, ErrInvalidCategory,
		ErrInvalidWeekday, ErrDuplicateWeekday, ErrInvalidDate,
		ErrInvalidBudget, ErrInvalidAge, ErrInvalidEmail, ErrEmptyName, ErrEmptyUserID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
