package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pocketbook/internal/core"
	"pocketbook/internal/ports"
)

// ReportService loads the data the aggregation functions need.
type ReportService struct {
	transactions ports.TransactionStore
	expenses     ports.ExpenseStore
}

func NewReportService(transactions ports.TransactionStore, expenses ports.ExpenseStore) *ReportService {
	return &ReportService{transactions: transactions, expenses: expenses}
}

// MonthlyReport aggregates the user's actual transactions for the month
// containing monthDate.
func (s *ReportService) MonthlyReport(ctx context.Context, userID string, monthDate core.Date, budget decimal.Decimal) (core.MonthlyReport, error) {
	list, err := s.transactions.TransactionsBetween(ctx, userID, monthDate.FirstOfMonth(), monthDate.LastOfMonth())
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("fetch month transactions: %w", err)
	}
	return BuildMonthlyReport(list, monthDate, budget), nil
}

// CurrentMonthReport is MonthlyReport for the month containing now.
func (s *ReportService) CurrentMonthReport(ctx context.Context, userID string, now time.Time, budget decimal.Decimal) (core.MonthlyReport, error) {
	return s.MonthlyReport(ctx, userID, monthOf(now), budget)
}

// ProjectedMonthlyTotal projects a month of the user's recurring expenses.
func (s *ReportService) ProjectedMonthlyTotal(ctx context.Context, userID string) (decimal.Decimal, error) {
	expenses, err := s.expenses.ListExpenses(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list expenses: %w", err)
	}
	return ProjectedMonthlyTotal(expenses), nil
}

// RemainingBudgetByDayWalk estimates the budget left today from recurring
// expenses alone.
func (s *ReportService) RemainingBudgetByDayWalk(ctx context.Context, userID string, budget decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	expenses, err := s.expenses.ListExpenses(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list expenses: %w", err)
	}
	return RemainingBudgetByDayWalk(budget, expenses, core.DateOf(now)), nil
}
