package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"pocketbook/internal/core"
)

// The budget figures below answer different questions and must stay distinct:
// BuildMonthlyReport uses actual transactions, the other two use recurrences only.

var (
	daysPerMonth = decimal.NewFromInt(30)
	daysPerWeek  = decimal.NewFromInt(7)
)

// BuildMonthlyReport aggregates the transactions that fall within month's
// calendar month. RemainingBudget is floored at zero.
func BuildMonthlyReport(transactions []core.Transaction, month core.Date, budget decimal.Decimal) core.MonthlyReport {
	first, last := month.FirstOfMonth(), month.LastOfMonth()
	lo, hi := first.String(), last.String()

	report := core.MonthlyReport{
		Month:             first,
		MonthlyBudget:     budget,
		TotalSpent:        decimal.Zero,
		CategoryBreakdown: make(map[core.Category]decimal.Decimal),
		Transactions:      make([]core.Transaction, 0, len(transactions)),
	}

	for _, t := range transactions {
		if d := t.Date.String(); d < lo || d > hi {
			continue
		}
		report.TotalSpent = report.TotalSpent.Add(t.Amount)
		report.CategoryBreakdown[t.Category] = report.CategoryBreakdown[t.Category].Add(t.Amount)
		report.Transactions = append(report.Transactions, t)
	}

	sort.SliceStable(report.Transactions, func(i, j int) bool {
		return report.Transactions[i].Date.After(report.Transactions[j].Date.Time)
	})

	report.RemainingBudget = decimal.Max(decimal.Zero, budget.Sub(report.TotalSpent))
	return report
}

// ProjectedMonthlyTotal estimates a month of recurring spending as
// amount × occurrences per week × 30/7 for every expense. The result is not
// rounded.
func ProjectedMonthlyTotal(expenses []core.RecurringExpense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		perWeek := decimal.NewFromInt(int64(e.RecurringDays.Len()))
		total = total.Add(e.Amount.Mul(perWeek).Mul(daysPerMonth).Div(daysPerWeek))
	}
	return total
}

// RemainingBudgetByDayWalk subtracts every recurring occurrence from day 1 of
// today's month up to and including today. The result may be negative.
func RemainingBudgetByDayWalk(budget decimal.Decimal, expenses []core.RecurringExpense, today core.Date) decimal.Decimal {
	remaining := budget
	last := today.LastOfMonth()
	for day := today.FirstOfMonth(); !day.After(last.Time); day = day.AddDays(1) {
		if day.After(today.Time) {
			break
		}
		for _, e := range expenses {
			if e.OccursOn(day) {
				remaining = remaining.Sub(e.Amount)
			}
		}
	}
	return remaining
}

// monthOf returns the first day of the month containing now in now's location.
func monthOf(now time.Time) core.Date {
	return core.DateOf(now).FirstOfMonth()
}
