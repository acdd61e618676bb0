package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MonthlyReport is the aggregation of a user's actual transactions within one
// calendar month against their budget. It is derived on demand and never stored.
type MonthlyReport struct {
	Month             Date                         `json:"month"`
	MonthlyBudget     decimal.Decimal              `json:"monthlyBudget"`
	TotalSpent        decimal.Decimal              `json:"totalSpent"`
	RemainingBudget   decimal.Decimal              `json:"remainingBudget"`
	CategoryBreakdown map[Category]decimal.Decimal `json:"categoryBreakdown"`
	Transactions      []Transaction                `json:"transactions"`
}

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category        `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Overspent reports whether total spending exceeds the budget. The remaining
// figure is floored at zero, so this is the only way to see an overrun.
func (r MonthlyReport) Overspent() bool {
	return r.TotalSpent.GreaterThan(r.MonthlyBudget)
}

// SortedBreakdown returns the category breakdown ordered by amount, largest first.
func (r MonthlyReport) SortedBreakdown() []CategoryAmount {
	out := make([]CategoryAmount, 0, len(r.CategoryBreakdown))
	for c, a := range r.CategoryBreakdown {
		out = append(out, CategoryAmount{Category: c, Amount: a})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Amount.Cmp(out[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}
