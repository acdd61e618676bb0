// Package sheets mirrors transactions into a spreadsheet for people who
// prefer to read their budget there.
package sheets

import (
	"context"

	"pocketbook/internal/core"
)

// TransactionExporter is the outbound port of the sync worker.
type TransactionExporter interface {
	// ExportTransaction writes t as a row. Exporting the same transaction id
	// twice leaves a single row.
	ExportTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
	// RemoveTransaction removes the row for t.ID. A missing row is not an error.
	RemoveTransaction(ctx context.Context, t core.Transaction) error
}

// Header is the column layout of the transactions sheet.
var Header = []string{"ID", "User", "Date", "Description", "Category", "Amount", "Recurring Expense"}

// Row renders t in Header order.
func Row(t core.Transaction) []any {
	return []any{
		t.ID,
		t.UserID,
		t.Date.String(),
		t.Description,
		string(t.Category),
		core.FormatAmount(t.Amount),
		t.ExpenseID,
	}
}
