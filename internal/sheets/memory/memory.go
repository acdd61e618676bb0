// Package memory is an in-process sheets.TransactionExporter used when no
// spreadsheet is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"pocketbook/internal/core"
	"pocketbook/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows [][]any
}

var _ sheets.TransactionExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// ExportTransaction implements sheets.TransactionExporter
func (e *Exporter) ExportTransaction(_ context.Context, t core.Transaction) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if i := e.indexOf(t.ID); i >= 0 {
		return ref(i), nil
	}
	e.rows = append(e.rows, sheets.Row(t))
	return ref(len(e.rows) - 1), nil
}

// RemoveTransaction implements sheets.TransactionExporter
func (e *Exporter) RemoveTransaction(_ context.Context, t core.Transaction) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if i := e.indexOf(t.ID); i >= 0 {
		e.rows = append(e.rows[:i], e.rows[i+1:]...)
	}
	return nil
}

// Rows returns a copy of the exported rows in Header order.
func (e *Exporter) Rows() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([][]any, len(e.rows))
	copy(out, e.rows)
	return out
}

func (e *Exporter) indexOf(id string) int {
	for i, row := range e.rows {
		if row[0] == id {
			return i
		}
	}
	return -1
}

func ref(i int) string {
	return fmt.Sprintf("mem:%d", i+1)
}
