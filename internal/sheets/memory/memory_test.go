package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketbook/internal/core"
)

func TestExporterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := New()
	tx := core.Transaction{
		ID:          "t1",
		UserID:      "u1",
		Description: "Metro card",
		Category:    core.Transportation,
		Amount:      decimal.RequireFromString("25"),
		Date:        core.NewDate(2024, 9, 1),
	}

	ref, err := e.ExportTransaction(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, "mem:1", ref)

	ref, err = e.ExportTransaction(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, "mem:1", ref)

	rows := e.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, []any{"t1", "u1", "2024-09-01", "Metro card", "Transportation", "25.00", ""}, rows[0])

	require.NoError(t, e.RemoveTransaction(ctx, tx))
	require.NoError(t, e.RemoveTransaction(ctx, tx))
	assert.Empty(t, e.Rows())
}
