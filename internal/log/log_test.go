package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pocketbook/internal/core"
)

func TestNewTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentSession, Output: &buf})

	logger.Info("signed in", FieldUserID, "u1")

	assert.Contains(t, buf.String(), "component=session")
	assert.Contains(t, buf.String(), "user_id=u1")
	assert.Equal(t, ComponentSession, logger.Component())
}

func TestFieldsWithTransaction(t *testing.T) {
	tx := core.Transaction{
		ID:        "t1",
		UserID:    "u1",
		ExpenseID: "e1",
		Category:  core.Food,
		Amount:    decimal.RequireFromString("12.5"),
		Date:      core.NewDate(2024, 5, 15),
	}

	f := NewFields().WithTransaction(tx).WithError(nil)

	assert.Equal(t, "12.50", f[FieldAmount])
	assert.Equal(t, "2024-05-15", f[FieldDate])
	assert.Equal(t, "e1", f[FieldExpenseID])
	assert.NotContains(t, f, FieldError)
	assert.Len(t, f.ToSlice(), len(f)*2)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	assert.Equal(t, "unknown", logger.Component())
}

func TestMiddlewareAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Component: ComponentHTTP, Output: &buf})

	handler := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).WithFields(NewFields().WithOperation(OpCreate).WithError(errors.New("bad"))).Error("boom")
		}),
	))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	out := buf.String()
	assert.Contains(t, out, "request_id=req_1")
	assert.Contains(t, out, "error=bad")
	assert.Contains(t, out, "operation=create")
}

func TestLogHTTPEndLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(New(Config{Output: &buf}))
		sl.LogHTTPEnd(context.Background(), httptest.NewRequest(http.MethodGet, "/api/expenses", nil), tt.status, 3, "198.51.100.1")
		assert.Contains(t, buf.String(), tt.level)
		assert.Contains(t, buf.String(), "path=/api/expenses")
	}
}
