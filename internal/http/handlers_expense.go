package http

import (
	"context"
	"net/http"

	"pocketbook/internal/core"
	applog "pocketbook/internal/log"
)

type expenseRequest struct {
	Description   string        `json:"description"`
	Category      string        `json:"category"`
	Amount        amountInput   `json:"amount"`
	RecurringDays core.Weekdays `json:"recurringDays"`
}

// expenseUpdateRequest carries the editable fields; category is fixed at creation.
type expenseUpdateRequest struct {
	Description   string        `json:"description"`
	Amount        amountInput   `json:"amount"`
	RecurringDays core.Weekdays `json:"recurringDays"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	expenses, err := s.svc.Expenses.ListExpenses(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if expenses == nil {
		expenses = []core.RecurringExpense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	category, err := core.ParseCategory(req.Category)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	amount, err := req.Amount.parse()
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	created, err := s.svc.Expenses.CreateExpense(r.Context(), userID, core.RecurringExpense{
		Description:   sanitizeInput(req.Description),
		Category:      category,
		Amount:        amount,
		RecurringDays: req.RecurringDays,
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	s.refreshSession(r.Context(), userID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req expenseUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	amount, err := req.Amount.parse()
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	updated, err := s.svc.Expenses.UpdateExpense(r.Context(), userID, r.PathValue("id"), core.ExpenseChanges{
		Description:   sanitizeInput(req.Description),
		Amount:        amount,
		RecurringDays: req.RecurringDays,
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	s.refreshSession(r.Context(), userID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if err := s.svc.Expenses.DeleteExpense(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	s.refreshSession(r.Context(), userID)
	w.WriteHeader(http.StatusNoContent)
}

// refreshSession reloads the user's schedule after the expense list changed.
// A failure is logged; the next sign-in or midnight run catches up.
func (s *Server) refreshSession(ctx context.Context, userID string) {
	if s.svc.Sessions == nil {
		return
	}
	if err := s.svc.Sessions.Refresh(ctx, userID); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Session refresh failed",
			applog.FieldUserID, userID, applog.FieldError, err)
	}
}
