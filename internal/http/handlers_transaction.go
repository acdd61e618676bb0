package http

import (
	"net/http"
	"strings"

	"pocketbook/internal/core"
)

type transactionRequest struct {
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Amount      amountInput `json:"amount"`
	// Date defaults to today when empty.
	Date string `json:"date"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	list, err := s.svc.Transactions.ListTransactions(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if list == nil {
		list = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req transactionRequest
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
	date := core.DateOf(s.now())
	if strings.TrimSpace(req.Date) != "" {
		if date, err = core.ParseDate(req.Date); err != nil {
			writeError(r.Context(), w, err)
			return
		}
	}

	created, err := s.svc.Transactions.CreateTransaction(r.Context(), userID, core.Transaction{
		Description: sanitizeInput(req.Description),
		Category:    category,
		Amount:      amount,
		Date:        date,
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if err := s.svc.Transactions.DeleteTransaction(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
