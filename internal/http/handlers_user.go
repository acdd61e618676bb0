package http

import (
	"net/http"

	"pocketbook/internal/core"
)

type registerRequest struct {
	Name          string      `json:"name"`
	Age           int         `json:"age"`
	Email         string      `json:"email"`
	MonthlyBudget amountInput `json:"monthlyBudget"`
}

type profileRequest struct {
	Name          *string      `json:"name"`
	Email         *string      `json:"email"`
	MonthlyBudget *amountInput `json:"monthlyBudget"`
}

// handleRegister writes the profile record for the signed-in user. The id
// comes from the identity provider, never from the body.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	budget, err := req.MonthlyBudget.parse()
	if err != nil {
		writeError(r.Context(), w, core.ErrInvalidBudget)
		return
	}

	u, err := s.svc.Users.Register(r.Context(), core.User{
		ID:            userID,
		Name:          sanitizeInput(req.Name),
		Age:           req.Age,
		Email:         sanitizeInput(req.Email),
		MonthlyBudget: budget,
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	u, err := s.svc.Users.Profile(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var changes core.ProfileChanges
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		changes.Name = &name
	}
	if req.Email != nil {
		email := sanitizeInput(*req.Email)
		changes.Email = &email
	}
	if req.MonthlyBudget != nil {
		budget, err := req.MonthlyBudget.parse()
		if err != nil {
			writeError(r.Context(), w, core.ErrInvalidBudget)
			return
		}
		changes.MonthlyBudget = &budget
	}

	u, err := s.svc.Users.UpdateProfile(r.Context(), userID, changes)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
