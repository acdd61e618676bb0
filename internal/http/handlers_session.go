package http

import (
	"net/http"
)

type sessionResponse struct {
	UserID string `json:"userId"`
	// Scheduled is true when the user has recurring expenses and a midnight
	// materialization is armed.
	Scheduled bool `json:"scheduled"`
}

// handleSignIn is called by the client right after the identity provider
// signs the user in. It materializes today's recurring expenses and arms the
// user's midnight schedule.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if err := s.svc.Sessions.SignIn(r.Context(), userID); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{UserID: userID, Scheduled: s.svc.Sessions.Active(userID)})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	s.svc.Sessions.SignOut(userID)
	w.WriteHeader(http.StatusNoContent)
}
