package handler

import "net/http"

// SessionInfo is the slice of the identity session exposed to clients.
type SessionInfo interface {
	ID() string
	Ready() bool
	Err() error
}

type SessionHandler struct {
	session SessionInfo
}

func NewSessionHandler(session SessionInfo) *SessionHandler {
	return &SessionHandler{session: session}
}

// GetSession reports the principal id and readiness. A failed session
// surfaces its configuration error persistently.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Err(); err != nil {
		respondWithJSON(w, http.StatusOK, map[string]any{
			"userId": nil,
			"ready":  false,
			"error":  err.Error(),
		})
		return
	}

	var userID any
	if id := h.session.ID(); id != "" {
		userID = id
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"userId": userID,
		"ready":  h.session.Ready(),
	})
}
