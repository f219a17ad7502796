package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/yamlrg/connect/services"
)

type SessionHandler struct {
	sessionService    services.SessionService
	assignmentService services.AssignmentService
}

func NewSessionHandler(sessionService services.SessionService, assignmentService services.AssignmentService) *SessionHandler {
	return &SessionHandler{
		sessionService:    sessionService,
		assignmentService: assignmentService,
	}
}

// List returns the session selector entries, most recent first.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessionService.ListSessions(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"sessions": sessions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Load rebuilds the board for one session and returns the annotated snapshot
// along with any participants whose status could not be repaired.
func (h *SessionHandler) Load(w http.ResponseWriter, r *http.Request) {
	sessionKey, err := sessionKeyParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.assignmentService.LoadSession(r.Context(), sessionKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// sessionKeyParam extracts and decodes the {sessionKey} URL parameter.
// Session keys contain spaces and commas, so clients send them escaped.
func sessionKeyParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "sessionKey")
	key, err := url.PathUnescape(raw)
	if err != nil || key == "" {
		return "", errMissingSessionKey
	}
	return key, nil
}
