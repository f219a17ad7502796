package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yamlrg/connect/middleware"
	"github.com/yamlrg/connect/services"
)

type SignupHandler struct {
	signupService services.SignupService
	inviteService services.InviteService
}

func NewSignupHandler(signupService services.SignupService, inviteService services.InviteService) *SignupHandler {
	return &SignupHandler{
		signupService: signupService,
		inviteService: inviteService,
	}
}

// SignUp registers the authenticated user for the next upcoming round.
func (h *SignupHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	participant, err := h.signupService.SignUp(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"signup": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Cancel deletes a signup. Members can only cancel their own.
func (h *SignupHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	participantID := chi.URLParam(r, "participantID")
	if participantID == "" {
		badRequestResponse(w, r, errMissingParticipantID)
		return
	}

	err = h.signupService.Cancel(r.Context(), participantID, userID, middleware.IsAdmin(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me reports the authenticated user's signup for the next round, or null.
func (h *SignupHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	participant, err := h.signupService.SignupForNextEvent(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"signup": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddManualMember registers a name-only participant for a session.
func (h *SignupHandler) AddManualMember(w http.ResponseWriter, r *http.Request) {
	sessionKey, err := sessionKeyParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.signupService.AddManualMember(r.Context(), sessionKey, input.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"signup": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SendInvite emails the participant their session invite and records
// invite_sent.
func (h *SignupHandler) SendInvite(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participantID")
	if participantID == "" {
		badRequestResponse(w, r, errMissingParticipantID)
		return
	}

	participant, err := h.inviteService.SendMatchInvite(r.Context(), participantID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"signup": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetInviteAccepted records whether the participant accepted their invite.
func (h *SignupHandler) SetInviteAccepted(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participantID")
	if participantID == "" {
		badRequestResponse(w, r, errMissingParticipantID)
		return
	}

	var input struct {
		Accepted bool `json:"accepted"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.inviteService.SetInviteAccepted(r.Context(), participantID, input.Accepted)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"signup": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
