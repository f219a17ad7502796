package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yamlrg/connect/services"
)

var (
	errMissingSessionKey    = errors.New("missing or invalid sessionKey parameter")
	errMissingParticipantID = errors.New("missing participantID parameter")
	errMissingTeamID        = errors.New("missing teamID parameter")
)

// AssignmentHandler exposes the board mutations. Every mutation responds with
// the fresh annotated snapshot plus the ids of any stale status records.
type AssignmentHandler struct {
	assignmentService services.AssignmentService
	exportService     services.ExportService
}

func NewAssignmentHandler(assignmentService services.AssignmentService, exportService services.ExportService) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		exportService:     exportService,
	}
}

func (h *AssignmentHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	sessionKey, err := sessionKeyParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snap, err := h.assignmentService.Snapshot(r.Context(), sessionKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"snapshot": snap}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AssignmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	sessionKey, err := sessionKeyParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		ParticipantID string `json:"participant_id"`
		TeamID        string `json:"team_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.ParticipantID == "" {
		badRequestResponse(w, r, errMissingParticipantID)
		return
	}

	result, err := h.assignmentService.Assign(r.Context(), sessionKey, input.ParticipantID, input.TeamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeMutationResult(w, r, result)
}

func (h *AssignmentHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	sessionKey, err := sessionKeyParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		ParticipantID string `json:"participant_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.ParticipantID == "" {
		badRequestResponse(w, r, errMissingParticipantID)
		return
	}

	result, err := h.assignmentService.Unassign(r.Context(), sessionKey, input.ParticipantID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeMutationResult(w, r, result)
}

func (h *AssignmentHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	sessionKey, err := sessionKeyParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.assignmentService.CreateTeam(r.Context(), sessionKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeMutationResult(w, r, result)
}

func (h *AssignmentHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	sessionKey, err := sessionKeyParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID := chi.URLParam(r, "teamID")
	if teamID == "" {
		badRequestResponse(w, r, errMissingTeamID)
		return
	}

	result, err := h.assignmentService.DeleteTeam(r.Context(), sessionKey, teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeMutationResult(w, r, result)
}

func (h *AssignmentHandler) SetNotes(w http.ResponseWriter, r *http.Request) {
	sessionKey, err := sessionKeyParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID := chi.URLParam(r, "teamID")
	if teamID == "" {
		badRequestResponse(w, r, errMissingTeamID)
		return
	}

	var input struct {
		Notes string `json:"notes"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.assignmentService.SetNotes(r.Context(), sessionKey, teamID, input.Notes)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeMutationResult(w, r, result)
}

func (h *AssignmentHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sessionKey, err := sessionKeyParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.assignmentService.ResetSession(r.Context(), sessionKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeMutationResult(w, r, result)
}

// Export publishes the current team layout as a JSON document and returns its
// public location.
func (h *AssignmentHandler) Export(w http.ResponseWriter, r *http.Request) {
	sessionKey, err := sessionKeyParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.exportService.ExportTeams(r.Context(), sessionKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"export": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func writeMutationResult(w http.ResponseWriter, r *http.Request, result *services.MutationResult) {
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
