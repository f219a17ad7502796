package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yamlrg/connect/models"
	"github.com/yamlrg/connect/repositories"
	"github.com/yamlrg/connect/storage"
)

// teamExport is the published shape of one team: enough for organizers to
// run the round without touching the admin UI.
type teamExport struct {
	TeamNumber       string         `json:"team_number"`
	Members          []memberExport `json:"members"`
	Notes            *string        `json:"notes"`
	PreviouslyPaired bool           `json:"previously_paired"`
}

type memberExport struct {
	Name     string             `json:"name"`
	Email    string             `json:"email"`
	Linkedin string             `json:"linkedin"`
	Status   models.MatchStatus `json:"status"`
}

type ExportService interface {
	// ExportTeams publishes the session's team layout as a JSON document on
	// the public bucket and returns its location.
	ExportTeams(ctx context.Context, sessionKey string) (*storage.UploadResult, error)
}

type exportService struct {
	assignments     AssignmentService
	participantRepo repositories.ParticipantRepository
	userRepo        repositories.UserRepository
	uploader        storage.FileUploader
}

func NewExportService(
	assignments AssignmentService,
	participantRepo repositories.ParticipantRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
) ExportService {
	return &exportService{
		assignments:     assignments,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		uploader:        uploader,
	}
}

func (s *exportService) ExportTeams(ctx context.Context, sessionKey string) (*storage.UploadResult, error) {
	snap, err := s.assignments.Snapshot(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	// LinkedIn URLs live on the member profile, not the signup.
	var userIDs []string
	for _, t := range snap.Teams {
		for _, m := range t.Members {
			userIDs = append(userIDs, m.UserID)
		}
	}
	linkedin := make(map[string]string)
	emails := make(map[string]string)
	users, err := s.userRepo.ListByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load member profiles: %w", err)
	}
	for _, u := range users {
		linkedin[u.ID] = u.LinkedinURL
		emails[u.ID] = u.Email
	}

	roster, err := s.participantRepo.ListBySession(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load session roster: %w", err)
	}
	statuses := make(map[string]models.MatchStatus, len(roster))
	signupEmails := make(map[string]string, len(roster))
	for _, p := range roster {
		statuses[p.ID] = p.Status
		signupEmails[p.ID] = p.UserEmail
	}

	export := make([]teamExport, 0, len(snap.Teams))
	for _, t := range snap.Teams {
		te := teamExport{
			TeamNumber:       t.ID,
			Members:          make([]memberExport, 0, len(t.Members)),
			Notes:            t.Notes,
			PreviouslyPaired: t.PreviouslyPaired,
		}
		for _, m := range t.Members {
			me := memberExport{
				Name:     m.UserName,
				Linkedin: "N/A",
			}
			if url := linkedin[m.UserID]; url != "" {
				me.Linkedin = url
			}
			if email := emails[m.UserID]; email != "" {
				me.Email = email
			} else {
				me.Email = signupEmails[m.ParticipantID]
			}
			me.Status = statuses[m.ParticipantID]
			te.Members = append(te.Members, me)
		}
		export = append(export, te)
	}

	payload, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal teams export: %w", err)
	}

	key := fmt.Sprintf("exports/teams-%s.json", sessionSlug(sessionKey))
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to upload teams export: %w", err)
	}
	return result, nil
}

func sessionSlug(key string) string {
	slug := strings.ToLower(key)
	slug = strings.ReplaceAll(slug, ",", "")
	return strings.ReplaceAll(slug, " ", "-")
}
