package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yamlrg/connect/models"
)

var ErrArrangementNotFound = errors.New("arrangement not found")

// ArrangementRepository stores one team-layout document per session. Put is
// always a full-document replace: the layout has already been validated by
// the board, and partial patches are exactly the torn writes the design
// forbids.
type ArrangementRepository interface {
	GetBySession(ctx context.Context, sessionKey string) (*models.Arrangement, error)
	Put(ctx context.Context, arr *models.Arrangement) error
	ListAll(ctx context.Context) ([]models.Arrangement, error)
}

type postgresArrangementRepository struct {
	db *sql.DB
}

func NewPostgresArrangementRepository(db *sql.DB) ArrangementRepository {
	return &postgresArrangementRepository{db: db}
}

func (r *postgresArrangementRepository) GetBySession(ctx context.Context, sessionKey string) (*models.Arrangement, error) {
	query := `SELECT session_key, teams, next_team_id, updated_at FROM arrangements WHERE session_key = $1`
	arr := &models.Arrangement{}
	var teamsJSON []byte
	err := r.db.QueryRowContext(ctx, query, sessionKey).Scan(
		&arr.SessionKey, &teamsJSON, &arr.NextTeamID, &arr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrArrangementNotFound
		}
		return nil, fmt.Errorf("failed to get arrangement for session %q: %w", sessionKey, err)
	}
	if err := json.Unmarshal(teamsJSON, &arr.Teams); err != nil {
		return nil, fmt.Errorf("failed to decode arrangement teams: %w", err)
	}
	return arr, nil
}

func (r *postgresArrangementRepository) Put(ctx context.Context, arr *models.Arrangement) error {
	teamsJSON, err := json.Marshal(arr.Teams)
	if err != nil {
		return fmt.Errorf("failed to marshal arrangement teams: %w", err)
	}

	query := `
		INSERT INTO arrangements (session_key, teams, next_team_id, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (session_key)
		DO UPDATE SET teams = EXCLUDED.teams, next_team_id = EXCLUDED.next_team_id, updated_at = now()
		RETURNING updated_at`

	if err := r.db.QueryRowContext(ctx, query, arr.SessionKey, teamsJSON, arr.NextTeamID).Scan(&arr.UpdatedAt); err != nil {
		return fmt.Errorf("failed to put arrangement for session %q: %w", arr.SessionKey, err)
	}
	return nil
}

func (r *postgresArrangementRepository) ListAll(ctx context.Context) ([]models.Arrangement, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT session_key, teams, next_team_id, updated_at FROM arrangements`)
	if err != nil {
		return nil, fmt.Errorf("failed to list arrangements: %w", err)
	}
	defer rows.Close()

	var arrangements []models.Arrangement
	for rows.Next() {
		var arr models.Arrangement
		var teamsJSON []byte
		if err := rows.Scan(&arr.SessionKey, &teamsJSON, &arr.NextTeamID, &arr.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan arrangement row: %w", err)
		}
		if err := json.Unmarshal(teamsJSON, &arr.Teams); err != nil {
			return nil, fmt.Errorf("failed to decode arrangement teams: %w", err)
		}
		arrangements = append(arrangements, arr)
	}
	return arrangements, rows.Err()
}
