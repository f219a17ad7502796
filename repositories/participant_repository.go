package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/yamlrg/connect/models"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantConflict = errors.New("user already signed up for this session")
)

// ParticipantRepository is the roster store: per-session signup records with
// a match-status sub-record. Status writes are targeted: the match fields
// and the invite flags are merged independently into the jsonb value so
// concurrent edits to the other half are never clobbered.
type ParticipantRepository interface {
	Create(ctx context.Context, p *models.Participant) error
	FindByID(ctx context.Context, id string) (*models.Participant, error)
	FindByUserAndSession(ctx context.Context, userID, sessionKey string) (*models.Participant, error)
	ListBySession(ctx context.Context, sessionKey string) ([]models.Participant, error)
	SessionCounts(ctx context.Context) ([]SessionCount, error)
	UpdateMatchStatus(ctx context.Context, id string, matched bool, matchedWith, matchedWithName *string) error
	SetInviteSent(ctx context.Context, id string, sent bool) error
	SetInviteAccepted(ctx context.Context, id string, accepted bool) error
	ReplaceStatus(ctx context.Context, id string, status models.MatchStatus) error
	Delete(ctx context.Context, id string) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	if p.ID == "" {
		p.ID = newID()
	}
	statusJSON, err := json.Marshal(p.Status)
	if err != nil {
		return fmt.Errorf("failed to marshal participant status: %w", err)
	}

	query := `
		INSERT INTO participants (id, user_id, user_name, user_email, session_key, status, manual_entry)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err = r.db.QueryRowContext(ctx, query,
		p.ID, p.UserID, p.UserName, p.UserEmail, p.SessionKey, statusJSON, p.ManualEntry,
	).Scan(&p.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrParticipantConflict
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

const participantColumns = `id, user_id, user_name, user_email, session_key, status, manual_entry, created_at`

func scanParticipant(rowScanner interface {
	Scan(dest ...interface{}) error
}, p *models.Participant) error {
	var statusJSON []byte
	if err := rowScanner.Scan(
		&p.ID, &p.UserID, &p.UserName, &p.UserEmail, &p.SessionKey, &statusJSON, &p.ManualEntry, &p.CreatedAt,
	); err != nil {
		return err
	}
	if len(statusJSON) > 0 {
		if err := json.Unmarshal(statusJSON, &p.Status); err != nil {
			return fmt.Errorf("failed to decode participant status: %w", err)
		}
	}
	return nil
}

func (r *postgresParticipantRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Participant, error) {
	p := &models.Participant{}
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := scanParticipant(row, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) FindByID(ctx context.Context, id string) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresParticipantRepository) FindByUserAndSession(ctx context.Context, userID, sessionKey string) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE user_id = $1 AND session_key = $2`
	return r.findOne(ctx, query, userID, sessionKey)
}

func (r *postgresParticipantRepository) ListBySession(ctx context.Context, sessionKey string) ([]models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE session_key = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for session %q: %w", sessionKey, err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := scanParticipant(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating participant rows: %w", err)
	}
	return participants, nil
}

// SessionCount is one session key with its signup total, for the selector.
type SessionCount struct {
	SessionKey string
	Signups    int
}

func (r *postgresParticipantRepository) SessionCounts(ctx context.Context) ([]SessionCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT session_key, count(*) FROM participants GROUP BY session_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to count signups per session: %w", err)
	}
	defer rows.Close()

	var counts []SessionCount
	for rows.Next() {
		var c SessionCount
		if err := rows.Scan(&c.SessionKey, &c.Signups); err != nil {
			return nil, fmt.Errorf("failed to scan session count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// UpdateMatchStatus merges only the matched fields into the status record.
// Absent pointer fields are removed rather than written as null, keeping the
// stored document in the same shape the unmatched default has.
func (r *postgresParticipantRepository) UpdateMatchStatus(ctx context.Context, id string, matched bool, matchedWith, matchedWithName *string) error {
	fields := map[string]interface{}{"matched": matched}
	if matchedWith != nil {
		fields["matched_with"] = *matchedWith
	}
	if matchedWithName != nil {
		fields["matched_with_name"] = *matchedWithName
	}
	merge, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal match status update: %w", err)
	}

	query := `
		UPDATE participants
		SET status = (status - 'matched_with' - 'matched_with_name') || $2::jsonb
		WHERE id = $1`
	return r.exec(ctx, query, id, merge)
}

func (r *postgresParticipantRepository) SetInviteSent(ctx context.Context, id string, sent bool) error {
	return r.mergeStatusField(ctx, id, "invite_sent", sent)
}

func (r *postgresParticipantRepository) SetInviteAccepted(ctx context.Context, id string, accepted bool) error {
	return r.mergeStatusField(ctx, id, "invite_accepted", accepted)
}

func (r *postgresParticipantRepository) mergeStatusField(ctx context.Context, id, field string, value bool) error {
	merge, err := json.Marshal(map[string]bool{field: value})
	if err != nil {
		return fmt.Errorf("failed to marshal status field update: %w", err)
	}
	query := `UPDATE participants SET status = status || $2::jsonb WHERE id = $1`
	return r.exec(ctx, query, id, merge)
}

func (r *postgresParticipantRepository) ReplaceStatus(ctx context.Context, id string, status models.MatchStatus) error {
	statusJSON, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal participant status: %w", err)
	}
	query := `UPDATE participants SET status = $2 WHERE id = $1`
	return r.exec(ctx, query, id, statusJSON)
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM participants WHERE id = $1`, id)
}

func (r *postgresParticipantRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("participant write failed: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrParticipantNotFound
	}
	return nil
}
