package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yamlrg/connect/models"
)

var ErrEventNotFound = errors.New("event not found")

type EventRepository interface {
	Create(ctx context.Context, e *models.Event) error
	List(ctx context.Context) ([]models.Event, error)
	NextUpcoming(ctx context.Context, after time.Time) (*models.Event, error)
	CompleteElapsed(ctx context.Context, now time.Time) (int64, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) Create(ctx context.Context, e *models.Event) error {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.Status == "" {
		e.Status = models.EventUpcoming
	}
	query := `INSERT INTO events (id, date, status) VALUES ($1, $2, $3) RETURNING created_at`
	if err := r.db.QueryRowContext(ctx, query, e.ID, e.Date, e.Status).Scan(&e.CreatedAt); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *postgresEventRepository) List(ctx context.Context) ([]models.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, date, status, created_at FROM events ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Date, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *postgresEventRepository) NextUpcoming(ctx context.Context, after time.Time) (*models.Event, error) {
	query := `
		SELECT id, date, status, created_at FROM events
		WHERE status = $1 AND date > $2
		ORDER BY date ASC
		LIMIT 1`
	e := &models.Event{}
	err := r.db.QueryRowContext(ctx, query, models.EventUpcoming, after).Scan(&e.ID, &e.Date, &e.Status, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to find next upcoming event: %w", err)
	}
	return e, nil
}

// CompleteElapsed flips past upcoming events to completed and reports how
// many rows changed. Driven by the scheduler in main.
func (r *postgresEventRepository) CompleteElapsed(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE events SET status = $1 WHERE status = $2 AND date <= $3`,
		models.EventCompleted, models.EventUpcoming, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to complete elapsed events: %w", err)
	}
	return result.RowsAffected()
}
