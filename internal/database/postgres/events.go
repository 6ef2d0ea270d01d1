package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/baptism-gallery/internal/database"
)

const eventColumns = "id, title, description, event_date, location, thumbnail_url, created_at"

// EventRepository provides PostgreSQL-backed event storage
type EventRepository struct {
	pool *Pool
}

// NewEventRepository creates a new PostgreSQL event repository
func NewEventRepository(pool *Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func scanEvent(row rowScanner, extra ...any) (*database.EventRecord, error) {
	var (
		e                                  database.EventRecord
		description, location, thumbnail sql.NullString
	)
	dest := append([]any{&e.ID, &e.Title, &description, &e.EventDate, &location, &thumbnail, &e.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	e.Description = description.String
	e.Location = location.String
	e.ThumbnailURL = thumbnail.String
	return &e, nil
}

// ListEvents returns all events, most recent first, with photo and video counts
func (r *EventRepository) ListEvents(ctx context.Context) ([]database.EventSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.title, e.description, e.event_date, e.location, e.thumbnail_url, e.created_at,
			COUNT(m.id) FILTER (WHERE m.media_type = 'photo'),
			COUNT(m.id) FILTER (WHERE m.media_type = 'video')
		FROM events e
		LEFT JOIN media m ON m.event_id = e.id
		GROUP BY e.id
		ORDER BY e.event_date DESC, e.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []database.EventSummary{}
	for rows.Next() {
		var s database.EventSummary
		e, err := scanEvent(rows, &s.PhotoCount, &s.VideoCount)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		s.EventRecord = *e
		events = append(events, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// GetEvent retrieves an event by ID
func (r *EventRepository) GetEvent(ctx context.Context, id string) (*database.EventRecord, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, "SELECT "+eventColumns+" FROM events WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// CreateEvent stores a new event
func (r *EventRepository) CreateEvent(ctx context.Context, e *database.EventRecord) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.Title, nullString(e.Description), e.EventDate, nullString(e.Location), nullString(e.ThumbnailURL), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// UpdateEvent replaces the editable fields of an event
func (r *EventRepository) UpdateEvent(ctx context.Context, e *database.EventRecord) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE events SET title = $2, description = $3, event_date = $4, location = $5, thumbnail_url = $6
		WHERE id = $1
	`, e.ID, e.Title, nullString(e.Description), e.EventDate, nullString(e.Location), nullString(e.ThumbnailURL))
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return requireAffected(result)
}

// DeleteEvent removes an event; its media rows cascade
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireAffected(result)
}
