// Package sqlite provides an embedded single-file store for local use.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/baptism-gallery/internal/database"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Fixed-width UTC layout so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const mediaColumns = `id, event_id, url, media_type, thumbnail_url, description, ai_description,
	tags, faces_count, setting, file_size, order_index, event_date, uploaded_at`

const eventColumns = "id, title, description, event_date, location, thumbnail_url, created_at"

// Store implements database.Store on top of SQLite.
type Store struct {
	db *sql.DB
}

var _ database.Store = (*Store)(nil)

// Open opens (or creates) the database file at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps pragmas and in-memory databases consistent.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func scanMedia(row rowScanner) (*database.MediaRecord, error) {
	var (
		m          database.MediaRecord
		eventID    sql.NullString
		thumbnail  sql.NullString
		desc       sql.NullString
		aiDesc     sql.NullString
		setting    sql.NullString
		eventDate  sql.NullString
		tagsJSON   string
		mediaType  string
		uploadedAt string
		facesCount sql.NullInt64
	)
	err := row.Scan(&m.ID, &eventID, &m.URL, &mediaType, &thumbnail, &desc, &aiDesc,
		&tagsJSON, &facesCount, &setting, &m.FileSize, &m.OrderIndex, &eventDate, &uploadedAt)
	if err != nil {
		return nil, err
	}

	m.EventID = eventID.String
	m.MediaType = database.MediaType(mediaType)
	m.ThumbnailURL = thumbnail.String
	m.Description = desc.String
	m.AIDescription = aiDesc.String
	m.Setting = setting.String
	if facesCount.Valid {
		n := int(facesCount.Int64)
		m.FacesCount = &n
	}
	if eventDate.Valid {
		d, err := database.ParseDate(eventDate.String)
		if err != nil {
			return nil, err
		}
		m.EventDate = &d
	}
	if err := json.Unmarshal([]byte(tagsJSON), &m.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if m.UploadedAt, err = parseTime(uploadedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListMedia(ctx context.Context, filter database.MediaFilter) ([]database.MediaRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.EventID != "" {
		where = append(where, "event_id = ?")
		args = append(args, filter.EventID)
	}
	if filter.Type != "" {
		where = append(where, "media_type = ?")
		args = append(args, string(filter.Type))
	}

	query := "SELECT " + mediaColumns + " FROM media"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.EventID != "" {
		query += " ORDER BY order_index ASC, uploaded_at ASC"
	} else {
		query += " ORDER BY uploaded_at DESC, id"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	records := []database.MediaRecord{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		records = append(records, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media: %w", err)
	}
	return records, nil
}

func (s *Store) GetMedia(ctx context.Context, id string) (*database.MediaRecord, error) {
	m, err := scanMedia(s.db.QueryRowContext(ctx, "SELECT "+mediaColumns+" FROM media WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	return m, nil
}

func (s *Store) NextOrderIndex(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM media WHERE COALESCE(event_id, '') = ?", eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count event media: %w", err)
	}
	return n, nil
}

func (s *Store) CountMedia(ctx context.Context) (database.MediaCounts, error) {
	var c database.MediaCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN media_type = 'photo' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN media_type = 'video' THEN 1 ELSE 0 END), 0)
		FROM media
	`).Scan(&c.Photos, &c.Videos)
	if err != nil {
		return c, fmt.Errorf("count media: %w", err)
	}
	return c, nil
}

func (s *Store) InsertMedia(ctx context.Context, m *database.MediaRecord) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.UploadedAt.IsZero() {
		m.UploadedAt = time.Now().UTC()
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	tags, err := json.Marshal(m.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	var facesCount sql.NullInt64
	if m.FacesCount != nil {
		facesCount = sql.NullInt64{Int64: int64(*m.FacesCount), Valid: true}
	}
	var eventDate sql.NullString
	if m.EventDate != nil {
		eventDate = nullString(m.EventDate.String())
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO media (`+mediaColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, nullString(m.EventID), m.URL, string(m.MediaType), nullString(m.ThumbnailURL),
		nullString(m.Description), nullString(m.AIDescription), string(tags), facesCount,
		nullString(m.Setting), m.FileSize, m.OrderIndex, eventDate, formatTime(m.UploadedAt))
	if err != nil {
		return fmt.Errorf("insert media: %w", err)
	}
	return nil
}

func (s *Store) UpdateMedia(ctx context.Context, id string, description string, tags []string) (*database.MediaRecord, error) {
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	result, err := s.db.ExecContext(ctx, "UPDATE media SET description = ?, tags = ? WHERE id = ?",
		nullString(description), string(encoded), id)
	if err != nil {
		return nil, fmt.Errorf("update media: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}
	return s.GetMedia(ctx, id)
}

func (s *Store) DeleteMedia(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM media WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return requireAffected(result)
}

func scanEvent(row rowScanner, extra ...any) (*database.EventRecord, error) {
	var (
		e         database.EventRecord
		desc      sql.NullString
		location  sql.NullString
		thumbnail sql.NullString
		eventDate string
		createdAt string
	)
	dest := append([]any{&e.ID, &e.Title, &desc, &eventDate, &location, &thumbnail, &createdAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	d, err := database.ParseDate(eventDate)
	if err != nil {
		return nil, err
	}
	e.EventDate = d
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	e.Description = desc.String
	e.Location = location.String
	e.ThumbnailURL = thumbnail.String
	return &e, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]database.EventSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.title, e.description, e.event_date, e.location, e.thumbnail_url, e.created_at,
			COALESCE(SUM(CASE WHEN m.media_type = 'photo' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN m.media_type = 'video' THEN 1 ELSE 0 END), 0)
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
		var summary database.EventSummary
		e, err := scanEvent(rows, &summary.PhotoCount, &summary.VideoCount)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		summary.EventRecord = *e
		events = append(events, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (*database.EventRecord, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (s *Store) CreateEvent(ctx context.Context, e *database.EventRecord) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Title, nullString(e.Description), e.EventDate.String(), nullString(e.Location),
		nullString(e.ThumbnailURL), formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *Store) UpdateEvent(ctx context.Context, e *database.EventRecord) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE events SET title = ?, description = ?, event_date = ?, location = ?, thumbnail_url = ?
		WHERE id = ?
	`, e.Title, nullString(e.Description), e.EventDate.String(), nullString(e.Location),
		nullString(e.ThumbnailURL), e.ID)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return requireAffected(result)
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}
