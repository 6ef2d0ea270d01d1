package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/baptism-gallery/internal/database"
	"github.com/lib/pq"
)

const mediaColumns = `id, event_id, url, media_type, thumbnail_url, description, ai_description,
	tags, faces_count, setting, file_size, order_index, event_date, uploaded_at`

// MediaRepository provides PostgreSQL-backed media storage
type MediaRepository struct {
	pool *Pool
}

// NewMediaRepository creates a new PostgreSQL media repository
func NewMediaRepository(pool *Pool) *MediaRepository {
	return &MediaRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedia(row rowScanner) (*database.MediaRecord, error) {
	var (
		m                                                        database.MediaRecord
		eventID, thumbnail, description, aiDescription, setting sql.NullString
		facesCount                                               sql.NullInt64
		mediaType                                                string
	)
	err := row.Scan(
		&m.ID,
		&eventID,
		&m.URL,
		&mediaType,
		&thumbnail,
		&description,
		&aiDescription,
		pq.Array(&m.Tags),
		&facesCount,
		&setting,
		&m.FileSize,
		&m.OrderIndex,
		&m.EventDate,
		&m.UploadedAt,
	)
	if err != nil {
		return nil, err
	}

	m.EventID = eventID.String
	m.MediaType = database.MediaType(mediaType)
	m.ThumbnailURL = thumbnail.String
	m.Description = description.String
	m.AIDescription = aiDescription.String
	m.Setting = setting.String
	if facesCount.Valid {
		n := int(facesCount.Int64)
		m.FacesCount = &n
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return &m, nil
}

// ListMedia returns media records matching the filter
func (r *MediaRepository) ListMedia(ctx context.Context, filter database.MediaFilter) ([]database.MediaRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.EventID != "" {
		args = append(args, filter.EventID)
		where = append(where, fmt.Sprintf("event_id = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		where = append(where, fmt.Sprintf("media_type = $%d", len(args)))
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
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
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

// GetMedia retrieves a media record by ID
func (r *MediaRepository) GetMedia(ctx context.Context, id string) (*database.MediaRecord, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+mediaColumns+" FROM media WHERE id = $1", id)
	m, err := scanMedia(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	return m, nil
}

// NextOrderIndex returns the number of media already attached to the event
func (r *MediaRepository) NextOrderIndex(ctx context.Context, eventID string) (int, error) {
	var n int
	var err error
	if eventID == "" {
		err = r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM media WHERE event_id IS NULL").Scan(&n)
	} else {
		err = r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM media WHERE event_id = $1", eventID).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count event media: %w", err)
	}
	return n, nil
}

// CountMedia returns photo and video totals
func (r *MediaRepository) CountMedia(ctx context.Context) (database.MediaCounts, error) {
	var c database.MediaCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE media_type = 'photo'),
			COUNT(*) FILTER (WHERE media_type = 'video')
		FROM media
	`).Scan(&c.Photos, &c.Videos)
	if err != nil {
		return c, fmt.Errorf("count media: %w", err)
	}
	return c, nil
}

// InsertMedia stores a new media record
func (r *MediaRepository) InsertMedia(ctx context.Context, m *database.MediaRecord) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.UploadedAt.IsZero() {
		m.UploadedAt = time.Now().UTC()
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}

	var facesCount sql.NullInt64
	if m.FacesCount != nil {
		facesCount = sql.NullInt64{Int64: int64(*m.FacesCount), Valid: true}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO media (`+mediaColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		m.ID,
		nullString(m.EventID),
		m.URL,
		string(m.MediaType),
		nullString(m.ThumbnailURL),
		nullString(m.Description),
		nullString(m.AIDescription),
		pq.Array(m.Tags),
		facesCount,
		nullString(m.Setting),
		m.FileSize,
		m.OrderIndex,
		m.EventDate,
		m.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("insert media: %w", err)
	}
	return nil
}

// UpdateMedia replaces description and tags of a record
func (r *MediaRepository) UpdateMedia(ctx context.Context, id string, description string, tags []string) (*database.MediaRecord, error) {
	if tags == nil {
		tags = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE media SET description = $2, tags = $3
		WHERE id = $1
		RETURNING `+mediaColumns,
		id, nullString(description), pq.Array(tags),
	)
	m, err := scanMedia(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update media: %w", err)
	}
	return m, nil
}

// DeleteMedia removes a media record
func (r *MediaRepository) DeleteMedia(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM media WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
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
