package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// MediaType distinguishes photos from videos
type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
)

// Valid reports whether t is a known media type
func (t MediaType) Valid() bool {
	return t == MediaPhoto || t == MediaVideo
}

// MediaRecord is a stored photo or video row
type MediaRecord struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id,omitempty"`
	URL           string    `json:"url"`
	MediaType     MediaType `json:"media_type"`
	ThumbnailURL  string    `json:"thumbnail_url,omitempty"`
	Description   string    `json:"description,omitempty"`
	AIDescription string    `json:"ai_description,omitempty"`
	Tags          []string  `json:"tags"`
	FacesCount    *int      `json:"faces_count,omitempty"`
	Setting       string    `json:"setting,omitempty"`
	FileSize      int64     `json:"file_size"`
	OrderIndex    int       `json:"order_index"`
	EventDate     *Date     `json:"event_date,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// SearchText returns the text a ranker or keyword filter should see:
// the manual description, falling back to the AI description.
func (m *MediaRecord) SearchText() string {
	if m.Description != "" {
		return m.Description
	}
	return m.AIDescription
}

// EventRecord is a baptism event grouping media
type EventRecord struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	EventDate    Date      `json:"event_date"`
	Location     string    `json:"location,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// EventSummary is an event with its media counts
type EventSummary struct {
	EventRecord
	PhotoCount int `json:"photo_count"`
	VideoCount int `json:"video_count"`
}

// MediaFilter narrows a media listing
type MediaFilter struct {
	EventID string    // only media of this event, ordered by order_index
	Type    MediaType // only this media type
	Limit   int       // 0 means no limit
}

// MediaCounts holds gallery totals
type MediaCounts struct {
	Photos int `json:"photos"`
	Videos int `json:"videos"`
}

// TagCount is a tag with the number of records carrying it
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

const dateLayout = "2006-01-02"

// Date is a calendar date without time of day, serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// NewDate truncates t to its calendar date.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	// Accept full timestamps too; only the date part is kept.
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner for DATE and TEXT columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
