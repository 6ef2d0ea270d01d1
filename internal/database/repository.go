package database

import (
	"context"
	"sort"
)

// MediaReader provides read-only access to media records
type MediaReader interface {
	// ListMedia returns media matching filter. Without an event filter the
	// newest uploads come first; with one, records follow order_index.
	ListMedia(ctx context.Context, filter MediaFilter) ([]MediaRecord, error)
	// GetMedia retrieves a record by ID, returns ErrNotFound if missing
	GetMedia(ctx context.Context, id string) (*MediaRecord, error)
	// NextOrderIndex returns the order_index the next media of the event should take
	NextOrderIndex(ctx context.Context, eventID string) (int, error)
	// CountMedia returns gallery-wide photo and video totals
	CountMedia(ctx context.Context) (MediaCounts, error)
}

// MediaWriter provides write access to media records
type MediaWriter interface {
	MediaReader

	// InsertMedia stores a new record. ID and UploadedAt are filled in when empty.
	InsertMedia(ctx context.Context, m *MediaRecord) error
	// UpdateMedia replaces the editable fields (description, tags) of a record
	UpdateMedia(ctx context.Context, id string, description string, tags []string) (*MediaRecord, error)
	// DeleteMedia removes a record, returns ErrNotFound if missing
	DeleteMedia(ctx context.Context, id string) error
}

// EventReader provides read-only access to events
type EventReader interface {
	// ListEvents returns all events, most recent event_date first, with media counts
	ListEvents(ctx context.Context) ([]EventSummary, error)
	// GetEvent retrieves an event by ID, returns ErrNotFound if missing
	GetEvent(ctx context.Context, id string) (*EventRecord, error)
}

// EventWriter provides write access to events
type EventWriter interface {
	EventReader

	// CreateEvent stores a new event. ID and CreatedAt are filled in when empty.
	CreateEvent(ctx context.Context, e *EventRecord) error
	// UpdateEvent replaces all editable fields of an existing event
	UpdateEvent(ctx context.Context, e *EventRecord) error
	// DeleteEvent removes an event and its media rows
	DeleteEvent(ctx context.Context, id string) error
}

// Store is the full persistence surface used by the server.
type Store interface {
	MediaWriter
	EventWriter
	Close() error
}

// CountTags tallies tag usage across records, most used first, then alphabetically.
func CountTags(records []MediaRecord) []TagCount {
	counts := make(map[string]int)
	for _, r := range records {
		for _, tag := range r.Tags {
			counts[tag]++
		}
	}

	result := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		result = append(result, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Tag < result[j].Tag
	})
	return result
}
