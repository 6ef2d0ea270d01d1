// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/baptism-gallery/internal/database"
)

// MockStore is an in-memory implementation of database.Store
type MockStore struct {
	mu     sync.RWMutex
	media  map[string]*database.MediaRecord
	events map[string]*database.EventRecord
	now    func() time.Time

	// Error injection
	ListMediaError      error
	GetMediaError       error
	NextOrderIndexError error
	CountMediaError     error
	InsertMediaError    error
	UpdateMediaError    error
	DeleteMediaError    error
	ListEventsError     error
	GetEventError       error
	CreateEventError    error
	UpdateEventError    error
	DeleteEventError    error

	// Call tracking
	InsertCalls int
}

var _ database.Store = (*MockStore)(nil)

// NewMockStore creates a new empty mock store
func NewMockStore() *MockStore {
	return &MockStore{
		media:  make(map[string]*database.MediaRecord),
		events: make(map[string]*database.EventRecord),
		now:    time.Now,
	}
}

// AddMedia adds a record to the mock store, generating an ID when empty
func (m *MockStore) AddMedia(rec database.MediaRecord) *database.MediaRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	m.media[rec.ID] = &rec
	return &rec
}

// AddEvent adds an event to the mock store, generating an ID when empty
func (m *MockStore) AddEvent(e database.EventRecord) *database.EventRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m.events[e.ID] = &e
	return &e
}

// MediaCount returns the number of stored media records
func (m *MockStore) MediaCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.media)
}

func copyMedia(r *database.MediaRecord) database.MediaRecord {
	c := *r
	c.Tags = slices.Clone(r.Tags)
	return c
}

// ListMedia returns records matching the filter
func (m *MockStore) ListMedia(ctx context.Context, filter database.MediaFilter) ([]database.MediaRecord, error) {
	if m.ListMediaError != nil {
		return nil, m.ListMediaError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []database.MediaRecord{}
	for _, r := range m.media {
		if filter.EventID != "" && r.EventID != filter.EventID {
			continue
		}
		if filter.Type != "" && r.MediaType != filter.Type {
			continue
		}
		result = append(result, copyMedia(r))
	}

	if filter.EventID != "" {
		sort.SliceStable(result, func(i, j int) bool {
			if result[i].OrderIndex != result[j].OrderIndex {
				return result[i].OrderIndex < result[j].OrderIndex
			}
			return result[i].UploadedAt.Before(result[j].UploadedAt)
		})
	} else {
		sort.SliceStable(result, func(i, j int) bool {
			if !result[i].UploadedAt.Equal(result[j].UploadedAt) {
				return result[i].UploadedAt.After(result[j].UploadedAt)
			}
			return result[i].ID < result[j].ID
		})
	}

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// GetMedia retrieves a record by ID
func (m *MockStore) GetMedia(ctx context.Context, id string) (*database.MediaRecord, error) {
	if m.GetMediaError != nil {
		return nil, m.GetMediaError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.media[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := copyMedia(r)
	return &c, nil
}

// NextOrderIndex counts the event's records
func (m *MockStore) NextOrderIndex(ctx context.Context, eventID string) (int, error) {
	if m.NextOrderIndexError != nil {
		return 0, m.NextOrderIndexError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.media {
		if r.EventID == eventID {
			n++
		}
	}
	return n, nil
}

// CountMedia returns photo and video totals
func (m *MockStore) CountMedia(ctx context.Context) (database.MediaCounts, error) {
	if m.CountMediaError != nil {
		return database.MediaCounts{}, m.CountMediaError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var c database.MediaCounts
	for _, r := range m.media {
		switch r.MediaType {
		case database.MediaPhoto:
			c.Photos++
		case database.MediaVideo:
			c.Videos++
		}
	}
	return c, nil
}

// InsertMedia stores a new record
func (m *MockStore) InsertMedia(ctx context.Context, rec *database.MediaRecord) error {
	m.mu.Lock()
	m.InsertCalls++
	m.mu.Unlock()
	if m.InsertMediaError != nil {
		return m.InsertMediaError
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = m.now().UTC()
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	c := copyMedia(rec)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media[rec.ID] = &c
	return nil
}

// UpdateMedia replaces description and tags
func (m *MockStore) UpdateMedia(ctx context.Context, id string, description string, tags []string) (*database.MediaRecord, error) {
	if m.UpdateMediaError != nil {
		return nil, m.UpdateMediaError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.media[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if tags == nil {
		tags = []string{}
	}
	r.Description = description
	r.Tags = slices.Clone(tags)
	c := copyMedia(r)
	return &c, nil
}

// DeleteMedia removes a record
func (m *MockStore) DeleteMedia(ctx context.Context, id string) error {
	if m.DeleteMediaError != nil {
		return m.DeleteMediaError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.media[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.media, id)
	return nil
}

// ListEvents returns events with counts, newest event_date first
func (m *MockStore) ListEvents(ctx context.Context) ([]database.EventSummary, error) {
	if m.ListEventsError != nil {
		return nil, m.ListEventsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []database.EventSummary{}
	for _, e := range m.events {
		s := database.EventSummary{EventRecord: *e}
		for _, r := range m.media {
			if r.EventID != e.ID {
				continue
			}
			if r.MediaType == database.MediaVideo {
				s.VideoCount++
			} else {
				s.PhotoCount++
			}
		}
		result = append(result, s)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].EventDate.Equal(result[j].EventDate.Time) {
			return result[i].EventDate.After(result[j].EventDate.Time)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// GetEvent retrieves an event by ID
func (m *MockStore) GetEvent(ctx context.Context, id string) (*database.EventRecord, error) {
	if m.GetEventError != nil {
		return nil, m.GetEventError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *e
	return &c, nil
}

// CreateEvent stores a new event
func (m *MockStore) CreateEvent(ctx context.Context, e *database.EventRecord) error {
	if m.CreateEventError != nil {
		return m.CreateEventError
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = m.now().UTC()
	}
	c := *e
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = &c
	return nil
}

// UpdateEvent replaces an existing event
func (m *MockStore) UpdateEvent(ctx context.Context, e *database.EventRecord) error {
	if m.UpdateEventError != nil {
		return m.UpdateEventError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.events[e.ID]
	if !ok {
		return database.ErrNotFound
	}
	c := *e
	c.CreatedAt = existing.CreatedAt
	m.events[e.ID] = &c
	return nil
}

// DeleteEvent removes an event and its media
func (m *MockStore) DeleteEvent(ctx context.Context, id string) error {
	if m.DeleteEventError != nil {
		return m.DeleteEventError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.events, id)
	for mid, r := range m.media {
		if r.EventID == id {
			delete(m.media, mid)
		}
	}
	return nil
}

// Close is a no-op
func (m *MockStore) Close() error {
	return nil
}
