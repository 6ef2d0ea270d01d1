package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/kozaktomas/baptism-gallery/internal/database"
)

const statsCacheTTL = time.Minute

// statsCache holds cached stats with expiry
type statsCache struct {
	mu        sync.RWMutex
	data      *StatsResponse
	expiresAt time.Time
}

func (c *statsCache) get() (*StatsResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.data == nil || time.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.data, true
}

func (c *statsCache) set(data *StatsResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = data
	c.expiresAt = time.Now().Add(statsCacheTTL)
}

func (c *statsCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
}

// StatsHandler handles statistics endpoints
type StatsHandler struct {
	media  database.MediaReader
	events database.EventReader
	cache  statsCache
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(media database.MediaReader, events database.EventReader) *StatsHandler {
	return &StatsHandler{
		media:  media,
		events: events,
	}
}

// InvalidateCache clears the cached stats so the next request fetches fresh data.
// Safe to call on a nil handler.
func (h *StatsHandler) InvalidateCache() {
	if h == nil {
		return
	}
	h.cache.invalidate()
}

// StatsResponse represents the statistics response
type StatsResponse struct {
	Events int `json:"events"`
	Photos int `json:"photos"`
	Videos int `json:"videos"`
}

// Get returns gallery totals
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if cached, ok := h.cache.get(); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	counts, err := h.media.CountMedia(r.Context())
	if err != nil {
		respondStoreError(w, err, "media")
		return
	}
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		respondStoreError(w, err, "events")
		return
	}

	stats := &StatsResponse{
		Events: len(events),
		Photos: counts.Photos,
		Videos: counts.Videos,
	}
	h.cache.set(stats)
	respondJSON(w, http.StatusOK, stats)
}
