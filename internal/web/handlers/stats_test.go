package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/baptism-gallery/internal/database"
)

func TestStatsHandler_Get(t *testing.T) {
	f := newFixture(t)
	f.store.AddEvent(database.EventRecord{Title: "Batizado", EventDate: mustDate(t, "2024-03-10")})
	f.store.AddMedia(database.MediaRecord{MediaType: database.MediaPhoto})
	f.store.AddMedia(database.MediaRecord{MediaType: database.MediaPhoto})
	f.store.AddMedia(database.MediaRecord{MediaType: database.MediaVideo})

	recorder := httptest.NewRecorder()
	f.stats.Get(recorder, httptest.NewRequest("GET", "/api/v1/stats", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")
	var stats StatsResponse
	parseJSONResponse(t, recorder, &stats)
	if stats.Events != 1 || stats.Photos != 2 || stats.Videos != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestStatsHandler_Cache(t *testing.T) {
	f := newFixture(t)
	f.store.AddMedia(database.MediaRecord{MediaType: database.MediaPhoto})

	get := func() StatsResponse {
		recorder := httptest.NewRecorder()
		f.stats.Get(recorder, httptest.NewRequest("GET", "/api/v1/stats", nil))
		var stats StatsResponse
		parseJSONResponse(t, recorder, &stats)
		return stats
	}

	if got := get(); got.Photos != 1 {
		t.Fatalf("photos = %d", got.Photos)
	}
	f.store.AddMedia(database.MediaRecord{MediaType: database.MediaPhoto})
	if got := get(); got.Photos != 1 {
		t.Errorf("expected cached count, got %d", got.Photos)
	}
	f.stats.InvalidateCache()
	if got := get(); got.Photos != 2 {
		t.Errorf("expected fresh count after invalidation, got %d", got.Photos)
	}
}

func TestStatsHandler_Error(t *testing.T) {
	f := newFixture(t)
	f.store.CountMediaError = errors.New("connection refused")

	recorder := httptest.NewRecorder()
	f.stats.Get(recorder, httptest.NewRequest("GET", "/api/v1/stats", nil))
	assertStatusCode(t, recorder, http.StatusInternalServerError)
}

func TestStatsHandler_InvalidateNil(t *testing.T) {
	var h *StatsHandler
	h.InvalidateCache()
}
