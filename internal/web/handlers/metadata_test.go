package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/baptism-gallery/internal/metadata"
)

func newMetadataHandler(f *fixture) *MetadataHandler {
	return NewMetadataHandler(metadata.NewGenerator(f.provider))
}

func TestMetadataHandler_Photo(t *testing.T) {
	f := newFixture(t)
	recorder := httptest.NewRecorder()
	newMetadataHandler(f).Photo(recorder, jsonRequest(t, "POST", "/api/v1/metadata/photo", map[string]string{"imageUrl": "https://cdn/a.jpg"}))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")
	var result metadata.Result
	parseJSONResponse(t, recorder, &result)
	if result.Description != "Batismo na igreja" || len(result.Tags) != 2 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.FacesCount == nil || *result.FacesCount != 2 || result.Setting != "church" {
		t.Errorf("unexpected faces/setting %+v", result)
	}
	if len(f.provider.PhotoCalls) != 1 || f.provider.PhotoCalls[0] != "https://cdn/a.jpg" {
		t.Errorf("unexpected provider calls %v", f.provider.PhotoCalls)
	}
}

func TestMetadataHandler_Photo_MissingURL(t *testing.T) {
	f := newFixture(t)
	recorder := httptest.NewRecorder()
	newMetadataHandler(f).Photo(recorder, jsonRequest(t, "POST", "/", map[string]string{}))

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "imageUrl é obrigatório")
	if len(f.provider.PhotoCalls) != 0 {
		t.Error("provider must not be called")
	}
}

func TestMetadataHandler_Photo_UpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.provider.PhotoError = errors.New("AI gateway error: 429")

	recorder := httptest.NewRecorder()
	newMetadataHandler(f).Photo(recorder, jsonRequest(t, "POST", "/", map[string]string{"imageUrl": "https://cdn/a.jpg"}))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "AI gateway error: 429")
	if f.store.InsertCalls != 0 {
		t.Error("no store write expected")
	}
}

func TestMetadataHandler_Photo_NoProvider(t *testing.T) {
	recorder := httptest.NewRecorder()
	NewMetadataHandler(metadata.NewGenerator(nil)).Photo(recorder, jsonRequest(t, "POST", "/", map[string]string{"imageUrl": "https://cdn/a.jpg"}))
	assertStatusCode(t, recorder, http.StatusInternalServerError)
}

func TestMetadataHandler_Photo_Idempotent(t *testing.T) {
	f := newFixture(t)
	h := newMetadataHandler(f)

	first := httptest.NewRecorder()
	h.Photo(first, jsonRequest(t, "POST", "/", map[string]string{"imageUrl": "https://cdn/a.jpg"}))
	second := httptest.NewRecorder()
	h.Photo(second, jsonRequest(t, "POST", "/", map[string]string{"imageUrl": "https://cdn/a.jpg"}))

	if first.Body.String() != second.Body.String() {
		t.Errorf("expected identical responses:\n%s\n%s", first.Body.String(), second.Body.String())
	}
}

func TestMetadataHandler_Video(t *testing.T) {
	f := newFixture(t)
	recorder := httptest.NewRecorder()
	newMetadataHandler(f).Video(recorder, jsonRequest(t, "POST", "/", map[string]string{"videoUrl": "https://cdn/v.mp4"}))

	assertStatusCode(t, recorder, http.StatusOK)
	var result metadata.Result
	parseJSONResponse(t, recorder, &result)
	if result.Description != "Cerimônia de batismo" || result.ThumbnailURL != "https://cdn/v.mp4" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestMetadataHandler_Video_Fallback(t *testing.T) {
	f := newFixture(t)
	f.provider.VideoError = errors.New("AI gateway error: 500")

	recorder := httptest.NewRecorder()
	newMetadataHandler(f).Video(recorder, jsonRequest(t, "POST", "/", map[string]string{"videoUrl": "https://cdn/v.mp4"}))

	assertStatusCode(t, recorder, http.StatusOK)
	var result metadata.Result
	parseJSONResponse(t, recorder, &result)
	if result.Description != "Vídeo de batizado" {
		t.Errorf("description = %q", result.Description)
	}
	if len(result.Tags) != 2 || result.Tags[0] != "batizado" || result.Tags[1] != "vídeo" {
		t.Errorf("tags = %v", result.Tags)
	}
	if result.Error == "" {
		t.Error("expected fallback to carry the upstream error")
	}
}

func TestMetadataHandler_Video_MissingURL(t *testing.T) {
	f := newFixture(t)
	recorder := httptest.NewRecorder()
	newMetadataHandler(f).Video(recorder, jsonRequest(t, "POST", "/", map[string]string{"videoUrl": "  "}))

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "videoUrl is required")
}

func TestMetadataHandler_InvalidJSON(t *testing.T) {
	f := newFixture(t)
	recorder := httptest.NewRecorder()
	newMetadataHandler(f).Photo(recorder, jsonRequest(t, "POST", "/", "not json"))

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, errInvalidRequestBody)
}
