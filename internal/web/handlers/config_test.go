package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/baptism-gallery/internal/ai"
	"github.com/kozaktomas/baptism-gallery/internal/config"
)

func TestConfigHandler_Get(t *testing.T) {
	f := newFixture(t)
	cfg := &config.Config{
		AI:       config.AIConfig{Provider: config.ProviderGateway, GatewayModel: "google/gemini-2.5-flash", GatewayKey: "secret"},
		Database: config.DatabaseConfig{URL: "sqlite:gallery.db"},
		Storage:  config.StorageConfig{Backend: "supabase", PhotoBucket: "photos", VideoBucket: "videos", S3SecretKey: "secret"},
		Upload:   config.UploadConfig{Concurrency: 3},
		Web:      config.WebConfig{AdminToken: "token"},
	}

	recorder := httptest.NewRecorder()
	NewConfigHandler(cfg, f.provider, f.objects).Get(recorder, httptest.NewRequest("GET", "/api/v1/config", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp ConfigResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.AI.Provider != "mock" || resp.AI.Model != "mock-model" || !resp.AI.Available {
		t.Errorf("unexpected ai info %+v", resp.AI)
	}
	if resp.StorageBackend != "memory" || resp.Database != "sqlite" {
		t.Errorf("unexpected backends %+v", resp)
	}
	if !resp.AdminEnabled || resp.UploadConcurrency != 3 || resp.PhotoBucket != "photos" {
		t.Errorf("unexpected response %+v", resp)
	}
	if body := recorder.Body.String(); strings.Contains(body, "secret") {
		t.Errorf("response leaks secrets: %s", body)
	}
}

func TestConfigHandler_Get_NoProvider(t *testing.T) {
	cfg := &config.Config{AI: config.AIConfig{Provider: config.ProviderGemini, GeminiModel: "gemini-2.5-flash"}}

	recorder := httptest.NewRecorder()
	NewConfigHandler(cfg, nil, nil).Get(recorder, httptest.NewRequest("GET", "/api/v1/config", nil))

	var resp ConfigResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.AI.Available || resp.AI.Provider != "gemini" || resp.AI.Model != "gemini-2.5-flash" {
		t.Errorf("unexpected ai info %+v", resp.AI)
	}
	if resp.Database != "postgres" {
		t.Errorf("database = %q", resp.Database)
	}
}

func TestConfigHandler_ResetUsage(t *testing.T) {
	f := newFixture(t)
	f.provider.Usage = ai.Usage{Requests: 4, InputTokens: 1200, OutputTokens: 300, TotalCost: 0.01}
	h := NewConfigHandler(&config.Config{}, f.provider, f.objects)

	recorder := httptest.NewRecorder()
	h.ResetUsage(recorder, httptest.NewRequest("DELETE", "/api/v1/config/usage", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var before ai.Usage
	parseJSONResponse(t, recorder, &before)
	if before.Requests != 4 || before.InputTokens != 1200 {
		t.Errorf("expected totals before reset, got %+v", before)
	}
	if got := f.provider.GetUsage(); got != (ai.Usage{}) {
		t.Errorf("usage not cleared: %+v", got)
	}
}

func TestConfigHandler_ResetUsage_NoProvider(t *testing.T) {
	recorder := httptest.NewRecorder()
	NewConfigHandler(&config.Config{}, nil, nil).ResetUsage(recorder, httptest.NewRequest("DELETE", "/api/v1/config/usage", nil))

	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
}
