package handlers

import (
	"net/http"

	"github.com/kozaktomas/baptism-gallery/internal/ai"
	"github.com/kozaktomas/baptism-gallery/internal/config"
	"github.com/kozaktomas/baptism-gallery/internal/storage"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config   *config.Config
	provider ai.Provider
	objects  storage.Store
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config, provider ai.Provider, objects storage.Store) *ConfigHandler {
	return &ConfigHandler{
		config:   cfg,
		provider: provider,
		objects:  objects,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	AI                AIInfo `json:"ai"`
	StorageBackend    string `json:"storage_backend"`
	Database          string `json:"database"`
	PhotoBucket       string `json:"photo_bucket"`
	VideoBucket       string `json:"video_bucket"`
	UploadConcurrency int    `json:"upload_concurrency"`
	MaxPhotoSize      int64  `json:"max_photo_size"`
	MaxVideoSize      int64  `json:"max_video_size"`
	SearchResultLimit int    `json:"search_result_limit"`
	AdminEnabled      bool   `json:"admin_enabled"`
}

// AIInfo describes the active AI provider
type AIInfo struct {
	Provider  string   `json:"provider"`
	Model     string   `json:"model"`
	Available bool     `json:"available"`
	Usage     ai.Usage `json:"usage"`
}

// Get returns the active configuration without secrets
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	info := AIInfo{
		Provider: h.config.AI.Provider,
		Model:    h.config.AI.Model(),
	}
	if h.provider != nil {
		info.Provider = h.provider.Name()
		info.Model = h.provider.Model()
		info.Available = true
		info.Usage = h.provider.GetUsage()
	}

	backend := h.config.Storage.Backend
	if h.objects != nil {
		backend = h.objects.Name()
	}

	database := "postgres"
	if h.config.Database.IsSQLite() {
		database = "sqlite"
	}

	respondJSON(w, http.StatusOK, ConfigResponse{
		AI:                info,
		StorageBackend:    backend,
		Database:          database,
		PhotoBucket:       h.config.Storage.PhotoBucket,
		VideoBucket:       h.config.Storage.VideoBucket,
		UploadConcurrency: h.config.Upload.Concurrency,
		MaxPhotoSize:      h.config.Upload.MaxPhotoSize,
		MaxVideoSize:      h.config.Upload.MaxVideoSize,
		SearchResultLimit: h.config.Search.ResultLimit,
		AdminEnabled:      h.config.Web.AdminToken != "",
	})
}

// ResetUsage clears the provider's token counters and returns the totals
// accumulated before the reset.
func (h *ConfigHandler) ResetUsage(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respondError(w, http.StatusServiceUnavailable, "AI provider is not configured")
		return
	}
	usage := h.provider.GetUsage()
	h.provider.ResetUsage()
	respondJSON(w, http.StatusOK, usage)
}
