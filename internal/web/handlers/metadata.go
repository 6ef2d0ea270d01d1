package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/kozaktomas/baptism-gallery/internal/database"
	"github.com/kozaktomas/baptism-gallery/internal/metadata"
)

// MetadataHandler exposes the metadata generator over HTTP
type MetadataHandler struct {
	generator *metadata.Generator
}

// NewMetadataHandler creates a new metadata handler
func NewMetadataHandler(generator *metadata.Generator) *MetadataHandler {
	return &MetadataHandler{generator: generator}
}

// PhotoRequest is the body of a photo metadata request
type PhotoRequest struct {
	ImageURL string `json:"imageUrl"`
}

// VideoRequest is the body of a video metadata request
type VideoRequest struct {
	VideoURL string `json:"videoUrl"`
}

// Photo analyzes an uploaded photo
func (h *MetadataHandler) Photo(w http.ResponseWriter, r *http.Request) {
	var req PhotoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		respondError(w, http.StatusBadRequest, "imageUrl é obrigatório")
		return
	}
	h.generate(w, r, req.ImageURL, database.MediaPhoto)
}

// Video analyzes an uploaded video. Analysis failures are answered with
// generic metadata unless the generator surfaces them.
func (h *MetadataHandler) Video(w http.ResponseWriter, r *http.Request) {
	var req VideoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		respondError(w, http.StatusBadRequest, "videoUrl is required")
		return
	}
	h.generate(w, r, req.VideoURL, database.MediaVideo)
}

func (h *MetadataHandler) generate(w http.ResponseWriter, r *http.Request, url string, kind database.MediaType) {
	log.Printf("Generating %s metadata for %s", kind, sanitizeForLog(url))
	result, err := h.generator.Generate(r.Context(), strings.TrimSpace(url), kind)
	if err != nil {
		if errors.Is(err, metadata.ErrMissingURL) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Error generating %s metadata: %v", kind, err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}
