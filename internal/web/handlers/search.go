package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/kozaktomas/baptism-gallery/internal/search"
)

// SearchHandler handles search-by-image requests
type SearchHandler struct {
	service *search.Service
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(service *search.Service) *SearchHandler {
	return &SearchHandler{service: service}
}

// ImageSearchRequest carries the query image as a data URL or bare base64
type ImageSearchRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

// Image ranks gallery photos by similarity to the posted image
func (h *SearchHandler) Image(w http.ResponseWriter, r *http.Request) {
	var req ImageSearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.SearchByImage(r.Context(), req.ImageBase64)
	if err != nil {
		if errors.Is(err, search.ErrImageRequired) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Error in search-by-image: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
