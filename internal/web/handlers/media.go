package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/baptism-gallery/internal/database"
	"github.com/kozaktomas/baptism-gallery/internal/search"
	"github.com/kozaktomas/baptism-gallery/internal/storage"
)

// MediaHandler handles gallery media endpoints
type MediaHandler struct {
	store   database.MediaWriter
	objects storage.Store
	buckets storage.Buckets
	stats   *StatsHandler
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(store database.MediaWriter, objects storage.Store, buckets storage.Buckets, stats *StatsHandler) *MediaHandler {
	return &MediaHandler{
		store:   store,
		objects: objects,
		buckets: buckets,
		stats:   stats,
	}
}

// MediaUpdateRequest carries the editable fields of a media record
type MediaUpdateRequest struct {
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
}

// List returns media filtered by ?event_id=, ?type=, ?limit= and the keyword ?q=
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := database.MediaFilter{
		EventID: query.Get("event_id"),
		Type:    database.MediaType(query.Get("type")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		respondError(w, http.StatusBadRequest, "type must be photo or video")
		return
	}

	q := query.Get("q")
	limit := 0
	if limitStr := query.Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	// With a keyword the limit applies after filtering.
	if q == "" {
		filter.Limit = limit
	}

	media, err := h.store.ListMedia(r.Context(), filter)
	if err != nil {
		respondStoreError(w, err, "media")
		return
	}
	media = search.FilterByText(media, q)
	if limit > 0 && len(media) > limit {
		media = media[:limit]
	}
	respondJSON(w, http.StatusOK, media)
}

// Get returns one media record
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.GetMedia(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err, "media")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// Update replaces the description and/or tags of a media record
func (h *MediaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req MediaUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	existing, err := h.store.GetMedia(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "media")
		return
	}

	description := existing.Description
	if req.Description != nil {
		description = strings.TrimSpace(*req.Description)
	}
	tags := existing.Tags
	if req.Tags != nil {
		tags = make([]string, 0, len(req.Tags))
		for _, t := range req.Tags {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	updated, err := h.store.UpdateMedia(r.Context(), id, description, tags)
	if err != nil {
		respondStoreError(w, err, "media")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Delete removes the stored object and the record
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.store.GetMedia(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "media")
		return
	}

	removed := removeObject(r.Context(), h.objects, h.buckets.For(rec.MediaType), rec.URL)

	if err := h.store.DeleteMedia(r.Context(), id); err != nil {
		respondStoreError(w, err, "media")
		return
	}
	h.stats.InvalidateCache()
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true, "object_removed": removed})
}

// Tags returns tag usage counts across the gallery or one event (?event_id=)
func (h *MediaHandler) Tags(w http.ResponseWriter, r *http.Request) {
	media, err := h.store.ListMedia(r.Context(), database.MediaFilter{EventID: r.URL.Query().Get("event_id")})
	if err != nil {
		respondStoreError(w, err, "media")
		return
	}
	respondJSON(w, http.StatusOK, database.CountTags(media))
}
