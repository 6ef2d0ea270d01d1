package handlers

import (
	"context"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/baptism-gallery/internal/constants"
	"github.com/kozaktomas/baptism-gallery/internal/database"
	"github.com/kozaktomas/baptism-gallery/internal/search"
	"github.com/kozaktomas/baptism-gallery/internal/storage"
)

// eventThumbnailFolder is the key prefix for event cover images in the photo bucket.
const eventThumbnailFolder = "events"

// EventsHandler handles event endpoints
type EventsHandler struct {
	store   database.Store
	objects storage.Store
	buckets storage.Buckets
	stats   *StatsHandler
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(store database.Store, objects storage.Store, buckets storage.Buckets, stats *StatsHandler) *EventsHandler {
	return &EventsHandler{
		store:   store,
		objects: objects,
		buckets: buckets,
		stats:   stats,
	}
}

// EventRequest is the body of create and update requests
type EventRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	EventDate    string `json:"event_date"`
	Location     string `json:"location"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (req *EventRequest) toRecord(id string) (*database.EventRecord, string) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, "title is required"
	}
	if strings.TrimSpace(req.EventDate) == "" {
		return nil, "event_date is required"
	}
	date, err := database.ParseDate(req.EventDate)
	if err != nil {
		return nil, "event_date must be YYYY-MM-DD"
	}
	return &database.EventRecord{
		ID:           id,
		Title:        title,
		Description:  strings.TrimSpace(req.Description),
		EventDate:    date,
		Location:     strings.TrimSpace(req.Location),
		ThumbnailURL: req.ThumbnailURL,
	}, ""
}

// List returns events newest first with photo and video counts, optionally filtered by ?q=
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.ListEvents(r.Context())
	if err != nil {
		respondStoreError(w, err, "events")
		return
	}
	respondJSON(w, http.StatusOK, search.FilterEvents(events, r.URL.Query().Get("q")))
}

// Get returns a single event
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.store.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err, "event")
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// Media returns the event's media ordered by order_index
func (h *EventsHandler) Media(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetEvent(r.Context(), id); err != nil {
		respondStoreError(w, err, "event")
		return
	}
	media, err := h.store.ListMedia(r.Context(), database.MediaFilter{EventID: id})
	if err != nil {
		respondStoreError(w, err, "media")
		return
	}
	respondJSON(w, http.StatusOK, media)
}

// Create creates an event from JSON or from a multipart form with an optional "thumbnail" file
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, thumb, ok := h.parseRequest(w, r)
	if !ok {
		return
	}
	rec, msg := req.toRecord("")
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if thumb != nil {
		url, err := h.uploadThumbnail(r.Context(), thumb)
		if err != nil {
			log.Printf("Error uploading event thumbnail: %v", err)
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		rec.ThumbnailURL = url
	}

	if err := h.store.CreateEvent(r.Context(), rec); err != nil {
		respondStoreError(w, err, "event")
		return
	}
	h.stats.InvalidateCache()
	respondJSON(w, http.StatusCreated, rec)
}

// Update replaces an event's fields
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.store.GetEvent(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "event")
		return
	}

	req, thumb, ok := h.parseRequest(w, r)
	if !ok {
		return
	}
	if req.ThumbnailURL == "" {
		req.ThumbnailURL = existing.ThumbnailURL
	}
	rec, msg := req.toRecord(id)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if thumb != nil {
		url, err := h.uploadThumbnail(r.Context(), thumb)
		if err != nil {
			log.Printf("Error uploading event thumbnail: %v", err)
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		rec.ThumbnailURL = url
	}

	if err := h.store.UpdateEvent(r.Context(), rec); err != nil {
		respondStoreError(w, err, "event")
		return
	}
	rec.CreatedAt = existing.CreatedAt
	respondJSON(w, http.StatusOK, rec)
}

// Delete removes an event, its media rows and their stored objects
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	event, err := h.store.GetEvent(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "event")
		return
	}
	media, err := h.store.ListMedia(r.Context(), database.MediaFilter{EventID: id})
	if err != nil {
		respondStoreError(w, err, "media")
		return
	}

	if err := h.store.DeleteEvent(r.Context(), id); err != nil {
		respondStoreError(w, err, "event")
		return
	}

	removed := 0
	for i := range media {
		if removeObject(r.Context(), h.objects, h.buckets.For(media[i].MediaType), media[i].URL) {
			removed++
		}
	}
	if event.ThumbnailURL != "" {
		removeObject(r.Context(), h.objects, h.buckets.Photo, event.ThumbnailURL)
	}
	h.stats.InvalidateCache()

	respondJSON(w, http.StatusOK, map[string]any{
		"deleted":         true,
		"media_deleted":   len(media),
		"objects_removed": removed,
	})
}

// parseRequest reads an EventRequest from JSON or multipart form data.
func (h *EventsHandler) parseRequest(w http.ResponseWriter, r *http.Request) (*EventRequest, *multipart.FileHeader, bool) {
	var req EventRequest
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if !decodeJSON(w, r, &req) {
			return nil, nil, false
		}
		return &req, nil, true
	}

	if err := r.ParseMultipartForm(constants.MaxMultipartMemory); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return nil, nil, false
	}
	req = EventRequest{
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		EventDate:    r.FormValue("event_date"),
		Location:     r.FormValue("location"),
		ThumbnailURL: r.FormValue("thumbnail_url"),
	}
	var thumb *multipart.FileHeader
	if files := r.MultipartForm.File["thumbnail"]; len(files) > 0 {
		thumb = files[0]
		if !strings.HasPrefix(thumb.Header.Get("Content-Type"), "image/") {
			respondError(w, http.StatusBadRequest, "thumbnail must be an image")
			return nil, nil, false
		}
	}
	return &req, thumb, true
}

func (h *EventsHandler) uploadThumbnail(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if h.objects == nil {
		return "", errors.New("object storage not configured")
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	key := storage.ObjectKey(eventThumbnailFolder, fh.Filename)
	return h.objects.Put(ctx, h.buckets.Photo, key, fh.Header.Get("Content-Type"), f, fh.Size)
}

// removeObject deletes the object behind a public URL, logging failures.
func removeObject(ctx context.Context, objects storage.Store, bucket, publicURL string) bool {
	if objects == nil || publicURL == "" {
		return false
	}
	key := storage.KeyFromURL(publicURL)
	if err := objects.Delete(ctx, bucket, key); err != nil {
		if !errors.Is(err, storage.ErrObjectNotFound) {
			log.Printf("Warning: failed to delete object %s/%s: %v", bucket, sanitizeForLog(key), err)
		}
		return false
	}
	return true
}
