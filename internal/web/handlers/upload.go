package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kozaktomas/baptism-gallery/internal/constants"
	"github.com/kozaktomas/baptism-gallery/internal/database"
	"github.com/kozaktomas/baptism-gallery/internal/metrics"
	"github.com/kozaktomas/baptism-gallery/internal/upload"
)

// UploadHandler handles batch upload endpoints.
type UploadHandler struct {
	orchestrator *upload.Orchestrator
	events       database.EventReader
	jobManager   *JobManager
	stats        *StatsHandler
	metrics      *metrics.Metrics
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(o *upload.Orchestrator, events database.EventReader, jm *JobManager, stats *StatsHandler, m *metrics.Metrics) *UploadHandler {
	return &UploadHandler{
		orchestrator: o,
		events:       events,
		jobManager:   jm,
		stats:        stats,
		metrics:      m,
	}
}

// uploadedFile is a multipart file spooled to disk so it outlives the request.
type uploadedFile struct {
	name        string
	path        string
	size        int64
	contentType string
}

// saveUploadedFiles saves multipart files to a temporary directory.
func saveUploadedFiles(files []*multipart.FileHeader, tempDir string) ([]uploadedFile, error) {
	saved := make([]uploadedFile, 0, len(files))
	for i, fileHeader := range files {
		if err := func() error {
			file, err := fileHeader.Open()
			if err != nil {
				return fmt.Errorf("failed to open file: %s", fileHeader.Filename)
			}
			defer file.Close()

			safeName := filepath.Base(fileHeader.Filename)
			tempPath := filepath.Join(tempDir, fmt.Sprintf("%03d-%s", i, safeName))
			out, err := os.Create(tempPath) //nolint:gosec // filename sanitized via filepath.Base
			if err != nil {
				return errors.New("failed to create temp file")
			}

			n, err := io.Copy(out, file)
			out.Close()
			if err != nil {
				return errors.New("failed to save file")
			}

			saved = append(saved, uploadedFile{
				name:        safeName,
				path:        tempPath,
				size:        n,
				contentType: fileHeader.Header.Get("Content-Type"),
			})
			return nil
		}(); err != nil {
			return nil, err
		}
	}
	return saved, nil
}

func (f uploadedFile) item() upload.Item {
	path := f.path
	return upload.Item{
		Name:        f.name,
		Size:        f.size,
		ContentType: f.contentType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path) //nolint:gosec // path created by saveUploadedFiles
		},
	}
}

// Start accepts multipart files and starts an async upload job.
func (h *UploadHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(constants.MaxMultipartMemory); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	files := r.MultipartForm.File["files[]"]
	if len(files) == 0 {
		files = r.MultipartForm.File["files"]
	}
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "no files provided")
		return
	}

	opts := upload.Options{
		EventID:     r.FormValue("event_id"),
		Description: r.FormValue("description"),
		Tags:        upload.ParseTags(r.FormValue("tags")),
	}
	if s := r.FormValue("event_date"); s != "" {
		date, err := database.ParseDate(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "event_date must be YYYY-MM-DD")
			return
		}
		opts.EventDate = &date
	}
	if opts.EventID != "" {
		event, err := h.events.GetEvent(r.Context(), opts.EventID)
		if err != nil {
			respondStoreError(w, err, "event")
			return
		}
		if opts.EventDate == nil {
			date := event.EventDate
			opts.EventDate = &date
		}
	}

	tempDir, err := os.MkdirTemp("", "baptism-gallery-upload-*")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create temp directory")
		return
	}

	saved, err := saveUploadedFiles(files, tempDir)
	if err != nil {
		os.RemoveAll(tempDir)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]upload.Item, len(saved))
	names := make([]string, len(saved))
	for i, f := range saved {
		items[i] = f.item()
		names[i] = f.name
	}

	job := h.jobManager.CreateJob(uuid.New().String(), opts.EventID, names)
	ctx, cancel := context.WithCancel(context.Background())
	job.setCancel(cancel)
	go func() {
		defer os.RemoveAll(tempDir)
		h.runUploadJob(ctx, cancel, job, items, opts)
	}()

	respondJSON(w, http.StatusAccepted, map[string]any{
		"job_id": job.ID,
		"total":  len(items),
	})
}

// Status returns the status of an upload job
func (h *UploadHandler) Status(w http.ResponseWriter, r *http.Request) {
	job := h.lookup(w, r)
	if job == nil {
		return
	}
	respondJSON(w, http.StatusOK, job.Snapshot())
}

// List returns every tracked upload job, newest first
func (h *UploadHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobManager.ListJobs()
	snapshots := make([]UploadJob, 0, len(jobs))
	for _, job := range jobs {
		snapshots = append(snapshots, job.Snapshot())
	}
	respondJSON(w, http.StatusOK, snapshots)
}

// Events streams upload job events via SSE
func (h *UploadHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSSEEvents(w, r,
		func(id string) SSEJob {
			job := h.jobManager.GetJob(id)
			if job == nil {
				return nil
			}
			return job
		},
		func(job SSEJob) any {
			return job.(*UploadJob).Snapshot()
		},
	)
}

// Cancel cancels an upload job
func (h *UploadHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	job := h.lookup(w, r)
	if job == nil {
		return
	}
	if isJobTerminal(job.GetStatus()) {
		respondError(w, http.StatusConflict, "job already finished")
		return
	}
	job.Cancel()
	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

func (h *UploadHandler) lookup(w http.ResponseWriter, r *http.Request) *UploadJob {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "missing job ID")
		return nil
	}
	job := h.jobManager.GetJob(jobID)
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return nil
	}
	return job
}

// runUploadJob runs the upload job in the background
func (h *UploadHandler) runUploadJob(ctx context.Context, cancel context.CancelFunc, job *UploadJob, items []upload.Item, opts upload.Options) {
	defer cancel()

	h.metrics.JobStarted()
	defer h.metrics.JobFinished()

	job.mu.Lock()
	if job.Status == JobStatusPending {
		job.Status = JobStatusRunning
	}
	job.mu.Unlock()
	job.SendEvent(JobEvent{Type: "started", Message: "Upload job started", Data: map[string]int{"total": len(items)}})

	opts.OnProgress = func(p upload.Progress) {
		job.update(p)
		job.SendEvent(JobEvent{Type: "progress", Data: p})
	}

	summary := h.orchestrator.Run(ctx, items, opts)
	if summary.Succeeded > 0 {
		h.stats.InvalidateCache()
	}

	now := time.Now()
	if ctx.Err() != nil {
		job.mu.Lock()
		job.Status = JobStatusCancelled
		job.CompletedAt = &now
		job.Result = summary
		job.mu.Unlock()
		log.Printf("Upload job %s cancelled after %d of %d files", job.ID, summary.Succeeded, summary.Total)
		return
	}

	if summary.Succeeded == 0 {
		job.mu.Lock()
		job.Result = summary
		job.mu.Unlock()
		h.failJob(job, fmt.Sprintf("all %d uploads failed", summary.Total))
		return
	}

	job.SendEvent(JobEvent{Type: "completed", Data: summary})

	job.mu.Lock()
	job.Status = JobStatusCompleted
	job.CompletedAt = &now
	job.Progress = 100
	job.Result = summary
	job.mu.Unlock()
	log.Printf("Upload job %s finished: %d succeeded, %d failed", job.ID, summary.Succeeded, summary.Failed)
}

func (h *UploadHandler) failJob(job *UploadJob, message string) {
	job.SendEvent(JobEvent{Type: "job_error", Message: message})

	now := time.Now()
	job.mu.Lock()
	job.Status = JobStatusFailed
	job.Error = message
	job.CompletedAt = &now
	job.mu.Unlock()
}
