package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/baptism-gallery/internal/constants"
	"github.com/kozaktomas/baptism-gallery/internal/upload"
)

// JobStatus represents the status of an async job.
type JobStatus string

// JobStatus constants define the lifecycle states of an async job.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// UploadJob represents an async batch upload.
type UploadJob struct {
	EventBroadcaster

	ID          string            `json:"id"`
	EventID     string            `json:"event_id,omitempty"`
	Status      JobStatus         `json:"status"`
	Progress    int               `json:"progress"`
	TotalFiles  int               `json:"total_files"`
	DoneFiles   int               `json:"done_files"`
	Files       []upload.Progress `json:"files"`
	Error       string            `json:"error,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Result      *upload.Summary   `json:"result,omitempty"`
}

// GetStatus returns the current job status (implements SSEJob).
func (j *UploadJob) GetStatus() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// Cancel cancels the upload job. Files already being processed finish first.
func (j *UploadJob) Cancel() {
	j.EventBroadcaster.Cancel()
	j.mu.Lock()
	j.Status = JobStatusCancelled
	j.mu.Unlock()
}

// Snapshot returns a copy safe to serialize while the job runs.
func (j *UploadJob) Snapshot() UploadJob {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return UploadJob{
		ID:          j.ID,
		EventID:     j.EventID,
		Status:      j.Status,
		Progress:    j.Progress,
		TotalFiles:  j.TotalFiles,
		DoneFiles:   j.DoneFiles,
		Files:       append([]upload.Progress(nil), j.Files...),
		Error:       j.Error,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		Result:      j.Result,
	}
}

// update records an item status change and recomputes progress.
func (j *UploadJob) update(p upload.Progress) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if p.Index < 0 || p.Index >= len(j.Files) {
		return
	}
	j.Files[p.Index] = p
	done := 0
	for _, f := range j.Files {
		if f.Status == upload.StatusComplete || f.Status == upload.StatusError {
			done++
		}
	}
	j.DoneFiles = done
	if j.TotalFiles > 0 {
		j.Progress = done * 100 / j.TotalFiles
	}
}

// JobEvent represents an event from a job.
type JobEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// EventBroadcaster provides listener management and event broadcasting for async jobs.
// Embed this in job structs to get AddListener, RemoveListener, and SendEvent methods.
type EventBroadcaster struct {
	cancel    context.CancelFunc
	listeners []chan JobEvent
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *EventBroadcaster) AddListener() chan JobEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan JobEvent, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *EventBroadcaster) RemoveListener(ch chan JobEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners.
func (b *EventBroadcaster) SendEvent(event JobEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// Cancel cancels the job via context and sends a cancelled event.
func (b *EventBroadcaster) Cancel() {
	b.mu.RLock()
	cancel := b.cancel
	b.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	b.SendEvent(JobEvent{Type: "cancelled", Message: "Job cancelled by user"})
}

func (b *EventBroadcaster) setCancel(cancel context.CancelFunc) {
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()
}

// SSEJob is the interface required by streamSSEEvents to stream job events via SSE.
type SSEJob interface {
	AddListener() chan JobEvent
	RemoveListener(ch chan JobEvent)
	GetStatus() JobStatus
}

// JobManager manages async jobs.
type JobManager struct {
	jobs map[string]*UploadJob
	mu   sync.RWMutex
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*UploadJob),
	}
}

// CreateJob registers a pending upload job for the given file names.
func (m *JobManager) CreateJob(id, eventID string, names []string) *UploadJob {
	files := make([]upload.Progress, len(names))
	for i, name := range names {
		files[i] = upload.Progress{Index: i, Name: name, Status: upload.StatusPending}
	}
	job := &UploadJob{
		ID:         id,
		EventID:    eventID,
		Status:     JobStatusPending,
		TotalFiles: len(names),
		Files:      files,
		StartedAt:  time.Now(),
	}

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	return job
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *UploadJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// DeleteJob removes a job.
func (m *JobManager) DeleteJob(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
}

// ListJobs returns all jobs, most recently started first.
func (m *JobManager) ListJobs() []*UploadJob {
	m.mu.RLock()
	jobs := make([]*UploadJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	m.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartedAt.After(jobs[j].StartedAt)
	})
	return jobs
}

// Prune drops finished jobs older than maxAge.
func (m *JobManager) Prune(maxAge time.Duration) int {
	removed := 0
	for _, job := range m.ListJobs() {
		job.mu.RLock()
		old := job.CompletedAt != nil && time.Since(*job.CompletedAt) > maxAge
		job.mu.RUnlock()
		if old {
			m.DeleteJob(job.ID)
			removed++
		}
	}
	return removed
}
