// Package upload stores files, generates their metadata and records them
// in the gallery with a bounded pool of workers.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kozaktomas/baptism-gallery/internal/constants"
	"github.com/kozaktomas/baptism-gallery/internal/database"
	"github.com/kozaktomas/baptism-gallery/internal/metadata"
	"github.com/kozaktomas/baptism-gallery/internal/metrics"
	"github.com/kozaktomas/baptism-gallery/internal/storage"
)

// Status is the lifecycle state of one uploaded file.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusAnalyzing Status = "analyzing"
	StatusSaving    Status = "saving"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
)

var (
	// ErrUnsupportedType is returned for files that are neither images nor videos.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrFileTooLarge is returned for files over the per-kind size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// Item is one file to upload.
type Item struct {
	Name        string
	Size        int64
	ContentType string
	// Kind is derived from ContentType or the file extension when empty.
	Kind database.MediaType
	Open func() (io.ReadCloser, error)
}

// Options apply to every item of a run.
type Options struct {
	EventID     string
	EventDate   *database.Date
	Description string
	Tags        []string
	// OnProgress is called on every status change. It may be called from
	// several goroutines at once.
	OnProgress func(Progress)
}

// Progress reports a status change of one item.
type Progress struct {
	Index  int                   `json:"index"`
	Name   string                `json:"name"`
	Status Status                `json:"status"`
	Error  string                `json:"error,omitempty"`
	Record *database.MediaRecord `json:"record,omitempty"`
}

// ItemResult is the final state of one item.
type ItemResult struct {
	Name     string                `json:"name"`
	Status   Status                `json:"status"`
	Error    string                `json:"error,omitempty"`
	Record   *database.MediaRecord `json:"record,omitempty"`
	Fallback bool                  `json:"fallback,omitempty"`
}

// Summary is the outcome of a run, with Items in input order.
type Summary struct {
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Items     []ItemResult `json:"items"`
}

// Config tunes the orchestrator.
type Config struct {
	Concurrency  int
	MaxPhotoSize int64
	MaxVideoSize int64
	Buckets      storage.Buckets
}

// Orchestrator runs uploads.
type Orchestrator struct {
	store     storage.Store
	generator *metadata.Generator
	media     database.MediaWriter
	metrics   *metrics.Metrics
	cfg       Config
}

// New creates an orchestrator. Zero config values fall back to the defaults
// of 3 workers, 50MB photos and 500MB videos.
func New(store storage.Store, generator *metadata.Generator, media database.MediaWriter, m *metrics.Metrics, cfg Config) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = constants.DefaultUploadConcurrency
	}
	if cfg.MaxPhotoSize <= 0 {
		cfg.MaxPhotoSize = constants.MaxPhotoSize
	}
	if cfg.MaxVideoSize <= 0 {
		cfg.MaxVideoSize = constants.MaxVideoSize
	}
	return &Orchestrator{
		store:     store,
		generator: generator,
		media:     media,
		metrics:   m,
		cfg:       cfg,
	}
}

// extensionTypes covers camera formats missing from the mime package's builtin table.
var extensionTypes = map[string]string{
	".heic": "image/heic",
	".heif": "image/heif",
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".3gp":  "video/3gpp",
}

func typeByExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return extensionTypes[ext]
}

// KindFor derives the media kind from a content type, falling back to the
// file extension.
func KindFor(contentType, name string) (database.MediaType, bool) {
	ct := contentType
	if ct == "" || ct == "application/octet-stream" {
		ct = typeByExtension(name)
	}
	switch {
	case strings.HasPrefix(ct, "image/"):
		return database.MediaPhoto, true
	case strings.HasPrefix(ct, "video/"):
		return database.MediaVideo, true
	}
	return "", false
}

// Validate checks the item's kind and size.
func (o *Orchestrator) Validate(item *Item) error {
	if item.Kind == "" {
		kind, ok := KindFor(item.ContentType, item.Name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedType, item.Name)
		}
		item.Kind = kind
	}
	if !item.Kind.Valid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, item.Name)
	}

	limit := o.cfg.MaxPhotoSize
	if item.Kind == database.MediaVideo {
		limit = o.cfg.MaxVideoSize
	}
	if item.Size > limit {
		return fmt.Errorf("%w: %s is %d MB, limit is %d MB", ErrFileTooLarge, item.Name, item.Size>>20, limit>>20)
	}
	return nil
}

// Run uploads items with at most Config.Concurrency in flight. Workers pull
// the next item as soon as one finishes. After ctx is cancelled, items that
// have not started are marked as errored.
func (o *Orchestrator) Run(ctx context.Context, items []Item, opts Options) *Summary {
	summary := &Summary{
		Total: len(items),
		Items: make([]ItemResult, len(items)),
	}
	if len(items) == 0 {
		return summary
	}

	report := func(p Progress) {
		if opts.OnProgress != nil {
			opts.OnProgress(p)
		}
	}
	for i := range items {
		summary.Items[i] = ItemResult{Name: items[i].Name, Status: StatusPending}
		report(Progress{Index: i, Name: items[i].Name, Status: StatusPending})
	}

	baseIndex := 0
	if opts.EventID != "" {
		next, err := o.media.NextOrderIndex(ctx, opts.EventID)
		if err != nil {
			log.Printf("Error reading order index for event %s: %v", opts.EventID, err)
			for i := range items {
				o.fail(summary, i, items[i], fmt.Errorf("failed to read order index: %w", err), report)
			}
			summary.Failed = len(items)
			return summary
		}
		baseIndex = next
	}

	sem := make(chan struct{}, o.cfg.Concurrency)
	var wg sync.WaitGroup

	for i := range items {
		wg.Add(1)
		go func(idx int, item Item) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				o.fail(summary, idx, item, ctx.Err(), report)
				return
			}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				o.fail(summary, idx, item, ctx.Err(), report)
				return
			}

			result := o.process(ctx, idx, baseIndex+idx, item, opts, report)
			summary.Items[idx] = result
		}(i, items[i])
	}
	wg.Wait()

	for _, r := range summary.Items {
		if r.Status == StatusComplete {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return summary
}

func (o *Orchestrator) fail(summary *Summary, idx int, item Item, err error, report func(Progress)) {
	summary.Items[idx] = ItemResult{Name: item.Name, Status: StatusError, Error: err.Error()}
	kind := string(item.Kind)
	if kind == "" {
		kind = "unknown"
	}
	o.metrics.ObserveUpload(kind, metrics.OutcomeError, item.Size)
	report(Progress{Index: idx, Name: item.Name, Status: StatusError, Error: err.Error()})
}

func (o *Orchestrator) process(ctx context.Context, idx, orderIndex int, item Item, opts Options, report func(Progress)) ItemResult {
	failed := func(err error) ItemResult {
		log.Printf("Error uploading %s: %v", item.Name, err)
		kind := string(item.Kind)
		if kind == "" {
			kind = "unknown"
		}
		o.metrics.ObserveUpload(kind, metrics.OutcomeError, item.Size)
		report(Progress{Index: idx, Name: item.Name, Status: StatusError, Error: err.Error()})
		return ItemResult{Name: item.Name, Status: StatusError, Error: err.Error()}
	}

	if err := o.Validate(&item); err != nil {
		return failed(err)
	}

	report(Progress{Index: idx, Name: item.Name, Status: StatusUploading})
	bucket := o.cfg.Buckets.For(item.Kind)
	key := storage.ObjectKey(opts.EventID, item.Name)
	publicURL, err := o.put(ctx, bucket, key, item)
	if err != nil {
		return failed(err)
	}

	report(Progress{Index: idx, Name: item.Name, Status: StatusAnalyzing})
	meta, err := o.generator.Generate(ctx, publicURL, item.Kind)
	if err != nil {
		o.cleanup(bucket, key)
		return failed(fmt.Errorf("metadata generation failed: %w", err))
	}

	report(Progress{Index: idx, Name: item.Name, Status: StatusSaving})
	rec := buildRecord(publicURL, item, meta, opts, orderIndex)
	if err := o.media.InsertMedia(ctx, rec); err != nil {
		o.cleanup(bucket, key)
		return failed(fmt.Errorf("failed to save record: %w", err))
	}

	o.metrics.ObserveUpload(string(item.Kind), metrics.OutcomeSuccess, item.Size)
	report(Progress{Index: idx, Name: item.Name, Status: StatusComplete, Record: rec})
	return ItemResult{
		Name:     item.Name,
		Status:   StatusComplete,
		Record:   rec,
		Fallback: meta.IsFallback(),
	}
}

func (o *Orchestrator) put(ctx context.Context, bucket, key string, item Item) (string, error) {
	if item.Open == nil {
		return "", fmt.Errorf("no content for %s", item.Name)
	}
	body, err := item.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", item.Name, err)
	}
	defer body.Close()

	contentType := item.ContentType
	if contentType == "" {
		contentType = typeByExtension(item.Name)
	}
	publicURL, err := o.store.Put(ctx, bucket, key, contentType, body, item.Size)
	if err != nil {
		return "", fmt.Errorf("storage upload failed: %w", err)
	}
	return publicURL, nil
}

// cleanup removes an object whose record could not be created.
func (o *Orchestrator) cleanup(bucket, key string) {
	if err := o.store.Delete(context.Background(), bucket, key); err != nil {
		log.Printf("Warning: failed to remove orphaned object %s/%s: %v", bucket, key, err)
	}
}

func buildRecord(publicURL string, item Item, meta *metadata.Result, opts Options, orderIndex int) *database.MediaRecord {
	description := meta.Description
	if strings.TrimSpace(opts.Description) != "" {
		description = strings.TrimSpace(opts.Description)
	}
	tags := meta.Tags
	if len(opts.Tags) > 0 {
		tags = append([]string(nil), opts.Tags...)
	}
	if tags == nil {
		tags = []string{}
	}

	return &database.MediaRecord{
		EventID:       opts.EventID,
		URL:           publicURL,
		MediaType:     item.Kind,
		ThumbnailURL:  meta.ThumbnailURL,
		Description:   description,
		AIDescription: meta.Description,
		Tags:          tags,
		FacesCount:    meta.FacesCount,
		Setting:       meta.Setting,
		FileSize:      item.Size,
		OrderIndex:    orderIndex,
		EventDate:     opts.EventDate,
	}
}

// ParseTags splits a comma-separated tag list, trimming and dropping empties.
func ParseTags(s string) []string {
	tags := []string{}
	for t := range strings.SplitSeq(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
