// Package search finds gallery media similar to a query image by
// describing the image and asking the model to rank stored records.
package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kozaktomas/baptism-gallery/internal/ai"
	"github.com/kozaktomas/baptism-gallery/internal/constants"
	"github.com/kozaktomas/baptism-gallery/internal/database"
	"github.com/kozaktomas/baptism-gallery/internal/metrics"
)

// ErrImageRequired is returned for an empty query image.
var ErrImageRequired = errors.New("Image data is required")

// Response is the search result returned to clients.
type Response struct {
	Results     []database.MediaRecord `json:"results"`
	Description string                 `json:"description"`
	Message     string                 `json:"message,omitempty"`
}

// Config tunes the search service.
type Config struct {
	// ResultLimit caps ranked results (default 6).
	ResultLimit int
	// MaxCandidates caps how many newest records are sent to the ranker; 0 means all.
	MaxCandidates int
	// PhotosOnly excludes videos from the candidate set.
	PhotosOnly bool
}

// Service runs search-by-image queries. It never writes to the store.
type Service struct {
	provider ai.Provider
	media    database.MediaReader
	metrics  *metrics.Metrics
	cfg      Config
}

// NewService creates a search service. A nil provider makes every search
// fail with ai.ErrNotConfigured.
func NewService(provider ai.Provider, media database.MediaReader, m *metrics.Metrics, cfg Config) *Service {
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = constants.DefaultSearchResultLimit
	}
	if cfg.MaxCandidates < 0 {
		cfg.MaxCandidates = 0
	}
	return &Service{
		provider: provider,
		media:    media,
		metrics:  m,
		cfg:      cfg,
	}
}

// SearchByImage describes the image, lists candidate records newest first
// and returns the model's top matches in ranked order. imagePayload is a
// data URL or bare base64 (treated as JPEG).
func (s *Service) SearchByImage(ctx context.Context, imagePayload string) (*Response, error) {
	if imagePayload == "" {
		return nil, ErrImageRequired
	}

	start := time.Now()
	resp, err := s.search(ctx, imagePayload)
	if err != nil {
		s.metrics.ObserveSearch(metrics.OutcomeError, 0, time.Since(start))
		return nil, err
	}
	s.metrics.ObserveSearch(metrics.OutcomeSuccess, len(resp.Results), time.Since(start))
	return resp, nil
}

func (s *Service) search(ctx context.Context, imagePayload string) (*Response, error) {
	if s.provider == nil {
		return nil, ai.ErrNotConfigured
	}

	log.Println("Analyzing image with AI...")
	description, err := s.provider.DescribeImage(ctx, ai.NormalizeImagePayload(imagePayload, ai.MaxQueryImageSize))
	if err != nil {
		return nil, err
	}

	filter := database.MediaFilter{Limit: s.cfg.MaxCandidates}
	if s.cfg.PhotosOnly {
		filter.Type = database.MediaPhoto
	}
	candidates, err := s.media.ListMedia(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	log.Printf("Found %d records in database", len(candidates))

	if len(candidates) == 0 {
		return &Response{
			Results:     []database.MediaRecord{},
			Description: description,
			Message:     constants.EmptyGalleryMessage,
		}, nil
	}

	raw, err := s.provider.Complete(ctx, BuildRankingPrompt(description, candidates, s.cfg.ResultLimit))
	if err != nil {
		return nil, err
	}

	results := ParseRankedIDs(raw, candidates, s.cfg.ResultLimit)
	log.Printf("Returning %d ranked records", len(results))

	return &Response{
		Results:     results,
		Description: description,
	}, nil
}
