// Package metadata turns uploaded media URLs into descriptions and tags.
package metadata

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

// ErrMissingURL is returned when no media URL is supplied.
var ErrMissingURL = errors.New("media URL is required")

// Policy decides what happens when the AI call for a media kind fails.
type Policy int

const (
	// PolicySurface returns the failure to the caller.
	PolicySurface Policy = iota
	// PolicyFallback substitutes a generic result and records the error in it.
	PolicyFallback
)

func (p Policy) String() string {
	if p == PolicyFallback {
		return "fallback"
	}
	return "surface"
}

// Result is the generated metadata for one media item.
type Result struct {
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	FacesCount   *int     `json:"faces_count,omitempty"`
	Setting      string   `json:"setting,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// IsFallback reports whether the result was substituted after a failure.
func (r *Result) IsFallback() bool {
	return r.Error != ""
}

// Generator produces metadata through an AI provider.
type Generator struct {
	provider ai.Provider
	metrics  *metrics.Metrics
	policies map[database.MediaType]Policy
}

// Option configures a Generator.
type Option func(*Generator)

// WithPolicy overrides the failure policy for one media kind.
func WithPolicy(kind database.MediaType, p Policy) Option {
	return func(g *Generator) {
		g.policies[kind] = p
	}
}

// WithMetrics records call outcomes and durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// NewGenerator creates a generator. Photos surface failures and videos fall
// back to a generic result unless overridden with WithPolicy. A nil provider
// is allowed; every call then fails with ai.ErrNotConfigured.
func NewGenerator(provider ai.Provider, opts ...Option) *Generator {
	g := &Generator{
		provider: provider,
		policies: map[database.MediaType]Policy{
			database.MediaPhoto: PolicySurface,
			database.MediaVideo: PolicyFallback,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Policy returns the failure policy for kind.
func (g *Generator) Policy(kind database.MediaType) Policy {
	return g.policies[kind]
}

// Generate analyzes the media at mediaURL.
func (g *Generator) Generate(ctx context.Context, mediaURL string, kind database.MediaType) (*Result, error) {
	if mediaURL == "" {
		return nil, ErrMissingURL
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unsupported media type %q", kind)
	}

	start := time.Now()
	var result *Result
	var err error
	if kind == database.MediaVideo {
		result, err = g.analyzeVideo(ctx, mediaURL)
	} else {
		result, err = g.analyzePhoto(ctx, mediaURL)
	}

	if err == nil {
		g.metrics.ObserveAI(string(kind), metrics.OutcomeSuccess, time.Since(start))
		return result, nil
	}

	if g.Policy(kind) == PolicyFallback {
		log.Printf("Error generating %s metadata for %s, using fallback: %v", kind, mediaURL, err)
		g.metrics.ObserveAI(string(kind), metrics.OutcomeFallback, time.Since(start))
		return Fallback(kind, mediaURL, err), nil
	}

	g.metrics.ObserveAI(string(kind), metrics.OutcomeError, time.Since(start))
	return nil, err
}

func (g *Generator) analyzePhoto(ctx context.Context, imageURL string) (*Result, error) {
	if g.provider == nil {
		return nil, ai.ErrNotConfigured
	}
	analysis, err := g.provider.AnalyzePhoto(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	return &Result{
		Description: analysis.Description,
		Tags:        nonNilTags(analysis.Tags),
		FacesCount:  analysis.FacesCount,
		Setting:     analysis.Setting,
	}, nil
}

func (g *Generator) analyzeVideo(ctx context.Context, videoURL string) (*Result, error) {
	if g.provider == nil {
		return nil, ai.ErrNotConfigured
	}
	analysis, err := g.provider.AnalyzeVideo(ctx, videoURL)
	if err != nil {
		return nil, err
	}
	return &Result{
		Description:  analysis.Description,
		Tags:         nonNilTags(analysis.Tags),
		Setting:      analysis.Setting,
		ThumbnailURL: videoURL,
	}, nil
}

// Fallback builds the generic result substituted when analysis fails.
func Fallback(kind database.MediaType, mediaURL string, cause error) *Result {
	r := &Result{
		Description: constants.FallbackPhotoDescription,
		Tags:        constants.FallbackPhotoTags(),
		Setting:     constants.FallbackSetting,
	}
	if kind == database.MediaVideo {
		r.Description = constants.FallbackVideoDescription
		r.Tags = constants.FallbackVideoTags()
		r.ThumbnailURL = mediaURL
	}
	if cause != nil {
		r.Error = cause.Error()
	}
	return r
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
