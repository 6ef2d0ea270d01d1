// Package mock provides a scriptable ai.Provider for tests.
package mock

import (
	"context"
	"sync"

	"github.com/kozaktomas/baptism-gallery/internal/ai"
)

// Provider is an ai.Provider whose replies are set per call type.
type Provider struct {
	mu sync.Mutex

	Photo       *ai.PhotoAnalysis
	Video       *ai.VideoAnalysis
	Description string
	Ranking     string

	PhotoError    error
	VideoError    error
	DescribeError error
	CompleteError error

	// PhotoFunc, when set, replaces the canned photo reply.
	PhotoFunc func(ctx context.Context, imageURL string) (*ai.PhotoAnalysis, error)

	// Usage is returned by GetUsage and cleared by ResetUsage.
	Usage ai.Usage

	// Call tracking
	PhotoCalls    []string
	VideoCalls    []string
	DescribeCalls []string
	Prompts       []string
}

var _ ai.Provider = (*Provider)(nil)

// NewProvider returns a provider answering with generic baptism metadata.
func NewProvider() *Provider {
	return &Provider{
		Photo: &ai.PhotoAnalysis{
			Description: "Batismo na igreja",
			Tags:        []string{"batismo", "igreja"},
			FacesCount:  ptr(2),
			Setting:     "church",
		},
		Video: &ai.VideoAnalysis{
			Description: "Cerimônia de batismo",
			Tags:        []string{"batismo", "cerimônia"},
			Setting:     "church",
		},
		Description: "Bebê de branco sendo batizado",
	}
}

func (p *Provider) Name() string  { return "mock" }
func (p *Provider) Model() string { return "mock-model" }

func (p *Provider) AnalyzePhoto(ctx context.Context, imageURL string) (*ai.PhotoAnalysis, error) {
	p.mu.Lock()
	p.PhotoCalls = append(p.PhotoCalls, imageURL)
	fn := p.PhotoFunc
	p.mu.Unlock()
	if fn != nil {
		return fn(ctx, imageURL)
	}
	if p.PhotoError != nil {
		return nil, p.PhotoError
	}
	c := *p.Photo
	return &c, nil
}

func (p *Provider) AnalyzeVideo(ctx context.Context, videoURL string) (*ai.VideoAnalysis, error) {
	p.mu.Lock()
	p.VideoCalls = append(p.VideoCalls, videoURL)
	p.mu.Unlock()
	if p.VideoError != nil {
		return nil, p.VideoError
	}
	c := *p.Video
	return &c, nil
}

func (p *Provider) DescribeImage(ctx context.Context, imageURL string) (string, error) {
	p.mu.Lock()
	p.DescribeCalls = append(p.DescribeCalls, imageURL)
	p.mu.Unlock()
	if p.DescribeError != nil {
		return "", p.DescribeError
	}
	return p.Description, nil
}

func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	p.Prompts = append(p.Prompts, prompt)
	p.mu.Unlock()
	if p.CompleteError != nil {
		return "", p.CompleteError
	}
	return p.Ranking, nil
}

// PhotoCallCount returns the number of AnalyzePhoto calls.
func (p *Provider) PhotoCallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.PhotoCalls)
}

func (p *Provider) GetUsage() ai.Usage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Usage
}

func (p *Provider) ResetUsage() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Usage = ai.Usage{}
}

func ptr[T any](v T) *T {
	return &v
}
