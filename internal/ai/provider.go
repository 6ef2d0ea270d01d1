package ai

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotConfigured is returned when no AI provider credentials are available.
	ErrNotConfigured = errors.New("AI provider not configured")
	// ErrNoResponse is returned when the upstream reply carries no choices or candidates.
	ErrNoResponse = errors.New("no response from AI gateway")
	// ErrNoToolCall is returned when the upstream reply lacks the requested structured output.
	ErrNoToolCall = errors.New("AI did not return structured data")
)

// Provider defines the interface for AI analysis backends.
type Provider interface {
	Name() string
	Model() string

	// AnalyzePhoto returns structured metadata for the photo at imageURL.
	AnalyzePhoto(ctx context.Context, imageURL string) (*PhotoAnalysis, error)
	// AnalyzeVideo returns structured metadata for the video at videoURL.
	AnalyzeVideo(ctx context.Context, videoURL string) (*VideoAnalysis, error)
	// DescribeImage returns a free-text description of an image given as URL or data URL.
	DescribeImage(ctx context.Context, imageURL string) (string, error)
	// Complete sends a single text prompt and returns the raw reply text.
	Complete(ctx context.Context, prompt string) (string, error)

	// Usage tracking.
	GetUsage() Usage
	ResetUsage()
}

// PhotoAnalysis is the structured output of the photo analysis tool.
type PhotoAnalysis struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	FacesCount  *int     `json:"faces_count,omitempty"`
	Setting     string   `json:"setting"`
}

// VideoAnalysis is the structured output of the video analysis tool.
type VideoAnalysis struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Setting     string   `json:"setting,omitempty"`
}

// Usage tracks token usage and calculates cost.
type Usage struct {
	Requests     int     `json:"requests"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalCost    float64 `json:"total_cost"` // in USD
}

// RequestPricing holds input/output prices per 1M tokens
type RequestPricing struct {
	Input  float64
	Output float64
}

// usageTracker is shared by providers. Calls arrive from the upload pool
// concurrently, so every access goes through mu.
type usageTracker struct {
	mu      sync.Mutex
	usage   Usage
	pricing RequestPricing
}

func (t *usageTracker) trackUsage(inputTokens, outputTokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.usage.Requests++
	t.usage.InputTokens += int(inputTokens)
	t.usage.OutputTokens += int(outputTokens)
	t.usage.TotalCost += float64(inputTokens) / 1_000_000 * t.pricing.Input
	t.usage.TotalCost += float64(outputTokens) / 1_000_000 * t.pricing.Output
}

func (t *usageTracker) GetUsage() Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.usage
}

func (t *usageTracker) ResetUsage() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.usage = Usage{}
}
