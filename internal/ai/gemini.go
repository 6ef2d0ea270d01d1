package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// maxFetchedImageBytes bounds photo downloads performed before inlining.
const maxFetchedImageBytes = 50 << 20

type GeminiProvider struct {
	usageTracker
	client     *genai.Client
	model      string
	httpClient *http.Client
}

func NewGeminiProvider(ctx context.Context, apiKey, model string, pricing RequestPricing) (*GeminiProvider, error) {
	return newGeminiProvider(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model, pricing)
}

func newGeminiProvider(ctx context.Context, cc *genai.ClientConfig, model string, pricing RequestPricing) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		usageTracker: usageTracker{pricing: pricing},
		client:       client,
		model:        model,
		httpClient:   http.DefaultClient,
	}, nil
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) Model() string {
	return p.model
}

func (p *GeminiProvider) AnalyzePhoto(ctx context.Context, imageURL string) (*PhotoAnalysis, error) {
	part, err := p.imagePart(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	content, err := p.generate(ctx, []*genai.Part{{Text: PhotoAnalysisPrompt}, part}, photoSchema())
	if err != nil {
		return nil, err
	}

	var analysis PhotoAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse photo analysis JSON: %w (response: %s)", err, content)
	}
	if analysis.Tags == nil {
		analysis.Tags = []string{}
	}
	return &analysis, nil
}

func (p *GeminiProvider) AnalyzeVideo(ctx context.Context, videoURL string) (*VideoAnalysis, error) {
	part := &genai.Part{FileData: &genai.FileData{FileURI: videoURL, MIMEType: videoMIMEType(videoURL)}}

	content, err := p.generate(ctx, []*genai.Part{{Text: VideoAnalysisPrompt}, part}, videoSchema())
	if err != nil {
		return nil, err
	}

	var analysis VideoAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse video analysis JSON: %w (response: %s)", err, content)
	}
	if analysis.Tags == nil {
		analysis.Tags = []string{}
	}
	return &analysis, nil
}

func (p *GeminiProvider) DescribeImage(ctx context.Context, imageURL string) (string, error) {
	part, err := p.imagePart(ctx, imageURL)
	if err != nil {
		return "", err
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: DescribeImagePrompt}, part}},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("AI analysis failed: %w", err)
	}
	p.trackResult(result)
	return result.Text(), nil
}

func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("AI ranking failed: %w", err)
	}
	p.trackResult(result)
	return result.Text(), nil
}

// generate runs a structured-output request and returns the JSON text.
func (p *GeminiProvider) generate(ctx context.Context, parts []*genai.Part, schema *genai.Schema) (string, error) {
	contents := []*genai.Content{{Role: "user", Parts: parts}}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	p.trackResult(result)

	if len(result.Candidates) == 0 {
		return "", ErrNoResponse
	}
	content := result.Text()
	if content == "" {
		return "", ErrNoToolCall
	}
	return content, nil
}

func (p *GeminiProvider) trackResult(result *genai.GenerateContentResponse) {
	if result.UsageMetadata != nil {
		p.trackUsage(int64(result.UsageMetadata.PromptTokenCount), int64(result.UsageMetadata.CandidatesTokenCount))
	}
}

// imagePart inlines the image behind a data URL or an http(s) URL, downscaled to save tokens.
func (p *GeminiProvider) imagePart(ctx context.Context, imageURL string) (*genai.Part, error) {
	var data []byte
	if strings.HasPrefix(imageURL, "data:") {
		_, decoded, err := ParseDataURL(imageURL)
		if err != nil {
			return nil, err
		}
		data = decoded
	} else {
		fetched, err := p.fetch(ctx, imageURL)
		if err != nil {
			return nil, err
		}
		data = fetched
	}

	resized, err := ResizeImage(data, MaxQueryImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to resize image: %w", err)
	}
	return &genai.Part{InlineData: &genai.Blob{Data: resized, MIMEType: "image/jpeg"}}, nil
}

func (p *GeminiProvider) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchedImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

func photoSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"description": {Type: genai.TypeString, Description: photoDescriptionField},
			"tags":        {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: photoTagsField},
			"faces_count": {Type: genai.TypeInteger, Description: photoFacesField},
			"setting":     {Type: genai.TypeString, Description: photoSettingField},
		},
		Required: []string{"description", "tags", "faces_count", "setting"},
	}
}

func videoSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"description": {Type: genai.TypeString, Description: videoDescriptionField},
			"tags":        {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: videoTagsField},
			"setting":     {Type: genai.TypeString, Description: videoSettingField},
		},
		Required: []string{"description", "tags"},
	}
}

func videoMIMEType(url string) string {
	lower := strings.ToLower(url)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	switch {
	case strings.HasSuffix(lower, ".mov"):
		return "video/quicktime"
	case strings.HasSuffix(lower, ".webm"):
		return "video/webm"
	case strings.HasSuffix(lower, ".avi"):
		return "video/x-msvideo"
	default:
		return "video/mp4"
	}
}
