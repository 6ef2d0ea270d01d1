package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// GatewayProvider talks to any OpenAI-compatible chat completion gateway.
type GatewayProvider struct {
	usageTracker
	client *openai.Client
	model  string
}

// NewGatewayProvider creates a provider for the gateway at baseURL.
// Requests are never retried; the caller's context bounds every call.
func NewGatewayProvider(baseURL, apiKey, model string, pricing RequestPricing, opts ...option.RequestOption) *GatewayProvider {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	reqOpts := append([]option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	client := openai.NewClient(reqOpts...)
	return &GatewayProvider{
		usageTracker: usageTracker{pricing: pricing},
		client:       &client,
		model:        model,
	}
}

func (p *GatewayProvider) Name() string {
	return "gateway"
}

func (p *GatewayProvider) Model() string {
	return p.model
}

func (p *GatewayProvider) AnalyzePhoto(ctx context.Context, imageURL string) (*PhotoAnalysis, error) {
	args, err := p.callTool(ctx, PhotoAnalysisPrompt, imageURL, PhotoToolName, photoToolDescription, photoToolParameters())
	if err != nil {
		return nil, err
	}

	var analysis PhotoAnalysis
	if err := json.Unmarshal([]byte(args), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse photo analysis JSON: %w", err)
	}
	if analysis.Tags == nil {
		analysis.Tags = []string{}
	}
	return &analysis, nil
}

func (p *GatewayProvider) AnalyzeVideo(ctx context.Context, videoURL string) (*VideoAnalysis, error) {
	// The gateway has no video content part; the URL travels as an image reference.
	args, err := p.callTool(ctx, VideoAnalysisPrompt, videoURL, VideoToolName, videoToolDescription, videoToolParameters())
	if err != nil {
		return nil, err
	}

	var analysis VideoAnalysis
	if err := json.Unmarshal([]byte(args), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse video analysis JSON: %w", err)
	}
	if analysis.Tags == nil {
		analysis.Tags = []string{}
	}
	return &analysis, nil
}

func (p *GatewayProvider) DescribeImage(ctx context.Context, imageURL string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{imageMessage(DescribeImagePrompt, imageURL)},
	})
	if err != nil {
		return "", fmt.Errorf("AI analysis failed: %w", err)
	}
	p.trackResponse(resp)

	// Empty content is not an error.
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *GatewayProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(prompt),
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("AI ranking failed: %w", err)
	}
	p.trackResponse(resp)

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// callTool sends prompt plus media reference and forces the named function call.
// It returns the raw JSON arguments of the first tool call.
func (p *GatewayProvider) callTool(ctx context.Context, prompt, mediaURL, toolName, toolDescription string, parameters map[string]any) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{imageMessage(prompt, mediaURL)},
		Tools: []openai.ChatCompletionToolParam{
			{
				Function: shared.FunctionDefinitionParam{
					Name:        toolName,
					Description: openai.String(toolDescription),
					Parameters:  shared.FunctionParameters(parameters),
				},
			},
		},
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: toolName},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("AI gateway error: %w", err)
	}
	p.trackResponse(resp)

	if len(resp.Choices) == 0 {
		return "", ErrNoResponse
	}
	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 || calls[0].Function.Arguments == "" {
		return "", ErrNoToolCall
	}
	return calls[0].Function.Arguments, nil
}

func (p *GatewayProvider) trackResponse(resp *openai.ChatCompletion) {
	p.trackUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
}

// imageMessage builds a single user message carrying a text part and an image_url part.
func imageMessage(text, url string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
					openai.TextContentPart(text),
					openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
						URL: url,
					}),
				},
			},
		},
	}
}
