package ai

import (
	_ "embed"
	"strings"
)

//go:embed prompts/photo_analysis.txt
var photoAnalysisPromptRaw string

//go:embed prompts/video_analysis.txt
var videoAnalysisPromptRaw string

//go:embed prompts/describe_image.txt
var describeImagePromptRaw string

var (
	PhotoAnalysisPrompt = strings.TrimSpace(photoAnalysisPromptRaw)
	VideoAnalysisPrompt = strings.TrimSpace(videoAnalysisPromptRaw)
	DescribeImagePrompt = strings.TrimSpace(describeImagePromptRaw)
)

// Tool names requested from the gateway via tool_choice.
const (
	PhotoToolName = "analyze_baptism_photo"
	VideoToolName = "analyze_video"
)

const (
	photoToolDescription = "Análise detalhada de foto de batismo"
	videoToolDescription = "Analyze a baptism video and return structured metadata"

	photoDescriptionField = "Descrição detalhada da foto em português, incluindo pessoas, ambiente, emoções e momento capturado"
	photoTagsField        = "Array de palavras-chave relevantes em português (ex: batismo, igreja, família, bebê, padre, água benta)"
	photoFacesField       = "Número estimado de rostos visíveis na foto"
	photoSettingField     = "Tipo de ambiente (ex: igreja, salão de festas, ao ar livre, residência)"

	videoDescriptionField = "Detailed description in Portuguese"
	videoTagsField        = "Relevant tags in Portuguese"
	videoSettingField     = "Location type (church, home, outdoor, etc)"
)

// photoToolParameters is the JSON schema of the photo analysis function.
func photoToolParameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string", "description": photoDescriptionField},
			"tags": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": photoTagsField,
			},
			"faces_count": map[string]any{"type": "integer", "description": photoFacesField},
			"setting":     map[string]any{"type": "string", "description": photoSettingField},
		},
		"required":             []string{"description", "tags", "faces_count", "setting"},
		"additionalProperties": false,
	}
}

// videoToolParameters is the JSON schema of the video analysis function.
func videoToolParameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string", "description": videoDescriptionField},
			"tags": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": videoTagsField,
			},
			"setting": map[string]any{"type": "string", "description": videoSettingField},
		},
		"required": []string{"description", "tags"},
	}
}
