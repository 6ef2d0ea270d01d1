// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Search constants
const (
	// DefaultSearchResultLimit is the maximum number of ranked results returned by image search
	DefaultSearchResultLimit = 6

	// NoDescription and NoTags stand in for empty fields in the ranking prompt
	NoDescription = "Sem descrição"
	NoTags        = "Sem tags"

	// EmptyGalleryMessage is returned when the store has no records to rank
	EmptyGalleryMessage = "Nenhuma foto encontrada no banco de dados ainda."
)

// Upload constants
const (
	// DefaultUploadConcurrency is the number of files uploaded and analyzed in parallel
	DefaultUploadConcurrency = 3

	// MaxPhotoSize is the maximum accepted photo size in bytes (50MB)
	MaxPhotoSize = 50 << 20

	// MaxVideoSize is the maximum accepted video size in bytes (500MB)
	MaxVideoSize = 500 << 20

	// GeneralFolder is the object key prefix for uploads without an event
	GeneralFolder = "general"
)

// Fallback metadata
const (
	FallbackVideoDescription = "Vídeo de batizado"
	FallbackPhotoDescription = "Foto de batizado"
	FallbackSetting          = "church"
)

// FallbackVideoTags returns the generic tags used when video analysis fails.
func FallbackVideoTags() []string {
	return []string{"batizado", "vídeo"}
}

// FallbackPhotoTags returns the generic tags used when photo analysis fails
// under a fallback policy.
func FallbackPhotoTags() []string {
	return []string{"batizado", "foto"}
}

// Handler constants
const (
	// MaxRequestBodySize bounds JSON request bodies (search payloads carry base64 images)
	MaxRequestBodySize = 20 << 20

	// MaxMultipartMemory is the in-memory threshold for multipart uploads
	MaxMultipartMemory = 32 << 20

	// EventChannelBuffer is the buffer size for job event channels
	EventChannelBuffer = 100
)
