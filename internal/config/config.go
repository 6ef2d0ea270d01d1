package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prices.yaml
var pricesYAML []byte

// Supported AI providers.
const (
	ProviderGateway = "gateway"
	ProviderGemini  = "gemini"
)

// Supported storage backends.
const (
	StorageSupabase = "supabase"
	StorageS3       = "s3"
	StorageMemory   = "memory"
)

const (
	defaultGatewayURL   = "https://ai.gateway.lovable.dev/v1/"
	defaultGatewayModel = "google/gemini-2.5-flash"
	defaultGeminiModel  = "gemini-2.5-flash"
	defaultPhotoBucket  = "baptism-photos"
	defaultVideoBucket  = "baptism-videos"
)

type Config struct {
	AI       AIConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Search   SearchConfig
	Upload   UploadConfig
	Web      WebConfig
	Prices   PricesConfig
}

type AIConfig struct {
	Provider string // "gateway" (default) or "gemini"

	// OpenAI-compatible chat completion gateway.
	GatewayURL   string
	GatewayKey   string
	GatewayModel string

	// Direct Gemini API access.
	GeminiAPIKey string
	GeminiModel  string
}

// Model returns the model name used by the selected provider.
func (c *AIConfig) Model() string {
	if c.Provider == ProviderGemini {
		return c.GeminiModel
	}
	return c.GatewayModel
}

// APIKey returns the credential used by the selected provider.
func (c *AIConfig) APIKey() string {
	if c.Provider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.GatewayKey
}

type DatabaseConfig struct {
	URL          string // postgres://... or sqlite:path/to/file.db
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// IsSQLite reports whether the database URL points at an embedded SQLite file.
func (c *DatabaseConfig) IsSQLite() bool {
	return strings.HasPrefix(c.URL, "sqlite:") || strings.HasPrefix(c.URL, "file:")
}

// SQLitePath returns the file path portion of a sqlite: URL.
func (c *DatabaseConfig) SQLitePath() string {
	return strings.TrimPrefix(c.URL, "sqlite:")
}

type StorageConfig struct {
	Backend     string // "supabase" (default), "s3" or "memory"
	PhotoBucket string
	VideoBucket string

	// Supabase project URL; objects go through its S3-compatible endpoint
	// using the S3 credentials below.
	SupabaseURL string

	// S3-compatible object storage.
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	PublicURL   string // base URL used to build public object links (e.g., https://cdn.example.com)
}

type SearchConfig struct {
	ResultLimit   int  // maximum ranked results (default 6)
	MaxCandidates int  // newest records sent to the ranker, 0 means all
	PhotosOnly    bool // exclude videos from the candidate set
}

type UploadConfig struct {
	Concurrency  int   // parallel uploads (default 3)
	MaxPhotoSize int64 // bytes
	MaxVideoSize int64 // bytes
}

type WebConfig struct {
	AdminToken string // bearer token for admin routes; empty disables them
}

type PricesConfig struct {
	Models map[string]ModelPricing `yaml:"models"`
}

type ModelPricing struct {
	Standard RequestPricing `yaml:"standard"`
}

type RequestPricing struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envBool reports whether an environment variable is set to a true value.
func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

// envString returns the first non-empty value among the given env vars, or defaultVal.
func envString(defaultVal string, keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return defaultVal
}

func Load() *Config {
	var prices PricesConfig
	if err := yaml.Unmarshal(pricesYAML, &prices); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded prices.yaml: " + err.Error())
	}

	return &Config{
		AI: AIConfig{
			Provider:     envString(ProviderGateway, "AI_PROVIDER"),
			GatewayURL:   envString(defaultGatewayURL, "AI_GATEWAY_URL"),
			GatewayKey:   envString("", "AI_GATEWAY_API_KEY", "LOVABLE_API_KEY"),
			GatewayModel: envString(defaultGatewayModel, "AI_GATEWAY_MODEL"),
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			GeminiModel:  envString(defaultGeminiModel, "GEMINI_MODEL"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Storage: StorageConfig{
			Backend:     envString(StorageSupabase, "STORAGE_BACKEND"),
			PhotoBucket: envString(defaultPhotoBucket, "STORAGE_PHOTO_BUCKET"),
			VideoBucket: envString(defaultVideoBucket, "STORAGE_VIDEO_BUCKET"),
			SupabaseURL: os.Getenv("SUPABASE_URL"),
			S3Endpoint:  os.Getenv("S3_ENDPOINT"),
			S3Region:    envString("us-east-1", "SUPABASE_S3_REGION", "S3_REGION"),
			S3AccessKey: envString("", "SUPABASE_S3_ACCESS_KEY_ID", "S3_ACCESS_KEY_ID"),
			S3SecretKey: envString("", "SUPABASE_S3_SECRET_ACCESS_KEY", "S3_SECRET_ACCESS_KEY"),
			PublicURL:   os.Getenv("STORAGE_PUBLIC_URL"),
		},
		Search: SearchConfig{
			ResultLimit:   envInt("SEARCH_RESULT_LIMIT", 6),
			MaxCandidates: envInt("SEARCH_MAX_CANDIDATES", 0),
			PhotosOnly:    envBool("SEARCH_PHOTOS_ONLY"),
		},
		Upload: UploadConfig{
			Concurrency:  envInt("UPLOAD_CONCURRENCY", 3),
			MaxPhotoSize: int64(envInt("UPLOAD_MAX_PHOTO_MB", 50)) << 20,
			MaxVideoSize: int64(envInt("UPLOAD_MAX_VIDEO_MB", 500)) << 20,
		},
		Web: WebConfig{
			AdminToken: os.Getenv("ADMIN_TOKEN"),
		},
		Prices: prices,
	}
}

// ValidateAI checks that the selected AI provider is known and has credentials.
func (c *Config) ValidateAI() error {
	switch c.AI.Provider {
	case ProviderGateway:
		if c.AI.GatewayKey == "" {
			return errors.New("AI_GATEWAY_API_KEY (or LOVABLE_API_KEY) is required for the gateway provider")
		}
		if c.AI.GatewayURL == "" {
			return errors.New("AI_GATEWAY_URL must not be empty")
		}
	case ProviderGemini:
		if c.AI.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini provider")
		}
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q (expected %q or %q)", c.AI.Provider, ProviderGateway, ProviderGemini)
	}
	return nil
}

// ValidateDatabase checks that a database URL is configured.
func (c *Config) ValidateDatabase() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	return nil
}

// ValidateStorage checks that the selected storage backend has what it needs.
func (c *Config) ValidateStorage() error {
	switch c.Storage.Backend {
	case StorageSupabase:
		if c.Storage.SupabaseURL == "" {
			return errors.New("SUPABASE_URL is required for supabase storage")
		}
		if c.Storage.S3AccessKey == "" || c.Storage.S3SecretKey == "" {
			return errors.New("SUPABASE_S3_ACCESS_KEY_ID and SUPABASE_S3_SECRET_ACCESS_KEY are required for supabase storage")
		}
	case StorageS3:
		if c.Storage.S3AccessKey == "" || c.Storage.S3SecretKey == "" {
			return errors.New("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required for s3 storage")
		}
		if c.Storage.PublicURL == "" {
			return errors.New("STORAGE_PUBLIC_URL is required for s3 storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	return nil
}

// Validate runs every validation step and joins the failures.
func (c *Config) Validate() error {
	return errors.Join(c.ValidateAI(), c.ValidateDatabase(), c.ValidateStorage())
}

// GetModelPricing returns pricing for a specific model, with fallback defaults
func (c *Config) GetModelPricing(modelName string) ModelPricing {
	if pricing, ok := c.Prices.Models[modelName]; ok {
		return pricing
	}
	return ModelPricing{}
}
