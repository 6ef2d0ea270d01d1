package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/baptism-gallery/internal/ai"
	"github.com/kozaktomas/baptism-gallery/internal/config"
	"github.com/kozaktomas/baptism-gallery/internal/database"
	"github.com/kozaktomas/baptism-gallery/internal/database/postgres"
	"github.com/kozaktomas/baptism-gallery/internal/database/sqlite"
	"github.com/kozaktomas/baptism-gallery/internal/storage"
)

const defaultMemoryStorageURL = "http://localhost:8080/storage"

// newAIProvider creates the provider selected by AI_PROVIDER.
func newAIProvider(ctx context.Context, cfg *config.Config) (ai.Provider, error) {
	if err := cfg.ValidateAI(); err != nil {
		return nil, err
	}
	model := cfg.AI.Model()
	p := cfg.GetModelPricing(model).Standard
	pricing := ai.RequestPricing{Input: p.Input, Output: p.Output}

	switch cfg.AI.Provider {
	case config.ProviderGemini:
		p, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiAPIKey, model, pricing)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return ai.NewGatewayProvider(cfg.AI.GatewayURL, cfg.AI.GatewayKey, model, pricing), nil
	}
}

// openStore connects to PostgreSQL or opens a SQLite file depending on DATABASE_URL.
func openStore(ctx context.Context, cfg *config.Config) (database.Store, error) {
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, err
	}
	if cfg.Database.IsSQLite() {
		fmt.Printf("Opening SQLite database %s...\n", cfg.Database.SQLitePath())
		store, err := sqlite.Open(ctx, cfg.Database.SQLitePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite: %w", err)
		}
		return store, nil
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	store, err := postgres.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return store, nil
}

// newObjectStore creates the object storage selected by STORAGE_BACKEND.
func newObjectStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if err := cfg.ValidateStorage(); err != nil {
		return nil, err
	}
	sc := cfg.Storage
	switch sc.Backend {
	case config.StorageS3:
		s3, err := storage.NewS3Store(ctx, storage.S3Options{
			Endpoint:  sc.S3Endpoint,
			Region:    sc.S3Region,
			AccessKey: sc.S3AccessKey,
			SecretKey: sc.S3SecretKey,
			PublicURL: sc.PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		return s3, nil
	case config.StorageMemory:
		base := sc.PublicURL
		if base == "" {
			base = defaultMemoryStorageURL
		}
		fmt.Println("Warning: using in-memory object storage, uploads are lost on exit")
		return storage.NewMemStore(base), nil
	default:
		store, err := storage.NewS3Store(ctx, storage.SupabaseOptions(sc.SupabaseURL, sc.S3Region, sc.S3AccessKey, sc.S3SecretKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Supabase storage client: %w", err)
		}
		return store, nil
	}
}

func buckets(cfg *config.Config) storage.Buckets {
	return storage.Buckets{Photo: cfg.Storage.PhotoBucket, Video: cfg.Storage.VideoBucket}
}
