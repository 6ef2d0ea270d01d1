package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/baptism-gallery/internal/metadata"
	"github.com/kozaktomas/baptism-gallery/internal/search"
	"github.com/kozaktomas/baptism-gallery/internal/storage"
	"github.com/kozaktomas/baptism-gallery/internal/upload"
	"github.com/kozaktomas/baptism-gallery/internal/web/handlers"
	"github.com/kozaktomas/baptism-gallery/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	cfg := s.config
	deps := s.deps
	buckets := storage.Buckets{Photo: cfg.Storage.PhotoBucket, Video: cfg.Storage.VideoBucket}

	generator := metadata.NewGenerator(deps.Provider, metadata.WithMetrics(deps.Metrics))
	searchService := search.NewService(deps.Provider, deps.Store, deps.Metrics, search.Config{
		ResultLimit:   cfg.Search.ResultLimit,
		MaxCandidates: cfg.Search.MaxCandidates,
		PhotosOnly:    cfg.Search.PhotosOnly,
	})
	orchestrator := upload.New(deps.Objects, generator, deps.Store, deps.Metrics, upload.Config{
		Concurrency:  cfg.Upload.Concurrency,
		MaxPhotoSize: cfg.Upload.MaxPhotoSize,
		MaxVideoSize: cfg.Upload.MaxVideoSize,
		Buckets:      buckets,
	})

	// Create handlers
	statsHandler := handlers.NewStatsHandler(deps.Store, deps.Store)
	configHandler := handlers.NewConfigHandler(cfg, deps.Provider, deps.Objects)
	eventsHandler := handlers.NewEventsHandler(deps.Store, deps.Objects, buckets, statsHandler)
	mediaHandler := handlers.NewMediaHandler(deps.Store, deps.Objects, buckets, statsHandler)
	metadataHandler := handlers.NewMetadataHandler(generator)
	searchHandler := handlers.NewSearchHandler(searchService)
	uploadHandler := handlers.NewUploadHandler(orchestrator, deps.Store, s.jobManager, statsHandler, deps.Metrics)

	s.router.Handle("/metrics", deps.Metrics.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)
		r.Get("/config", configHandler.Get)
		r.Get("/stats", statsHandler.Get)

		// Gallery
		r.Get("/events", eventsHandler.List)
		r.Get("/events/{id}", eventsHandler.Get)
		r.Get("/events/{id}/media", eventsHandler.Media)
		r.Get("/media", mediaHandler.List)
		r.Get("/media/{id}", mediaHandler.Get)
		r.Get("/tags", mediaHandler.Tags)

		// AI
		r.Post("/metadata/photo", metadataHandler.Photo)
		r.Post("/metadata/video", metadataHandler.Video)
		r.Post("/search/image", searchHandler.Image)

		// Admin routes require the bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(cfg.Web.AdminToken))

			r.Delete("/config/usage", configHandler.ResetUsage)

			r.Post("/events", eventsHandler.Create)
			r.Put("/events/{id}", eventsHandler.Update)
			r.Delete("/events/{id}", eventsHandler.Delete)

			r.Put("/media/{id}", mediaHandler.Update)
			r.Delete("/media/{id}", mediaHandler.Delete)

			// Upload (long-running operations)
			r.Get("/uploads", uploadHandler.List)
			r.Post("/uploads", uploadHandler.Start)
			r.Get("/uploads/{jobId}", uploadHandler.Status)
			r.Delete("/uploads/{jobId}", uploadHandler.Cancel)
		})

		// SSE progress, also reachable from EventSource via ?access_token=
		r.With(middleware.RequireAdminStream(cfg.Web.AdminToken)).Get("/uploads/{jobId}/events", uploadHandler.Events)
	})
}
