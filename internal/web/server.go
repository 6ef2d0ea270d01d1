package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/baptism-gallery/internal/ai"
	"github.com/kozaktomas/baptism-gallery/internal/config"
	"github.com/kozaktomas/baptism-gallery/internal/database"
	"github.com/kozaktomas/baptism-gallery/internal/metrics"
	"github.com/kozaktomas/baptism-gallery/internal/storage"
	"github.com/kozaktomas/baptism-gallery/internal/web/handlers"
	"github.com/kozaktomas/baptism-gallery/internal/web/middleware"
)

const (
	jobRetention     = time.Hour
	jobPruneInterval = 10 * time.Minute
)

// Dependencies are the backends the server is wired to
type Dependencies struct {
	Store    database.Store
	Objects  storage.Store
	Provider ai.Provider // nil when AI is not configured
	Metrics  *metrics.Metrics
}

// Server represents the web server
type Server struct {
	config     *config.Config
	deps       Dependencies
	router     *chi.Mux
	httpServer *http.Server
	jobManager *handlers.JobManager

	stop     chan struct{}
	stopOnce sync.Once
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, deps Dependencies, port int, host string) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:     cfg,
		deps:       deps,
		router:     r,
		jobManager: handlers.NewJobManager(),
		stop:       make(chan struct{}),
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS())
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  5 * time.Minute, // large video uploads
		WriteTimeout: 5 * time.Minute, // Long timeout for SSE and uploads
		IdleTimeout:  60 * time.Second,
	}

	go s.pruneJobs()

	return s
}

// pruneJobs periodically forgets finished upload jobs
func (s *Server) pruneJobs() {
	ticker := time.NewTicker(jobPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.jobManager.Prune(jobRetention); n > 0 {
				log.Printf("Pruned %d finished upload jobs", n)
			}
		}
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")

	s.stopOnce.Do(func() { close(s.stop) })

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
