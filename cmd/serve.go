package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/baptism-gallery/internal/ai"
	"github.com/kozaktomas/baptism-gallery/internal/config"
	"github.com/kozaktomas/baptism-gallery/internal/metrics"
	"github.com/kozaktomas/baptism-gallery/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Baptism Gallery API server.
The server exposes the gallery, metadata generation, image search and
admin upload endpoints under /api/v1, plus Prometheus metrics on /metrics.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Bool("allow-missing-ai", false, "Start without AI credentials; AI endpoints then fail with 500")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// validateServeConfig reports every configuration problem at once. With
// allowMissingAI only database and storage problems are fatal.
func validateServeConfig(cfg *config.Config, allowMissingAI bool) error {
	err := cfg.Validate()
	if err == nil {
		return nil
	}
	if allowMissingAI && errors.Join(cfg.ValidateDatabase(), cfg.ValidateStorage()) == nil {
		return nil
	}
	return fmt.Errorf("invalid configuration: %w", err)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	allowMissingAI := mustGetBool(cmd, "allow-missing-ai")

	if err := validateServeConfig(cfg, allowMissingAI); err != nil {
		return err
	}

	provider, err := newAIProvider(ctx, cfg)
	if err != nil {
		if !allowMissingAI {
			return err
		}
		fmt.Printf("Warning: AI disabled: %v\n", err)
		provider = nil
	}

	objects, err := newObjectStore(ctx, cfg)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Web.AdminToken == "" {
		fmt.Println("Warning: ADMIN_TOKEN is not set, admin routes are disabled")
	}

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, web.Dependencies{
		Store:    store,
		Objects:  objects,
		Provider: provider,
		Metrics:  metrics.New(),
	}, port, host)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Baptism Gallery API on http://%s:%d (AI: %s, storage: %s)\n", host, port, providerLabel(provider), objects.Name())
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

func providerLabel(p ai.Provider) string {
	if p == nil {
		return "disabled"
	}
	return p.Name() + "/" + p.Model()
}
