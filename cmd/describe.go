package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kozaktomas/baptism-gallery/internal/config"
	"github.com/kozaktomas/baptism-gallery/internal/database"
	"github.com/kozaktomas/baptism-gallery/internal/metadata"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe <media-url>",
	Short: "Generate description and tags for a photo or video URL",
	Long: `Run metadata generation for a publicly reachable photo or video URL
and print the result as JSON. Nothing is stored.

Example:
  baptism-gallery describe https://cdn.example.com/photo.jpg
  baptism-gallery describe --video https://cdn.example.com/clip.mp4`,
	Args: cobra.ExactArgs(1),
	RunE: runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().Bool("video", false, "Treat the URL as a video")
	describeCmd.Flags().Bool("fallback", false, "Use generic metadata instead of failing when analysis fails")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	provider, err := newAIProvider(ctx, cfg)
	if err != nil {
		return err
	}

	kind := database.MediaPhoto
	if mustGetBool(cmd, "video") {
		kind = database.MediaVideo
	}

	var opts []metadata.Option
	if mustGetBool(cmd, "fallback") {
		opts = append(opts, metadata.WithPolicy(kind, metadata.PolicyFallback))
	}
	gen := metadata.NewGenerator(provider, opts...)

	result, err := gen.Generate(ctx, args[0], kind)
	if err != nil {
		return fmt.Errorf("metadata generation failed: %w", err)
	}
	if result.IsFallback() {
		fmt.Fprintf(os.Stderr, "Warning: analysis failed, generic metadata returned: %s\n", result.Error)
	}
	return printJSON(result)
}
