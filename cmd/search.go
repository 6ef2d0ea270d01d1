package cmd

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/kozaktomas/baptism-gallery/internal/config"
	"github.com/kozaktomas/baptism-gallery/internal/search"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <image-file>",
	Short: "Find gallery photos similar to an image",
	Long: `Describe a local image with the vision model and rank the stored
photos by similarity to that description.

Example:
  baptism-gallery search ~/Downloads/batizado.jpg
  baptism-gallery search --json query.png`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Int("limit", 0, "Maximum results (defaults to SEARCH_RESULT_LIMIT)")
	searchCmd.Flags().Bool("json", false, "Output as JSON")
}

// imageDataURL reads a local image into a data URL.
func imageDataURL(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied path is the point of the command
	if err != nil {
		return "", err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	payload, err := imageDataURL(args[0])
	if err != nil {
		return fmt.Errorf("cannot read image: %w", err)
	}

	provider, err := newAIProvider(ctx, cfg)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	limit := mustGetInt(cmd, "limit")
	if limit <= 0 {
		limit = cfg.Search.ResultLimit
	}
	svc := search.NewService(provider, store, nil, search.Config{
		ResultLimit:   limit,
		MaxCandidates: cfg.Search.MaxCandidates,
		PhotosOnly:    cfg.Search.PhotosOnly,
	})

	resp, err := svc.SearchByImage(ctx, payload)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if mustGetBool(cmd, "json") {
		return printJSON(resp)
	}

	fmt.Printf("Description: %s\n\n", resp.Description)
	if resp.Message != "" {
		fmt.Println(resp.Message)
		return nil
	}
	if len(resp.Results) == 0 {
		fmt.Println("No similar photos found.")
		return nil
	}
	for i, rec := range resp.Results {
		fmt.Printf("%d. %s\n   %s\n   %s\n", i+1, rec.ID, rec.SearchText(), rec.URL)
	}
	return nil
}
