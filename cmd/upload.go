package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/kozaktomas/baptism-gallery/internal/config"
	"github.com/kozaktomas/baptism-gallery/internal/database"
	"github.com/kozaktomas/baptism-gallery/internal/metadata"
	"github.com/kozaktomas/baptism-gallery/internal/upload"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <folder-path> [folder-path...]",
	Short: "Upload photos and videos to the gallery",
	Long: `Upload photos and videos from one or more folders, generate their
descriptions and tags, and record them in the gallery.

By default, only files in the specified folders are uploaded (non-recursive).
Use -r to search recursively in subdirectories.

Example:
  baptism-gallery upload --event 6f1c... /path/to/photos
  baptism-gallery upload -r --tags "família,festa" /path/to/folder1 /path/to/folder2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().BoolP("recursive", "r", false, "Search for files recursively in subdirectories")
	uploadCmd.Flags().String("event", "", "Event ID to attach the uploads to")
	uploadCmd.Flags().String("event-date", "", "Event date (YYYY-MM-DD), defaults to the event's date")
	uploadCmd.Flags().String("description", "", "Description applied to every file instead of the AI one")
	uploadCmd.Flags().StringSlice("tags", nil, "Tags applied to every file instead of the AI ones")
	uploadCmd.Flags().Int("concurrency", 0, "Parallel uploads (defaults to UPLOAD_CONCURRENCY)")
}

// isMediaFile checks if a file looks like a supported photo or video
func isMediaFile(name string) bool {
	_, ok := upload.KindFor("", name)
	return ok
}

// collectMediaFiles lists media files in the given folders.
func collectMediaFiles(folderPaths []string, recursive bool) ([]string, error) {
	var filePaths []string
	for _, folderPath := range folderPaths {
		info, err := os.Stat(folderPath)
		if err != nil {
			return nil, fmt.Errorf("cannot access folder %s: %w", folderPath, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", folderPath)
		}

		if recursive {
			err := filepath.WalkDir(folderPath, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && isMediaFile(d.Name()) {
					filePaths = append(filePaths, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("cannot walk folder %s: %w", folderPath, err)
			}
			continue
		}

		entries, err := os.ReadDir(folderPath)
		if err != nil {
			return nil, fmt.Errorf("cannot read folder %s: %w", folderPath, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && isMediaFile(entry.Name()) {
				filePaths = append(filePaths, filepath.Join(folderPath, entry.Name()))
			}
		}
	}
	return filePaths, nil
}

// fileItem turns a local file into an upload item.
func fileItem(path string) (upload.Item, error) {
	info, err := os.Stat(path)
	if err != nil {
		return upload.Item{}, err
	}
	return upload.Item{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path) //nolint:gosec // path comes from the user's folder listing
		},
	}, nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	filePaths, err := collectMediaFiles(args, mustGetBool(cmd, "recursive"))
	if err != nil {
		return err
	}
	if len(filePaths) == 0 {
		fmt.Println("No photo or video files found in the specified folders.")
		return nil
	}
	fmt.Printf("Found %d file(s) to upload from %d folder(s)\n", len(filePaths), len(args))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := newAIProvider(ctx, cfg)
	if err != nil {
		return err
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

	opts := upload.Options{
		EventID:     mustGetString(cmd, "event"),
		Description: mustGetString(cmd, "description"),
		Tags:        mustGetStringSlice(cmd, "tags"),
	}
	if s := mustGetString(cmd, "event-date"); s != "" {
		date, err := database.ParseDate(s)
		if err != nil {
			return err
		}
		opts.EventDate = &date
	}
	if opts.EventID != "" {
		event, err := store.GetEvent(ctx, opts.EventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if opts.EventDate == nil {
			opts.EventDate = &event.EventDate
		}
		fmt.Printf("Uploading to event: %s (%s)\n\n", event.Title, event.EventDate)
	}

	items := make([]upload.Item, 0, len(filePaths))
	for _, path := range filePaths {
		item, err := fileItem(path)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", path, err)
		}
		items = append(items, item)
	}

	concurrency := mustGetInt(cmd, "concurrency")
	if concurrency <= 0 {
		concurrency = cfg.Upload.Concurrency
	}
	o := upload.New(objects, metadata.NewGenerator(provider), store, nil, upload.Config{
		Concurrency:  concurrency,
		MaxPhotoSize: cfg.Upload.MaxPhotoSize,
		MaxVideoSize: cfg.Upload.MaxVideoSize,
		Buckets:      buckets(cfg),
	})

	bar := progressbar.NewOptions(len(items),
		progressbar.OptionSetDescription("Uploading"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	opts.OnProgress = func(p upload.Progress) {
		if p.Status == upload.StatusComplete || p.Status == upload.StatusError {
			bar.Add(1)
		}
	}

	summary := o.Run(ctx, items, opts)
	fmt.Println()

	var fallbacks []string
	for _, item := range summary.Items {
		switch {
		case item.Status == upload.StatusError:
			fmt.Printf("Failed: %s: %s\n", item.Name, item.Error)
		case item.Fallback:
			fallbacks = append(fallbacks, item.Name)
		}
	}
	if len(fallbacks) > 0 {
		fmt.Printf("Generic metadata used for: %s\n", strings.Join(fallbacks, ", "))
	}

	usage := provider.GetUsage()
	fmt.Printf("\nUploaded %d of %d file(s)\n", summary.Succeeded, summary.Total)
	fmt.Printf("AI usage: %d requests, %d input / %d output tokens, $%.4f\n",
		usage.Requests, usage.InputTokens, usage.OutputTokens, usage.TotalCost)

	if summary.Succeeded == 0 {
		return fmt.Errorf("no files were uploaded successfully")
	}
	return nil
}
