package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/baptism-gallery/internal/config"
	"github.com/kozaktomas/baptism-gallery/internal/database"
	"github.com/kozaktomas/baptism-gallery/internal/search"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Manage baptism events",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events with their photo and video counts",
	Args:  cobra.NoArgs,
	RunE:  runEventsList,
}

var eventsCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create an event",
	Long: `Create a baptism event.

Example:
  baptism-gallery events create "Batizado da Maria" --date 2024-03-10 --location "Paróquia São José"`,
	Args: cobra.ExactArgs(1),
	RunE: runEventsCreate,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsCreateCmd)

	eventsListCmd.Flags().StringP("query", "q", "", "Filter by title or description")
	eventsListCmd.Flags().Bool("json", false, "Output as JSON")

	eventsCreateCmd.Flags().String("date", "", "Event date (YYYY-MM-DD)")
	eventsCreateCmd.Flags().String("description", "", "Event description")
	eventsCreateCmd.Flags().String("location", "", "Event location")
}

func runEventsList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	events, err := store.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}
	events = search.FilterEvents(events, mustGetString(cmd, "query"))

	if mustGetBool(cmd, "json") {
		return printJSON(events)
	}
	if len(events) == 0 {
		fmt.Println("No events found.")
		return nil
	}
	for _, e := range events {
		fmt.Printf("%s  %s  %s (%d photos, %d videos)\n", e.ID, e.EventDate, e.Title, e.PhotoCount, e.VideoCount)
	}
	return nil
}

func runEventsCreate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	dateStr := mustGetString(cmd, "date")
	if dateStr == "" {
		return fmt.Errorf("--date is required")
	}
	date, err := database.ParseDate(dateStr)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	event := &database.EventRecord{
		Title:       args[0],
		Description: mustGetString(cmd, "description"),
		EventDate:   date,
		Location:    mustGetString(cmd, "location"),
	}
	if err := store.CreateEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	fmt.Printf("Created event %s\n", event.ID)
	return nil
}
