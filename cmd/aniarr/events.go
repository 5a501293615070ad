package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aniarr/aniarr/internal/events"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent events",
	RunE:  runEventsCmd,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
}

func runEventsCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	recorded, err := events.NewEventLog(db).Since(time.Time{})
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}
	if limit > 0 && len(recorded) > limit {
		recorded = recorded[len(recorded)-limit:]
	}

	if jsonOutput {
		printJSON(recorded)
		return nil
	}

	if len(recorded) == 0 {
		fmt.Println("No events")
		return nil
	}

	fmt.Printf("Recent Events (%d):\n\n", len(recorded))
	fmt.Printf("  %-12s %-28s %-15s\n", "TIME", "TYPE", "ENTITY")
	fmt.Println("  " + strings.Repeat("-", 58))

	for _, e := range recorded {
		entity := fmt.Sprintf("%s/%d", e.EntityType, e.EntityID)
		fmt.Printf("  %-12s %-28s %-15s\n", formatTimeAgo(e.OccurredAt), e.EventType, entity)
	}
	return nil
}

func formatTimeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
