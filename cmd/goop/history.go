package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/nao1215/goop/internal/config"
	"github.com/nao1215/goop/internal/database"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed when --limit is not given.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// It reads the runs recorded in the history database by past crawls.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded crawl runs or show one run's results",
		Long: `History lists crawl runs recorded in the history database, newest first.
With a run ID argument it shows that run's per-URL results instead.
Run IDs may be abbreviated to any unique prefix.

Examples:
  # List the most recent runs
  goop history

  # List more runs
  goop history --limit 50

  # Show one run's results (a prefix of the ID is enough)
  goop history 1a2b3c4d

  # Dump a run as JSON
  goop history 1a2b3c4d --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	dbDir, err := cmd.Flags().GetString("db")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if len(args) == 1 {
		return showRun(ctx, db, args[0], jsonOutput)
	}
	return listRuns(ctx, db, limit, jsonOutput)
}

// listRuns prints the most recent crawl runs.
func listRuns(ctx context.Context, db *database.HistoryDB, limit int, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No crawl runs recorded yet.")
		fmt.Println("\nUse 'goop crawl <url>' to record one.")
		return nil
	}

	fmt.Printf("Recorded crawl runs (%d):\n\n", len(runs))
	fmt.Printf("  %-8s  %-19s  %6s  %6s  %6s  %s\n",
		"ID", "Started", "Pages", "OK", "Failed", "Seed")
	fmt.Println("  " + strings.Repeat("-", 75))
	for _, run := range runs {
		fmt.Printf("  %-8s  %-19s  %6d  %6d  %6d  %s\n",
			shortID(run.ID),
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Total, run.Succeeded, run.Failed, run.SeedURL)
	}
	fmt.Println("\nUse 'goop history <run-id>' to see a run's results.")
	fmt.Println("Use 'goop compare <url>' to diff the latest two runs for a seed.")

	return nil
}

// showRun prints one run's stored results.
func showRun(ctx context.Context, db *database.HistoryDB, runID string, jsonOutput bool) error {
	run, err := findRun(ctx, db, runID)
	if err != nil {
		return err
	}

	results, err := db.ResultsForRun(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to load results for run %s: %w", shortID(run.ID), err)
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			Run     *database.RunSummary    `json:"run"`
			Results []database.StoredResult `json:"results"`
		}{run, results})
	}

	fmt.Printf("Run %s\n", run.ID)
	fmt.Printf("  Seed:       %s\n", run.SeedURL)
	fmt.Printf("  User-Agent: %s\n", run.UserAgent)
	fmt.Printf("  Started:    %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Finished:   %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Pages:      %d (%d ok, %d failed)\n", run.Total, run.Succeeded, run.Failed)

	if len(results) == 0 {
		fmt.Println("\nNo results stored for this run.")
		return nil
	}

	fmt.Printf("\n  %-22s  %5s  %-50s  %s\n", "Outcome", "Depth", "URL", "Title")
	fmt.Println("  " + strings.Repeat("-", 95))
	for _, result := range results {
		fmt.Printf("  %-22s  %5d  %-50s  %s\n",
			outcome(result), result.Depth,
			truncate(result.URL, 50), truncate(result.Title, 40))
	}

	return nil
}

// findRun resolves a full or abbreviated run ID to a recorded run.
func findRun(ctx context.Context, db *database.HistoryDB, runID string) (*database.RunSummary, error) {
	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}
	if run != nil {
		return run, nil
	}

	// Not an exact ID; try it as a prefix.
	runs, err := db.ListRuns(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var match *database.RunSummary
	for i := range runs {
		if strings.HasPrefix(runs[i].ID, runID) {
			if match != nil {
				return nil, fmt.Errorf("run ID %q is ambiguous", runID)
			}
			match = &runs[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("run %q not found (use 'goop history' to list runs)", runID)
	}
	return match, nil
}

// shortID abbreviates a run UUID for listings.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate shortens s to at most max characters, with an ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
