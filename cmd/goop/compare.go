package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/goop/internal/config"
	"github.com/nao1215/goop/internal/crawler"
	"github.com/nao1215/goop/internal/database"
	"github.com/spf13/cobra"
)

// NewCompareCmd creates the compare command.
// It diffs two recorded crawl runs of the same seed URL.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [url]",
		Short: "Compare the two most recent crawl runs for a seed",
		Long: `Compare diffs two recorded crawl runs for a seed URL and shows which
URLs appeared, which disappeared, and which changed outcome.

By default the latest run is compared against the one before it. Use
--with-run-id to pick the earlier side of the comparison explicitly.

The comparison requires at least two recorded runs for the seed.
Use 'goop crawl' to record runs.

Examples:
  # Compare the latest two runs
  goop compare https://example.com/

  # List recorded runs for the seed
  goop compare --list https://example.com/

  # Compare the latest run with a specific earlier run
  goop compare --with-run-id 1a2b3c4d https://example.com/

  # Output the diff as JSON or Markdown
  goop compare --json https://example.com/
  goop compare --markdown https://example.com/

  # List all seeds with recorded runs
  goop compare --list-seeds`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List recorded runs for the seed instead of comparing")
	cmd.Flags().BoolP("list-seeds", "L", false,
		"List all seed URLs with recorded runs")

	// Comparison target flag
	cmd.Flags().StringP("with-run-id", "i", "",
		"Compare the latest run with this run (full ID or unique prefix)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	cmd.Flags().String("db", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	// --list-seeds needs the database but no seed argument.
	listSeeds, err := cmd.Flags().GetBool("list-seeds")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database so a bad seed never
	// takes the write lock.
	var seed string
	if !listSeeds {
		if len(args) == 0 {
			return errors.New("seed URL is required (use --list-seeds to see recorded seeds)")
		}

		// Normalize the seed so it matches what crawl recorded.
		seed, err = crawler.Normalize(args[0])
		if err != nil {
			return fmt.Errorf("invalid seed URL: %w", err)
		}
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}

	withRunID, err := cmd.Flags().GetString("with-run-id")
	if err != nil {
		return err
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	markdownOutput, err := cmd.Flags().GetBool("markdown")
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

	if listSeeds {
		return listRecordedSeeds(ctx, db)
	}

	if listHistory {
		return listRunsForSeed(ctx, db, seed)
	}

	return runComparison(ctx, db, seed, withRunID, jsonOutput, markdownOutput)
}

// listRecordedSeeds prints every seed URL that has at least one recorded run.
func listRecordedSeeds(ctx context.Context, db *database.HistoryDB) error {
	seeds, err := db.ListSeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list seeds: %w", err)
	}

	if len(seeds) == 0 {
		fmt.Println("No crawl runs recorded yet.")
		fmt.Println("\nUse 'goop crawl <url>' to record one.")
		return nil
	}

	fmt.Printf("Recorded seeds (%d):\n\n", len(seeds))
	for _, seed := range seeds {
		fmt.Printf("  • %s\n", seed)
	}
	fmt.Println("\nUse 'goop compare --list <url>' to see the runs for a seed.")

	return nil
}

// listRunsForSeed prints the recorded runs for one seed URL.
func listRunsForSeed(ctx context.Context, db *database.HistoryDB, seed string) error {
	runs, err := db.ListRunsForSeed(ctx, seed, 0)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Printf("No crawl runs recorded for %s\n", seed)
		fmt.Println("\nUse 'goop crawl' to record one.")
		return nil
	}

	fmt.Printf("Crawl runs for %s (%d):\n\n", seed, len(runs))
	fmt.Printf("  %-8s  %-19s  %6s  %6s  %6s\n", "ID", "Started", "Pages", "OK", "Failed")
	fmt.Println("  " + strings.Repeat("-", 55))
	for _, run := range runs {
		fmt.Printf("  %-8s  %-19s  %6d  %6d  %6d\n",
			shortID(run.ID),
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Total, run.Succeeded, run.Failed)
	}
	fmt.Println("\nUse 'goop compare <url>' to compare the latest two runs.")
	fmt.Println("Use 'goop compare --with-run-id <id> <url>' to compare with a specific run.")

	return nil
}

// runComparison diffs the latest run for seed against an earlier one.
func runComparison(ctx context.Context, db *database.HistoryDB, seed, withRunID string, jsonOutput, markdownOutput bool) error {
	runs, err := db.ListRunsForSeed(ctx, seed, 2)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		return fmt.Errorf("no crawl runs recorded for %s", seed)
	}

	// The latest run is always the current side.
	current := runs[0]

	var previous database.RunSummary
	if withRunID != "" {
		run, err := findRun(ctx, db, withRunID)
		if err != nil {
			return err
		}
		// Validate that the run belongs to the same seed
		if run.SeedURL != seed {
			return fmt.Errorf("run %s crawled %s, not %s", shortID(run.ID), run.SeedURL, seed)
		}
		if run.ID == current.ID {
			return fmt.Errorf("run %s is the latest run; pick an earlier one to compare against", shortID(run.ID))
		}
		previous = *run
	} else {
		if len(runs) < 2 {
			return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
		}
		previous = runs[1]
	}

	previousResults, err := db.ResultsForRun(ctx, previous.ID)
	if err != nil {
		return fmt.Errorf("failed to load results for run %s: %w", shortID(previous.ID), err)
	}
	currentResults, err := db.ResultsForRun(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("failed to load results for run %s: %w", shortID(current.ID), err)
	}

	comparison := compareRuns(previous, current, previousResults, currentResults)

	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the diff between two crawl runs of one seed.
type ComparisonResult struct {
	// SeedURL is the seed both runs started from.
	SeedURL string `json:"seed_url"`

	// PreviousRun contains metadata about the earlier run.
	PreviousRun RunMetadata `json:"previous_run"`

	// CurrentRun contains metadata about the later run.
	CurrentRun RunMetadata `json:"current_run"`

	// NewURLs lists URLs present in the current run only.
	NewURLs []string `json:"new_urls,omitempty"`

	// RemovedURLs lists URLs present in the previous run only.
	RemovedURLs []string `json:"removed_urls,omitempty"`

	// OutcomeChanges lists URLs whose fetch outcome changed between runs.
	OutcomeChanges []OutcomeChange `json:"outcome_changes,omitempty"`

	// UnchangedCount is the number of URLs with the same outcome in both runs.
	UnchangedCount int `json:"unchanged_count"`
}

// RunMetadata identifies one side of a comparison.
type RunMetadata struct {
	// ID is the run's UUID.
	ID string `json:"id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Total is the number of URLs the run fetched.
	Total int `json:"total"`

	// Succeeded is the number of successful fetches.
	Succeeded int `json:"succeeded"`

	// Failed is the number of failed fetches.
	Failed int `json:"failed"`
}

// OutcomeChange records one URL whose outcome differs between two runs.
type OutcomeChange struct {
	// URL is the affected page.
	URL string `json:"url"`

	// Previous is the outcome in the earlier run.
	Previous string `json:"previous"`

	// Current is the outcome in the later run.
	Current string `json:"current"`
}

// compareRuns diffs the stored results of two runs. Current-run results
// are walked in insertion order so the output is stable across calls.
func compareRuns(previous, current database.RunSummary, previousResults, currentResults []database.StoredResult) *ComparisonResult {
	result := &ComparisonResult{
		SeedURL:     current.SeedURL,
		PreviousRun: runMetadata(previous),
		CurrentRun:  runMetadata(current),
	}

	previousByURL := make(map[string]database.StoredResult, len(previousResults))
	for _, r := range previousResults {
		previousByURL[r.URL] = r
	}
	currentByURL := make(map[string]database.StoredResult, len(currentResults))
	for _, r := range currentResults {
		currentByURL[r.URL] = r
	}

	for _, r := range currentResults {
		prev, exists := previousByURL[r.URL]
		if !exists {
			result.NewURLs = append(result.NewURLs, r.URL)
			continue
		}
		if outcome(prev) != outcome(r) {
			result.OutcomeChanges = append(result.OutcomeChanges, OutcomeChange{
				URL:      r.URL,
				Previous: outcome(prev),
				Current:  outcome(r),
			})
		} else {
			result.UnchangedCount++
		}
	}

	for _, r := range previousResults {
		if _, exists := currentByURL[r.URL]; !exists {
			result.RemovedURLs = append(result.RemovedURLs, r.URL)
		}
	}

	return result
}

// runMetadata converts a run summary into the comparison metadata form.
func runMetadata(run database.RunSummary) RunMetadata {
	return RunMetadata{
		ID:        run.ID,
		StartedAt: run.StartedAt,
		Total:     run.Total,
		Succeeded: run.Succeeded,
		Failed:    run.Failed,
	}
}

// outcome renders a stored result's outcome: the error kind when the
// fetch failed, the HTTP status otherwise.
func outcome(r database.StoredResult) string {
	if r.Error != "" {
		return r.Error
	}
	return strconv.Itoa(r.StatusCode)
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Printf("# Crawl Comparison: %s\n\n", result.SeedURL)

	fmt.Println("## Summary")
	fmt.Println()
	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousRun.StartedAt.Format("2006-01-02 15:04"),
		result.CurrentRun.StartedAt.Format("2006-01-02 15:04"))
	fmt.Printf("| Pages | %d | %d | %s |\n",
		result.PreviousRun.Total,
		result.CurrentRun.Total,
		formatDelta(result.CurrentRun.Total-result.PreviousRun.Total))
	fmt.Printf("| Succeeded | %d | %d | %s |\n",
		result.PreviousRun.Succeeded,
		result.CurrentRun.Succeeded,
		formatDelta(result.CurrentRun.Succeeded-result.PreviousRun.Succeeded))
	fmt.Printf("| Failed | %d | %d | %s |\n",
		result.PreviousRun.Failed,
		result.CurrentRun.Failed,
		formatDelta(result.CurrentRun.Failed-result.PreviousRun.Failed))

	if len(result.NewURLs) > 0 {
		fmt.Printf("\n## New URLs (%d)\n\n", len(result.NewURLs))
		for _, u := range result.NewURLs {
			fmt.Printf("- %s\n", u)
		}
	}

	if len(result.RemovedURLs) > 0 {
		fmt.Printf("\n## Removed URLs (%d)\n\n", len(result.RemovedURLs))
		for _, u := range result.RemovedURLs {
			fmt.Printf("- ~~%s~~\n", u)
		}
	}

	if len(result.OutcomeChanges) > 0 {
		fmt.Printf("\n## Outcome Changes (%d)\n\n", len(result.OutcomeChanges))
		fmt.Println("| URL | Previous | Current |")
		fmt.Println("|-----|----------|---------|")
		for _, change := range result.OutcomeChanges {
			fmt.Printf("| %s | %s | %s |\n", change.URL, change.Previous, change.Current)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\n---\n\n*%d URLs unchanged*\n", result.UnchangedCount)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Crawl Comparison: %s\n", result.SeedURL)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\nPrevious run: %s  (%s)\n",
		result.PreviousRun.StartedAt.Format("2006-01-02 15:04:05"),
		shortID(result.PreviousRun.ID))
	fmt.Printf("Current run:  %s  (%s)\n",
		result.CurrentRun.StartedAt.Format("2006-01-02 15:04:05"),
		shortID(result.CurrentRun.ID))

	fmt.Println("\nPages Summary:")
	fmt.Printf("  %-10s  %-10s  %-10s  %-10s\n", "", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Total",
		result.PreviousRun.Total, result.CurrentRun.Total,
		formatDelta(result.CurrentRun.Total-result.PreviousRun.Total))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Succeeded",
		result.PreviousRun.Succeeded, result.CurrentRun.Succeeded,
		formatDelta(result.CurrentRun.Succeeded-result.PreviousRun.Succeeded))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Failed",
		result.PreviousRun.Failed, result.CurrentRun.Failed,
		formatDelta(result.CurrentRun.Failed-result.PreviousRun.Failed))

	if len(result.NewURLs) > 0 {
		fmt.Printf("\nNew URLs (%d):\n", len(result.NewURLs))
		for _, u := range result.NewURLs {
			fmt.Printf("  [+] %s\n", u)
		}
	}

	if len(result.RemovedURLs) > 0 {
		fmt.Printf("\nRemoved URLs (%d):\n", len(result.RemovedURLs))
		for _, u := range result.RemovedURLs {
			fmt.Printf("  [-] %s\n", u)
		}
	}

	if len(result.OutcomeChanges) > 0 {
		fmt.Printf("\nOutcome Changes (%d):\n", len(result.OutcomeChanges))
		for _, change := range result.OutcomeChanges {
			fmt.Printf("  [~] %s: %s -> %s\n", change.URL, change.Previous, change.Current)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d URLs\n", result.UnchangedCount)
	}

	return nil
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
