package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/goop/internal/database"
	"github.com/nao1215/goop/internal/model"
)

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history [run-id]" {
			t.Errorf("expected use 'history [run-id]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has limit flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("limit")
		if flag == nil {
			t.Fatal("expected limit flag")
		}
		if flag.Shorthand != "n" {
			t.Errorf("expected shorthand 'n', got %q", flag.Shorthand)
		}
		if flag.DefValue != "20" {
			t.Errorf("expected default '20', got %q", flag.DefValue)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})

	t.Run("has db flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("db")
		if flag == nil {
			t.Fatal("expected db flag")
		}
	})
}

// seedRun records one finished crawl run and returns its ID.
func seedRun(t *testing.T, db *database.HistoryDB, seedURL string, startedAt time.Time, results []*model.Result) string {
	t.Helper()

	crawlReport := model.NewCrawlReport(seedURL, "test-agent")
	crawlReport.StartedAt = startedAt
	crawlReport.Finish(results)

	if err := db.SaveReport(context.Background(), crawlReport); err != nil {
		t.Fatalf("failed to save report: %v", err)
	}
	return crawlReport.RunID
}

// openTestDB opens a history database in a temporary directory.
func openTestDB(t *testing.T) *database.HistoryDB {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TestFindRun tests run ID resolution.
func TestFindRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)

	first := seedRun(t, db, "https://example.com/", time.Now().Add(-2*time.Hour), []*model.Result{
		{RequestedURL: "https://example.com/", StatusCode: 200},
	})
	second := seedRun(t, db, "https://other.example/", time.Now().Add(-time.Hour), nil)

	t.Run("finds run by exact ID", func(t *testing.T) {
		run, err := findRun(ctx, db, first)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.ID != first {
			t.Errorf("expected run %s, got %s", first, run.ID)
		}
	})

	t.Run("finds run by unique prefix", func(t *testing.T) {
		// UUIDs differ in their first characters with overwhelming
		// probability; grow the prefix until it is unique.
		prefix := first[:8]
		if strings.HasPrefix(second, prefix) {
			prefix = first[:16]
		}

		run, err := findRun(ctx, db, prefix)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.ID != first {
			t.Errorf("expected run %s, got %s", first, run.ID)
		}
	})

	t.Run("returns error for ambiguous prefix", func(t *testing.T) {
		// The empty prefix matches every recorded run.
		_, err := findRun(ctx, db, "")
		if err == nil {
			t.Fatal("expected error for ambiguous prefix")
		}
		if !strings.Contains(err.Error(), "ambiguous") {
			t.Errorf("expected 'ambiguous' error, got: %v", err)
		}
	})

	t.Run("returns error for unknown ID", func(t *testing.T) {
		_, err := findRun(ctx, db, "zzzzzzzz")
		if err == nil {
			t.Fatal("expected error for unknown ID")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected 'not found' error, got: %v", err)
		}
	})
}

// TestShortID tests run ID abbreviation.
func TestShortID(t *testing.T) {
	t.Parallel()

	t.Run("abbreviates long IDs", func(t *testing.T) {
		t.Parallel()
		got := shortID("1a2b3c4d-5e6f-7890-abcd-ef1234567890")
		if got != "1a2b3c4d" {
			t.Errorf("expected '1a2b3c4d', got %q", got)
		}
	})

	t.Run("keeps short IDs unchanged", func(t *testing.T) {
		t.Parallel()
		got := shortID("abc")
		if got != "abc" {
			t.Errorf("expected 'abc', got %q", got)
		}
	})
}

// TestTruncate tests string truncation for table cells.
func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    string
		max  int
		want string
	}{
		{name: "shorter than max", s: "short", max: 10, want: "short"},
		{name: "exactly max", s: "exact", max: 5, want: "exact"},
		{name: "longer than max", s: "a-very-long-string", max: 10, want: "a-very-..."},
		{name: "tiny max", s: "abcdef", max: 2, want: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := truncate(tt.s, tt.max)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.max, got, tt.want)
			}
		})
	}
}

// TestListRuns tests the run listing output.
func TestListRuns(t *testing.T) {
	// Note: Not using t.Parallel() because these tests capture os.Stdout

	ctx := context.Background()

	t.Run("prints hint for empty database", func(t *testing.T) {
		db := openTestDB(t)

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := listRuns(ctx, db, defaultHistoryLimit, false)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("listRuns() error = %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		if !strings.Contains(buf.String(), "No crawl runs recorded yet.") {
			t.Errorf("expected empty-database hint, got %q", buf.String())
		}
	})

	t.Run("lists recorded runs", func(t *testing.T) {
		db := openTestDB(t)
		runID := seedRun(t, db, "https://example.com/", time.Now(), []*model.Result{
			{RequestedURL: "https://example.com/", StatusCode: 200},
		})

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := listRuns(ctx, db, defaultHistoryLimit, false)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("listRuns() error = %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()
		output := buf.String()

		if !strings.Contains(output, shortID(runID)) {
			t.Errorf("expected run ID %s in output, got %q", shortID(runID), output)
		}
		if !strings.Contains(output, "https://example.com/") {
			t.Errorf("expected seed URL in output, got %q", output)
		}
	})

	t.Run("outputs runs as JSON", func(t *testing.T) {
		db := openTestDB(t)
		runID := seedRun(t, db, "https://example.com/", time.Now(), nil)

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := listRuns(ctx, db, defaultHistoryLimit, true)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("listRuns() error = %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		var runs []database.RunSummary
		if err := json.Unmarshal(buf.Bytes(), &runs); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}
		if runs[0].ID != runID {
			t.Errorf("expected run ID %s, got %s", runID, runs[0].ID)
		}
	})
}

// TestShowRun tests single-run output.
func TestShowRun(t *testing.T) {
	// Note: Not using t.Parallel() because these tests capture os.Stdout

	ctx := context.Background()

	t.Run("prints run details and results", func(t *testing.T) {
		db := openTestDB(t)
		runID := seedRun(t, db, "https://example.com/", time.Now(), []*model.Result{
			{RequestedURL: "https://example.com/", FinalURL: "https://example.com/", StatusCode: 200, Title: "Home", Depth: 0},
			{RequestedURL: "https://example.com/about", StatusCode: 404, Depth: 1, Error: model.HTTPError(404)},
		})

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := showRun(ctx, db, runID, false)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("showRun() error = %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()
		output := buf.String()

		expectedStrings := []string{
			"Run " + runID,
			"https://example.com/",
			"2 (1 ok, 1 failed)",
			"Home",
		}
		for _, expected := range expectedStrings {
			if !strings.Contains(output, expected) {
				t.Errorf("output missing expected string: %q", expected)
			}
		}
	})

	t.Run("outputs run as JSON", func(t *testing.T) {
		db := openTestDB(t)
		runID := seedRun(t, db, "https://example.com/", time.Now(), []*model.Result{
			{RequestedURL: "https://example.com/", StatusCode: 200},
		})

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := showRun(ctx, db, runID, true)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("showRun() error = %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		var decoded struct {
			Run     *database.RunSummary    `json:"run"`
			Results []database.StoredResult `json:"results"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}
		if decoded.Run == nil || decoded.Run.ID != runID {
			t.Errorf("expected run %s in JSON output", runID)
		}
		if len(decoded.Results) != 1 {
			t.Errorf("expected 1 result, got %d", len(decoded.Results))
		}
	})

	t.Run("returns error for unknown run", func(t *testing.T) {
		db := openTestDB(t)

		err := showRun(ctx, db, "zzzzzzzz", false)
		if err == nil {
			t.Fatal("expected error for unknown run")
		}
	})
}

// TestRunHistoryCmd tests the history command end to end.
func TestRunHistoryCmd(t *testing.T) {
	// Note: Not using t.Parallel() because these tests capture os.Stdout

	t.Run("lists runs from an empty database", func(t *testing.T) {
		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"history", "--db", t.TempDir()})

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := rootCmd.Execute()

		w.Close()
		os.Stdout = oldStdout

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if !strings.Contains(buf.String(), "No crawl runs recorded yet.") {
			t.Errorf("expected empty-database hint, got %q", buf.String())
		}
	})

	t.Run("returns error for unknown run ID", func(t *testing.T) {
		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"history", "deadbeef", "--db", t.TempDir()})

		err := rootCmd.Execute()
		if err == nil {
			t.Fatal("expected error for unknown run ID")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected 'not found' error, got: %v", err)
		}
	})
}
