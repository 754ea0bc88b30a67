package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/goop/internal/model"
)

// dbFileName is the SQLite file name inside the history directory.
const dbFileName = "goop.db"

// HistoryDB stores completed crawl runs in SQLite. All runs share one
// database file, which keeps cross-run queries (history listings, run
// comparisons) simple.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created
// as needed; otherwise a missing database is an error.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection strings: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per completed crawl run
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id TEXT PRIMARY KEY,
		seed_url TEXT NOT NULL,
		user_agent TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		succeeded INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON crawl_runs(seed_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);

	-- One row per fetched URL within a run
	CREATE TABLE IF NOT EXISTS crawl_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES crawl_runs(id),
		url TEXT NOT NULL,
		final_url TEXT,
		status_code INTEGER,
		title TEXT,
		depth INTEGER,
		links_count INTEGER,
		content_length INTEGER,
		error TEXT,
		fetched_at TEXT DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_results_run ON crawl_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_url ON crawl_results(url);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport stores a completed crawl run and all its results in one
// transaction. A result URL appearing twice in the same run updates the
// earlier row.
func (hdb *HistoryDB) SaveReport(ctx context.Context, report *model.CrawlReport) error {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stats := report.Stats()
	_, err = tx.ExecContext(ctx, `
	INSERT INTO crawl_runs (id, seed_url, user_agent, started_at, finished_at, total, succeeded, failed)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.RunID,
		report.SeedURL,
		report.UserAgent,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.FinishedAt.UTC().Format(time.RFC3339Nano),
		stats.Total,
		stats.Succeeded,
		stats.Failed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert crawl run: %w", err)
	}

	insert := `
	INSERT INTO crawl_results (run_id, url, final_url, status_code, title, depth, links_count, content_length, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO UPDATE SET
		final_url = excluded.final_url,
		status_code = excluded.status_code,
		title = excluded.title,
		depth = excluded.depth,
		links_count = excluded.links_count,
		content_length = excluded.content_length,
		error = excluded.error
	`
	for _, result := range report.Results {
		_, err := tx.ExecContext(ctx, insert,
			report.RunID,
			result.RequestedURL,
			result.FinalURL,
			result.StatusCode,
			result.Title,
			result.Depth,
			len(result.Links),
			result.ContentLength(),
			result.Error.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert crawl result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit crawl run: %w", err)
	}
	return nil
}

// RunSummary contains the per-run metadata stored in crawl_runs. It is used
// for history listings without loading every result row.
type RunSummary struct {
	// ID is the run's UUID.
	ID string `json:"id"`

	// SeedURL is the normalized URL the crawl started from.
	SeedURL string `json:"seed_url"`

	// UserAgent is the agent string the crawl used.
	UserAgent string `json:"user_agent"`

	// StartedAt and FinishedAt bound the crawl run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Total, Succeeded, and Failed count the run's fetch outcomes.
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// runColumns is the SELECT list matching scanRun.
const runColumns = "id, seed_url, user_agent, started_at, finished_at, total, succeeded, failed"

// scanRun reads one RunSummary from a row scanner.
func scanRun(scan func(dest ...any) error) (RunSummary, error) {
	var run RunSummary
	var startedAt, finishedAt string
	if err := scan(&run.ID, &run.SeedURL, &run.UserAgent, &startedAt, &finishedAt,
		&run.Total, &run.Succeeded, &run.Failed); err != nil {
		return RunSummary{}, err
	}
	run.StartedAt = parseTimestamp(startedAt)
	run.FinishedAt = parseTimestamp(finishedAt)
	return run, nil
}

// ListRuns returns the most recent crawl runs, newest first. A limit of 0
// or less returns all runs.
func (hdb *HistoryDB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := "SELECT " + runColumns + " FROM crawl_runs ORDER BY started_at DESC"
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListRunsForSeed returns the most recent crawl runs for one seed URL,
// newest first. A limit of 0 or less returns all matching runs.
func (hdb *HistoryDB) ListRunsForSeed(ctx context.Context, seedURL string, limit int) ([]RunSummary, error) {
	query := "SELECT " + runColumns + " FROM crawl_runs WHERE seed_url = ? ORDER BY started_at DESC"
	args := []any{seedURL}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs for seed: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun retrieves a single run by ID. It returns nil without an error when
// the run does not exist.
func (hdb *HistoryDB) GetRun(ctx context.Context, runID string) (*RunSummary, error) {
	row := hdb.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM crawl_runs WHERE id = ?", runID)

	run, err := scanRun(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// StoredResult is one crawl_results row: the per-URL outcome of a past run.
type StoredResult struct {
	// URL is the normalized URL that was fetched.
	URL string `json:"url"`

	// FinalURL is the URL after redirects, when a response was received.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP status, 0 when no response was received.
	StatusCode int `json:"status_code"`

	// Title is the extracted page title.
	Title string `json:"title,omitempty"`

	// Depth is the link distance from the seed.
	Depth int `json:"depth"`

	// LinksCount is the number of outbound links found on the page.
	LinksCount int `json:"links_count"`

	// ContentLength is the size of the extracted text in bytes.
	ContentLength int `json:"content_length"`

	// Error is the string form of the fetch outcome, empty on success.
	Error string `json:"error,omitempty"`
}

// ResultsForRun returns all stored results of a run in insertion order.
func (hdb *HistoryDB) ResultsForRun(ctx context.Context, runID string) ([]StoredResult, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT url, final_url, status_code, title, depth, links_count, content_length, error
	FROM crawl_results
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []StoredResult
	for rows.Next() {
		var r StoredResult
		if err := rows.Scan(&r.URL, &r.FinalURL, &r.StatusCode, &r.Title,
			&r.Depth, &r.LinksCount, &r.ContentLength, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListSeeds returns the distinct seed URLs present in the history.
func (hdb *HistoryDB) ListSeeds(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx,
		"SELECT DISTINCT seed_url FROM crawl_runs ORDER BY seed_url")
	if err != nil {
		return nil, fmt.Errorf("failed to list seeds: %w", err)
	}
	defer rows.Close()

	var seeds []string
	for rows.Next() {
		var seed string
		if err := rows.Scan(&seed); err != nil {
			return nil, fmt.Errorf("failed to scan seed: %w", err)
		}
		seeds = append(seeds, seed)
	}
	return seeds, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats, because SQLite returns timestamps in different formats depending
// on how they were written. If nothing matches it returns the zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
