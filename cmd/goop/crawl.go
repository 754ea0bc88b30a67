package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nao1215/goop/internal/config"
	"github.com/nao1215/goop/internal/crawler"
	"github.com/nao1215/goop/internal/database"
	"github.com/nao1215/goop/internal/log"
	"github.com/nao1215/goop/internal/model"
	"github.com/nao1215/goop/internal/pipeline"
	"github.com/nao1215/goop/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url]",
		Short: "Crawl a site breadth-first and write a report",
		Long: `Crawl fetches pages breadth-first starting from the seed URL.

It stays on the seed's host unless --follow-external is set, honors
robots.txt, and waits a politeness delay between requests to the same
host. The collected results are written to stdout (or -o FILE) in the
selected format, and the run is recorded in the history database.

Examples:
  # Crawl a site with the defaults (depth 3, 100 URLs, 1s delay)
  goop crawl https://example.com

  # Crawl deeper and faster, report as Markdown
  goop crawl -d 5 -c 4 --delay 500ms -f markdown https://example.com

  # Write all discovered links to a file
  goop crawl -f links -o links.txt https://example.com

  # Send an authentication cookie
  goop crawl -H "Cookie: session=abc123" https://example.com

Configuration file (.goop) example:
  sites:
    example.com:
      cookie: "session=abc123"
      headers:
        Authorization: "Bearer token"
      depth: 5
      delay: 2s`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link depth to follow from the seed")
	cmd.Flags().IntP("max-urls", "m", config.DefaultMaxURLs,
		"Maximum number of URLs to fetch")
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Politeness delay between requests to the same host")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().IntP("concurrent", "c", config.DefaultConcurrency,
		"Maximum number of concurrent requests")
	cmd.Flags().Bool("ignore-robots", false,
		"Ignore robots.txt rules (crawl responsibly)")
	cmd.Flags().Bool("follow-external", false,
		"Follow links that leave the seed's host")

	// Request flags
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header to send")
	cmd.Flags().StringArrayP("header", "H", nil,
		`Extra header to send as "Key: Value" (repeatable)`)
	cmd.Flags().String("proxy", "",
		"Proxy URL for all requests (http, https, or socks5)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")

	// Report flags
	cmd.Flags().StringP("output", "o", "",
		"Write the report to a file instead of stdout")
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Report format: json, csv, links, markdown, or text")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")
	cmd.Flags().String("db", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, seed, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging. The secure handler masks cookies and
	// tokens that reach the log through -H flags or the config file.
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, seed, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its root.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config flag from the command or its root.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// buildCrawlConfig creates a Config and the normalized seed URL from
// cobra command flags.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, "", err
	}

	cfg.MaxURLs, err = cmd.Flags().GetInt("max-urls")
	if err != nil {
		return nil, "", err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, "", err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, "", err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrent")
	if err != nil {
		return nil, "", err
	}

	ignoreRobots, err := cmd.Flags().GetBool("ignore-robots")
	if err != nil {
		return nil, "", err
	}
	cfg.RespectRobots = !ignoreRobots

	cfg.FollowExternalLinks, err = cmd.Flags().GetBool("follow-external")
	if err != nil {
		return nil, "", err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, "", err
	}

	headers, err := cmd.Flags().GetStringArray("header")
	if err != nil {
		return nil, "", err
	}
	cfg.Headers, err = parseHeaderFlags(headers)
	if err != nil {
		return nil, "", err
	}

	cfg.Proxy, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, "", err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, "", err
	}

	cfg.Output, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, "", err
	}

	cfg.Format, err = cmd.Flags().GetString("format")
	if err != nil {
		return nil, "", err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, "", err
	}
	cfg.SaveHistory = !noHistory

	dbDir, err := cmd.Flags().GetString("db")
	if err != nil {
		return nil, "", err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.ConfigFilePath = getConfigFlag(cmd)

	if err := loadSiteConfigs(cfg); err != nil {
		return nil, "", err
	}

	seed, err := crawler.Normalize(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("invalid seed URL: %w", err)
	}

	// Fold per-site settings for the seed's host into the config.
	u, err := url.Parse(seed)
	if err != nil {
		return nil, "", fmt.Errorf("invalid seed URL: %w", err)
	}
	cfg.Apply(cfg.SiteConfigs.GetSiteConfig(u.Host))

	return cfg, seed, nil
}

// loadSiteConfigs loads the site configuration file into cfg.
// If the user explicitly specified a config file path, error if not found.
// If no path was specified, silently use an empty config.
func loadSiteConfigs(cfg *config.Config) error {
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		siteConfigs, err := config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.SiteConfigs = siteConfigs
		return nil
	}

	if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.SiteConfigs = &config.File{
		Sites: make(map[string]config.SiteConfig),
	}
	return nil
}

// parseHeaderFlags parses repeated "Key: Value" header flags into a map.
func parseHeaderFlags(headers []string) (map[string]string, error) {
	if len(headers) == 0 {
		return nil, nil
	}

	parsed := make(map[string]string, len(headers))
	for _, header := range headers {
		key, value, ok := strings.Cut(header, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header %q (expected \"Key: Value\")", header)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid header %q (empty name)", header)
		}
		parsed[key] = strings.TrimSpace(value)
	}
	return parsed, nil
}

// runCrawl executes the crawl pipeline and writes the report.
func runCrawl(ctx context.Context, cfg *config.Config, seed string, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seed", seed,
		"maxDepth", cfg.MaxDepth,
		"maxURLs", cfg.MaxURLs,
		"concurrency", cfg.Concurrency,
		"saveHistory", cfg.SaveHistory,
	)

	// Open database connection if history is enabled
	var db *database.HistoryDB
	if cfg.SaveHistory {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Info("history database opened", "dir", cfg.DBDir)
	}

	spider, err := crawler.New(cfg, crawler.WithLogger(logger))
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddStep(pipeline.NewCrawlStep(spider, pipeline.WithCrawlLogger(logger)))
	if cfg.SaveHistory {
		p.AddStep(pipeline.NewHistoryStep(db, pipeline.WithHistoryLogger(logger)))
	}

	crawlReport := model.NewCrawlReport(seed, cfg.UserAgent)

	// Progress goes to stderr; stdout carries the report.
	fmt.Fprintf(os.Stderr, "Crawling %s...\n", seed)

	execErr := p.Execute(ctx, crawlReport)
	if execErr != nil && len(crawlReport.Results) == 0 {
		return execErr
	}

	// A cancelled crawl still produced partial results worth reporting.
	if err := outputReport(cfg, crawlReport); err != nil {
		return err
	}
	printSummary(os.Stderr, crawlReport, errors.Is(execErr, context.Canceled))

	return execErr
}

// printSummary writes the one-line run summary humans read after a crawl.
func printSummary(w io.Writer, crawlReport *model.CrawlReport, interrupted bool) {
	stats := crawlReport.Stats()
	status := "completed"
	if interrupted {
		status = "interrupted"
	}
	fmt.Fprintf(w, "Crawl %s in %s: %d pages (%d ok, %d failed), %d links found\n",
		status,
		crawlReport.Duration().Round(time.Millisecond),
		stats.Total, stats.Succeeded, stats.Failed, stats.LinksFound)
}

// outputReport writes the crawl report in the requested format.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport) error {
	// Determine output destination
	var output *os.File
	if cfg.Output != "" {
		f, err := createOutputFile(cfg.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	writer, err := newReportWriter(cfg, output)
	if err != nil {
		return err
	}
	_, err = writer.Write(crawlReport)
	return err
}

// newReportWriter selects the report writer for the configured format.
func newReportWriter(cfg *config.Config, output io.Writer) (report.Writer, error) {
	switch cfg.Format {
	case config.FormatJSON, "":
		return report.NewJSONWriter(output, report.WithPrettyPrint()), nil
	case config.FormatCSV:
		return report.NewCSVWriter(output), nil
	case config.FormatLinks:
		return report.NewLinksWriter(output), nil
	case config.FormatMarkdown:
		return report.NewMarkdownWriter(output), nil
	case config.FormatText:
		return report.NewTextWriter(output, report.WithVerbose(cfg.Verbose)), nil
	default:
		return nil, fmt.Errorf("unknown report format: %s", cfg.Format)
	}
}

// createOutputFile creates path's parent directories and opens the file
// for writing.
func createOutputFile(path string) (*os.File, error) {
	// Create directories if they don't exist
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Create/overwrite the output file with secure permissions (0600)
	// Reports may contain sensitive response headers that should only be
	// readable by the owner
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
