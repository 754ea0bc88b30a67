package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/goop/internal/config"
	"github.com/nao1215/goop/internal/crawler"
	"github.com/nao1215/goop/internal/log"
	"github.com/nao1215/goop/internal/parser"
	"github.com/spf13/cobra"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [url] [selector]",
		Short: "Fetch one page and print CSS selector matches",
		Long: `Extract fetches a single page and applies a CSS selector to it,
printing one match per line. By default the matched elements' text is
printed; use --attr to print an attribute value instead.

The fetch goes through the same politeness stack as a crawl: robots.txt
is honored and per-site settings from the configuration file apply.

Examples:
  # Extract all link text from a page
  goop extract https://example.com a

  # Extract all link targets
  goop extract https://example.com a --attr href

  # Extract headlines into a file
  goop extract https://news.example.com h2 -o headlines.txt

  # Extract image sources from a slow site
  goop extract -t 60s https://example.com img -a src`,
		Args: cobra.ExactArgs(2),
		RunE: runExtractCmd,
	}

	cmd.Flags().StringP("attr", "a", "",
		"Print this attribute of matched elements instead of their text")
	cmd.Flags().StringP("output", "o", "",
		"Write matches to a file instead of stdout")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for the HTTP request")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header to send")

	return cmd
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildExtractConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	attr, err := cmd.Flags().GetString("attr")
	if err != nil {
		return err
	}

	matches, err := extractMatches(ctx, cfg, args[0], args[1], attr, logger)
	if err != nil {
		return err
	}

	return outputMatches(cfg.Output, matches)
}

// buildExtractConfig creates a single-fetch Config from extract's flags.
func buildExtractConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.Output, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.ConfigFilePath = getConfigFlag(cmd)

	if err := loadSiteConfigs(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// bodyCapture wraps the HTML extractor and keeps the decoded body of the
// last fetch so extract can run its own selector over the raw document.
type bodyCapture struct {
	extractor crawler.Extractor
	body      []byte
}

// Extract implements crawler.Extractor.
func (b *bodyCapture) Extract(body []byte, base *url.URL) *parser.Page {
	b.body = body
	return b.extractor.Extract(body, base)
}

// extractMatches fetches one page through the polite fetcher and applies
// the selector to its body.
func extractMatches(ctx context.Context, cfg *config.Config, rawURL, selector, attr string, logger *slog.Logger) ([]string, error) {
	target, err := crawler.Normalize(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	// Fold per-site settings for the target's host into the config.
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	cfg.Apply(cfg.SiteConfigs.GetSiteConfig(u.Host))

	capture := &bodyCapture{extractor: parser.New()}
	fetcher, err := crawler.NewFetcher(cfg, nil, capture, logger)
	if err != nil {
		return nil, err
	}

	result := fetcher.Fetch(ctx, target)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch %s: %s", target, result.Error)
	}

	if attr != "" {
		return parser.SelectAttr(capture.body, selector, attr)
	}
	return parser.SelectText(capture.body, selector)
}

// outputMatches writes matches one per line to stdout or a file.
func outputMatches(outputPath string, matches []string) error {
	var output *os.File
	if outputPath != "" {
		f, err := createOutputFile(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	for _, match := range matches {
		if _, err := fmt.Fprintln(output, match); err != nil {
			return err
		}
	}
	return nil
}
