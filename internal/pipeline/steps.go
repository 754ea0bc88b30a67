package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/goop/internal/crawler"
	"github.com/nao1215/goop/internal/database"
	"github.com/nao1215/goop/internal/model"
)

// CrawlStep runs the breadth-first crawl from the report's seed URL.
// It is the step that does the actual work; every later step consumes
// the results it stores on the report.
type CrawlStep struct {
	// spider performs the crawl.
	spider *crawler.Spider

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a crawl step backed by the given spider.
func NewCrawlStep(spider *crawler.Spider, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		spider: spider,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do crawls from the report's seed URL and records the results on the
// report. Partial results are recorded even when the crawl stops early,
// so a cancelled run still produces a usable report.
func (s *CrawlStep) Do(ctx context.Context, report *model.CrawlReport) error {
	results, err := s.spider.Crawl(ctx, report.SeedURL)
	report.Finish(results)

	if err != nil {
		s.logger.Warn("crawl stopped early",
			"seed", report.SeedURL,
			"results", len(results),
			"error", err)
		return err
	}

	stats := report.Stats()
	s.logger.Info("crawl completed",
		"seed", report.SeedURL,
		"pages", stats.Total,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"links", stats.LinksFound,
		"duration", report.Duration())
	return nil
}

// HistoryStep records the finished crawl in the history database so
// later runs can be compared against it.
type HistoryStep struct {
	// db is the history database. A nil db turns the step into a no-op.
	db *database.HistoryDB

	// logger for structured logging.
	logger *slog.Logger
}

// HistoryStepOption configures a HistoryStep.
type HistoryStepOption func(*HistoryStep)

// WithHistoryLogger sets a custom logger for the history step.
func WithHistoryLogger(logger *slog.Logger) HistoryStepOption {
	return func(s *HistoryStep) {
		s.logger = logger
	}
}

// NewHistoryStep creates a history step that saves reports to db.
// Passing a nil db is allowed and disables persistence.
func NewHistoryStep(db *database.HistoryDB, opts ...HistoryStepOption) *HistoryStep {
	s := &HistoryStep{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return "history"
}

// Do saves the report to the history database.
func (s *HistoryStep) Do(ctx context.Context, report *model.CrawlReport) error {
	if s.db == nil {
		s.logger.Debug("skipping history, no database configured")
		return nil
	}

	if err := s.db.SaveReport(ctx, report); err != nil {
		return err
	}

	s.logger.Info("run recorded",
		"run_id", report.RunID,
		"seed", report.SeedURL,
		"results", len(report.Results))
	return nil
}
