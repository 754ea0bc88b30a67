package model

import (
	"time"

	"github.com/google/uuid"
)

// CrawlReport groups the results of one crawl run together with the run
// metadata the writers and the history database need.
type CrawlReport struct {
	// RunID uniquely identifies this crawl run.
	RunID string `json:"run_id"`

	// SeedURL is the normalized URL the crawl started from.
	SeedURL string `json:"seed_url"`

	// UserAgent is the agent string the crawl identified itself with.
	UserAgent string `json:"user_agent,omitempty"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the crawl completed.
	FinishedAt time.Time `json:"finished_at"`

	// Results holds one entry per fetch attempt, in crawl order.
	Results []*Result `json:"results"`
}

// NewCrawlReport creates a report for a crawl starting now.
func NewCrawlReport(seedURL, userAgent string) *CrawlReport {
	return &CrawlReport{
		RunID:     uuid.NewString(),
		SeedURL:   seedURL,
		UserAgent: userAgent,
		StartedAt: time.Now(),
	}
}

// Finish stamps the completion time and attaches the crawl results.
func (r *CrawlReport) Finish(results []*Result) {
	r.FinishedAt = time.Now()
	r.Results = results
}

// Duration returns how long the crawl ran.
func (r *CrawlReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Stats summarizes a crawl run for terminal output and run listings.
type Stats struct {
	// Total is the number of fetch attempts.
	Total int `json:"total"`

	// Succeeded is the number of fetches that produced page content.
	Succeeded int `json:"succeeded"`

	// Failed is the number of fetches recorded with an error.
	Failed int `json:"failed"`

	// LinksFound is the total number of outbound links discovered.
	LinksFound int `json:"links_found"`

	// ByKind counts failed fetches per error kind.
	ByKind map[ErrorKind]int `json:"by_kind,omitempty"`
}

// Stats computes summary statistics over the report's results.
func (r *CrawlReport) Stats() Stats {
	stats := Stats{Total: len(r.Results)}
	for _, result := range r.Results {
		stats.LinksFound += len(result.Links)
		if result.IsSuccess() {
			stats.Succeeded++
			continue
		}
		stats.Failed++
		if stats.ByKind == nil {
			stats.ByKind = make(map[ErrorKind]int)
		}
		stats.ByKind[result.Error.Kind]++
	}
	return stats
}
