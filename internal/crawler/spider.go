package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/nao1215/goop/internal/config"
	"github.com/nao1215/goop/internal/model"
	"golang.org/x/sync/errgroup"
)

// Spider walks a site breadth-first from a seed URL. It owns the crawl
// state (frontier, visited set, results) on a single control goroutine;
// fetch workers only ever see one URL at a time and report back through
// their Result. That keeps the workers free of shared mutable state.
type Spider struct {
	// client performs all HTTP requests, including robots.txt fetches.
	client *http.Client
	// fetcher retrieves and classifies individual pages.
	fetcher *Fetcher
	// extractor parses fetched HTML. Overridable for tests.
	extractor Extractor
	// maxDepth is the link distance from the seed beyond which links are
	// not followed. The seed itself is depth 0.
	maxDepth int
	// maxURLs caps the total number of results, successes and failures
	// alike.
	maxURLs int
	// concurrency is the number of pages fetched per batch.
	concurrency int
	// followExternal allows links pointing outside the seed's host.
	followExternal bool
	// logger records crawl progress. Defaults to slog.Default.
	logger *slog.Logger
}

// Option configures a Spider.
type Option func(*Spider)

// WithHTTPClient replaces the HTTP client. Useful for tests and for
// sharing a client between crawls.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Spider) {
		s.client = client
	}
}

// WithExtractor replaces the HTML extractor.
func WithExtractor(extractor Extractor) Option {
	return func(s *Spider) {
		s.extractor = extractor
	}
}

// WithLogger replaces the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Spider) {
		s.logger = logger
	}
}

// New builds a Spider from the configuration. The configuration is
// validated first, so a Spider that exists is always runnable.
func New(cfg *config.Config, opts ...Option) (*Spider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Spider{
		maxDepth:       cfg.MaxDepth,
		maxURLs:        cfg.MaxURLs,
		concurrency:    cfg.Concurrency,
		followExternal: cfg.FollowExternalLinks,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		client, err := newHTTPClient(cfg.Timeout, cfg.Proxy)
		if err != nil {
			return nil, err
		}
		s.client = client
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	fetcher, err := NewFetcher(cfg, s.client, s.extractor, s.logger)
	if err != nil {
		return nil, err
	}
	s.fetcher = fetcher
	return s, nil
}

// frontierEntry is a URL waiting to be fetched together with its link
// distance from the seed.
type frontierEntry struct {
	url   string
	depth int
}

// Crawl fetches seedURL and follows links breadth-first until the frontier
// drains or maxURLs results have accumulated. Every attempted URL yields
// exactly one Result; per-page failures are recorded, never fatal. The only
// error conditions are an invalid seed URL, which fails before any network
// activity, and context cancellation, which returns the results gathered
// so far alongside the context's error.
func (s *Spider) Crawl(ctx context.Context, seedURL string) ([]*model.Result, error) {
	seed, err := Normalize(seedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeedURL, seedURL)
	}
	seedParsed, err := url.Parse(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeedURL, seedURL)
	}

	s.logger.Info("starting crawl",
		"seed", seed,
		"max_depth", s.maxDepth,
		"max_urls", s.maxURLs,
		"concurrency", s.concurrency)

	frontier := []frontierEntry{{url: seed, depth: 0}}
	visited := make(map[string]struct{}, s.maxURLs)
	results := make([]*model.Result, 0, s.maxURLs)

	for len(frontier) > 0 && len(results) < s.maxURLs {
		select {
		case <-ctx.Done():
			s.logger.Info("crawl canceled", "results", len(results))
			return results, ctx.Err()
		default:
		}

		var batch []frontierEntry
		batch, frontier = popBatch(frontier, visited, s.concurrency)
		if len(batch) == 0 {
			continue
		}

		outcomes := s.fetchBatch(ctx, batch)

		full := false
		for i, outcome := range outcomes {
			outcome.Depth = batch[i].depth
			results = append(results, outcome)
			if len(results) >= s.maxURLs {
				full = true
				break
			}
			if batch[i].depth < s.maxDepth {
				frontier = s.collectLinks(frontier, visited, outcome, batch[i].depth+1, seedParsed)
			}
		}
		if full {
			break
		}
	}

	s.logger.Info("crawl finished", "results", len(results))
	return results, nil
}

// popBatch removes up to limit entries from the head of the frontier,
// skipping URLs already visited. Each popped URL is marked visited
// immediately, before any fetch starts, so no URL is ever dispatched twice
// even when it sits in the frontier more than once.
func popBatch(frontier []frontierEntry, visited map[string]struct{}, limit int) (batch, rest []frontierEntry) {
	batch = make([]frontierEntry, 0, limit)
	for len(frontier) > 0 && len(batch) < limit {
		entry := frontier[0]
		frontier = frontier[1:]
		if _, ok := visited[entry.url]; ok {
			continue
		}
		visited[entry.url] = struct{}{}
		batch = append(batch, entry)
	}
	return batch, frontier
}

// fetchBatch retrieves every entry of the batch and returns one outcome per
// entry, in the same order as the batch. With concurrency 1 the fetches run
// inline on the control goroutine; otherwise an errgroup fans them out and
// each worker writes into its own pre-assigned slot.
func (s *Spider) fetchBatch(ctx context.Context, batch []frontierEntry) []*model.Result {
	outcomes := make([]*model.Result, len(batch))

	if s.concurrency <= 1 {
		for i, entry := range batch {
			outcomes[i] = s.fetcher.Fetch(ctx, entry.url)
		}
		return outcomes
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, entry := range batch {
		g.Go(func() error {
			outcomes[i] = s.fetcher.Fetch(gctx, entry.url)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers record failures in their outcome, never as errors
	return outcomes
}

// collectLinks appends the outcome's links to the frontier at the given
// depth. Links that fail normalization are dropped silently; already
// visited links are skipped early to keep the frontier small, though
// popBatch would catch them anyway. Unless followExternal is set, links
// leaving the seed's host are not followed.
func (s *Spider) collectLinks(frontier []frontierEntry, visited map[string]struct{}, outcome *model.Result, depth int, seed *url.URL) []frontierEntry {
	for _, link := range outcome.Links {
		normalized, err := Normalize(link)
		if err != nil {
			continue
		}
		if _, ok := visited[normalized]; ok {
			continue
		}
		if !s.followExternal {
			linkURL, err := url.Parse(normalized)
			if err != nil || !SameHost(linkURL, seed) {
				continue
			}
		}
		frontier = append(frontier, frontierEntry{url: normalized, depth: depth})
	}
	return frontier
}
