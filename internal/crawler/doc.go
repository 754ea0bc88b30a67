// Package crawler implements goop's breadth-first web crawling engine.
//
// # Architecture
//
// The package is built around the Spider type, which owns the traversal
// state: the frontier of pending URLs, the visited set, and the depth and
// URL budgets. Everything the Spider consults before and during a fetch is
// its own instance state, so independent crawls share nothing.
//
// # Components
//
//   - Spider: the frontier scheduler driving the crawl
//   - Fetcher: performs one bounded GET and classifies the outcome
//   - robotsCache: per-origin robots.txt rules, fetched once per origin
//   - rateLimiter: per-origin politeness clock
//   - Normalize: URL canonicalization used for deduplication
//
// # Politeness
//
// The crawler is polite by default:
//   - Respects robots.txt (configurable, fail-open on errors)
//   - Spaces requests to the same origin by a configurable delay
//   - Bounds concurrent fetches, crawl depth, and total fetch attempts
//
// # Usage
//
//	spider, err := crawler.New(cfg)
//	if err != nil { ... }
//	results, err := spider.Crawl(ctx, "https://example.com")
//
// Per-URL failures never abort the crawl; they are recorded in the returned
// results. The only crawl-level errors are an invalid seed URL and context
// cancellation.
package crawler
