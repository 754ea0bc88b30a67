package config

import "errors"

// Configuration validation errors. These are returned by Config.Validate()
// as package-level sentinels so callers can use errors.Is() for programmatic
// handling while still getting human-readable messages.
var (
	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when the politeness delay is negative.
	// Use 0 to disable delays between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidMaxDepth is returned when the maximum depth is negative.
	// Depth 0 crawls only the seed page.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxURLs is returned when the URL budget is below one.
	// At least the seed URL must be fetchable.
	ErrInvalidMaxURLs = errors.New("invalid max urls: must be at least 1")

	// ErrInvalidConcurrency is returned when the concurrency is below one.
	// Use 1 for sequential crawling.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to disable the size cap.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidFormat is returned when the report format is not one of
	// json, csv, links, markdown, or text.
	ErrInvalidFormat = errors.New("invalid format: must be one of json, csv, links, markdown, text")
)
