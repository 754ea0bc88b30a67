package crawler

import "errors"

// Crawl-level errors. Per-URL failures are recorded as model.FetchError
// values in the results instead; these sentinels cover the few conditions
// that abort a crawl before or between fetches.
var (
	// ErrInvalidSeedURL is returned when the seed URL fails normalization.
	// A crawl cannot start from a URL without an http(s) scheme and a host.
	ErrInvalidSeedURL = errors.New("invalid seed URL: must be absolute http or https")

	// ErrInvalidProxyURL is returned when the configured proxy URL cannot
	// be parsed or uses an unsupported scheme.
	ErrInvalidProxyURL = errors.New("invalid proxy URL: must be http, https, or socks5")
)
