package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These match the defaults goop has shipped
// with since 0.1.0; all of them can be overridden via CLI flags or the
// .goop configuration file.
const (
	// DefaultUserAgent identifies goop in HTTP requests. A descriptive
	// User-Agent lets site operators identify crawler traffic in their logs.
	DefaultUserAgent = "goop/0.1.0 (+https://github.com/nao1215/goop)"

	// DefaultDelay is the minimum spacing between requests to the same
	// origin. One second is conservative and respectful of server resources.
	DefaultDelay = 1 * time.Second

	// DefaultMaxDepth is the maximum link distance from the seed URL.
	// Depth 0 means only the seed page is fetched.
	DefaultMaxDepth = 3

	// DefaultMaxURLs caps the total number of fetch attempts per crawl.
	// This prevents runaway crawling on large or infinitely-generating sites.
	DefaultMaxURLs = 100

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency is the number of fetches dispatched in parallel.
	// One means strictly sequential crawling.
	DefaultConcurrency = 1

	// DefaultMaxBodySize limits how much of a response body is read.
	// Larger responses are truncated at this size.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultFormat is the report format used when none is requested.
	DefaultFormat = FormatJSON

	// AppName is the application name used for XDG directory paths.
	AppName = "goop"
)

// Report formats accepted by Config.Format.
const (
	// FormatJSON writes one JSON object per result.
	FormatJSON = "json"

	// FormatCSV writes one CSV row per result.
	FormatCSV = "csv"

	// FormatLinks writes the sorted set of unique outbound links.
	FormatLinks = "links"

	// FormatMarkdown writes a Markdown report with summary tables.
	FormatMarkdown = "markdown"

	// FormatText writes an aligned plain-text summary for terminals.
	FormatText = "text"
)

// Config holds all configuration options for a crawl. The struct is
// populated from CLI flags and the optional config file, validated once
// before the crawl starts, and passed through the application explicitly
// rather than via global state.
type Config struct {
	// UserAgent is the User-Agent header sent with every request. It is
	// also the agent name matched against robots.txt groups.
	UserAgent string

	// Delay is the minimum spacing between requests to the same origin.
	// Zero disables politeness delays entirely.
	Delay time.Duration

	// MaxDepth is the maximum link distance from the seed URL. Links
	// discovered on a page at MaxDepth are not followed.
	MaxDepth int

	// MaxURLs caps the total number of fetch attempts for the crawl.
	MaxURLs int

	// Timeout is the per-request timeout, covering connection setup,
	// redirects, and body download.
	Timeout time.Duration

	// RespectRobots controls whether robots.txt is fetched and honored.
	// When false no robots.txt requests are made at all.
	RespectRobots bool

	// FollowExternalLinks allows the crawl to leave the seed's host.
	// When false, discovered links to other hosts are not enqueued.
	FollowExternalLinks bool

	// Concurrency is the number of fetches dispatched in parallel per
	// batch. One means strictly sequential crawling.
	Concurrency int

	// Headers are extra HTTP headers sent with every request, merged over
	// the built-in browser-like defaults.
	Headers map[string]string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated. Zero means no limit.
	MaxBodySize int64

	// Proxy routes all requests through a proxy. Supported schemes:
	// http, https, and socks5 (e.g. "socks5://127.0.0.1:9050").
	// Empty means direct connections.
	Proxy string

	// Output is the file path reports are written to.
	// Empty means stdout.
	Output string

	// Format selects the report writer: json, csv, links, markdown, text.
	Format string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is an explicit path to the configuration file. If
	// empty, the tool searches for .goop in the current directory, the
	// XDG config directory, and the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File

	// DBDir is the directory holding the crawl history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveHistory controls whether completed runs are recorded in the
	// history database.
	SaveHistory bool
}

// NewConfig creates a Config with the documented defaults. Many defaults
// are non-zero, so the zero value of Config is not usable as-is.
func NewConfig() *Config {
	return &Config{
		UserAgent:     DefaultUserAgent,
		Delay:         DefaultDelay,
		MaxDepth:      DefaultMaxDepth,
		MaxURLs:       DefaultMaxURLs,
		Timeout:       DefaultTimeout,
		RespectRobots: true,
		Concurrency:   DefaultConcurrency,
		MaxBodySize:   DefaultMaxBodySize,
		Format:        DefaultFormat,
		DBDir:         XDGDataDir(),
		SaveHistory:   true,
	}
}

// XDGDataDir returns the XDG data directory for goop.
// On Linux: ~/.local/share/goop
// On macOS: ~/Library/Application Support/goop
// On Windows: %LOCALAPPDATA%\goop
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for goop.
// On Linux: ~/.config/goop
// On macOS: ~/Library/Application Support/goop
// On Windows: %APPDATA%\goop
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns a sentinel error describing
// the first problem found. It is called once after CLI parsing, before any
// crawling begins.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.MaxURLs < 1 {
		return ErrInvalidMaxURLs
	}
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Format != "" && !validFormat(c.Format) {
		return ErrInvalidFormat
	}
	return nil
}

func validFormat(format string) bool {
	switch format {
	case FormatJSON, FormatCSV, FormatLinks, FormatMarkdown, FormatText:
		return true
	}
	return false
}
