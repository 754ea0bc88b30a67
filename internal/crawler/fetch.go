package crawler

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/nao1215/goop/internal/config"
	"github.com/nao1215/goop/internal/model"
	"github.com/nao1215/goop/internal/parser"
	"golang.org/x/net/html/charset"
)

// Extractor turns a fetched HTML document into its title, readable text,
// and outbound links. The body is the decoded (UTF-8) document and base is
// the final URL of the response, used to resolve relative links.
type Extractor interface {
	Extract(body []byte, base *url.URL) *parser.Page
}

// defaultHeaders are sent with every request unless overridden by
// user-supplied headers. They mirror what a regular browser advertises so
// servers negotiate compressed HTML instead of serving fallback pages.
var defaultHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Accept-Encoding":           "gzip, deflate, br",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// Fetcher retrieves a single page and classifies the outcome. It owns the
// politeness machinery shared by all requests of a crawl: the per-origin
// robots.txt cache and the per-origin rate limiter. A Fetcher never fails
// as a whole; every problem is folded into the returned Result.
type Fetcher struct {
	client      *http.Client
	robots      *robotsCache
	limiter     *rateLimiter
	extractor   Extractor
	userAgent   string
	headers     map[string]string
	maxBodySize int64
	logger      *slog.Logger
}

// NewFetcher builds a Fetcher from the configuration. A nil client,
// extractor, or logger selects the default: a fresh HTTP client honoring
// cfg.Timeout and cfg.Proxy, the built-in HTML extractor, and slog.Default.
// The robots cache is only created when cfg.RespectRobots is set, so
// disabling robots skips the robots.txt fetch entirely.
func NewFetcher(cfg *config.Config, client *http.Client, extractor Extractor, logger *slog.Logger) (*Fetcher, error) {
	if client == nil {
		c, err := newHTTPClient(cfg.Timeout, cfg.Proxy)
		if err != nil {
			return nil, err
		}
		client = c
	}
	if extractor == nil {
		extractor = parser.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	f := &Fetcher{
		client:      client,
		limiter:     newRateLimiter(cfg.Delay),
		extractor:   extractor,
		userAgent:   cfg.UserAgent,
		headers:     cfg.Headers,
		maxBodySize: cfg.MaxBodySize,
		logger:      logger,
	}
	if cfg.RespectRobots {
		f.robots = newRobotsCache(client, cfg.UserAgent)
	}
	return f, nil
}

// Fetch retrieves rawURL and returns a Result describing what happened.
// The checks run in a fixed order: URL validity, robots.txt permission,
// rate limit, then the request itself. The first failing check decides the
// outcome, so a URL disallowed by robots.txt never consumes a rate-limit
// slot and never reaches the network.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *model.Result {
	result := &model.Result{RequestedURL: rawURL}

	normalized, err := Normalize(rawURL)
	if err != nil {
		result.Error = model.InvalidURL()
		return result
	}
	result.RequestedURL = normalized

	u, err := url.Parse(normalized)
	if err != nil {
		result.Error = model.InvalidURL()
		return result
	}

	if f.robots != nil && !f.robots.Allows(ctx, u) {
		f.logger.Debug("blocked by robots.txt", "url", normalized)
		result.Error = model.RobotsDisallowed()
		return result
	}

	if err := f.limiter.Wait(ctx, Origin(u)); err != nil {
		result.Error = model.Unknown(err.Error())
		return result
	}

	resp, err := f.do(ctx, normalized)
	if err != nil {
		result.Error = classifyTransportError(err)
		f.logger.Debug("fetch failed", "url", normalized, "error", result.Error)
		return result
	}
	defer resp.Body.Close()

	result.FinalURL = resp.Request.URL.String()
	result.StatusCode = resp.StatusCode
	result.Headers = flattenHeaders(resp.Header)

	if resp.StatusCode != http.StatusOK {
		result.Error = model.HTTPError(resp.StatusCode)
		return result
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		result.Error = model.NotHTML(contentType)
		return result
	}

	body, err := f.readBody(resp, contentType)
	if err != nil {
		result.Error = classifyTransportError(err)
		return result
	}

	page := f.extractor.Extract(body, resp.Request.URL)
	result.Title = page.Title
	result.Text = page.Text
	result.Links = page.Links
	f.logger.Debug("fetched", "url", normalized, "status", resp.StatusCode, "links", len(page.Links))
	return result
}

// do issues the GET request with the default header set, the configured
// User-Agent, and any user-supplied headers layered on top in that order.
func (f *Fetcher) do(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range defaultHeaders {
		req.Header.Set(key, value)
	}
	req.Header.Set("User-Agent", f.userAgent)
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}
	return f.client.Do(req)
}

// readBody decompresses the response body according to Content-Encoding,
// converts it to UTF-8 based on the Content-Type charset and document
// hints, and reads at most maxBodySize bytes. Oversized bodies are
// truncated at the cap rather than rejected.
func (f *Fetcher) readBody(resp *http.Response, contentType string) ([]byte, error) {
	reader, err := decompress(resp)
	if err != nil {
		return nil, err
	}

	decoded, err := charset.NewReader(reader, contentType)
	if err != nil {
		return nil, err
	}

	if f.maxBodySize > 0 {
		decoded = io.LimitReader(decoded, f.maxBodySize)
	}
	return io.ReadAll(decoded)
}

// decompress wraps the response body in the decoder matching its
// Content-Encoding header. Unknown encodings are passed through untouched.
func decompress(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "deflate":
		return flate.NewReader(resp.Body), nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

// classifyTransportError maps a request or body-read error onto the outcome
// taxonomy. Timeouts (including the client deadline) become Timeout, DNS
// and dial failures become ConnectionError, and anything else is Unknown
// with the error text preserved.
func classifyTransportError(err error) *model.FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.Timeout()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.Timeout()
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return model.ConnectionError()
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return model.ConnectionError()
	}
	return model.Unknown(err.Error())
}

// isHTML reports whether the Content-Type header denotes an HTML document.
func isHTML(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}

// flattenHeaders reduces the response headers to one value per name. When
// a header appears multiple times the first value wins.
func flattenHeaders(header http.Header) map[string]string {
	if len(header) == 0 {
		return nil
	}
	flat := make(map[string]string, len(header))
	for name, values := range header {
		if len(values) > 0 {
			flat[name] = values[0]
		}
	}
	return flat
}
