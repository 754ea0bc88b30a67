package model

import "net/http"

// Result records the outcome of one fetch attempt. Exactly one Result is
// produced per URL selected from the frontier, whether the fetch succeeded
// or failed, and it is never mutated after the crawler appends it.
type Result struct {
	// RequestedURL is the normalized URL that was selected for fetching.
	RequestedURL string `json:"url"`

	// FinalURL is the URL after following redirects.
	// Empty when no request was issued (invalid URL, robots block).
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP response status code.
	// Zero when no response was received.
	StatusCode int `json:"status_code"`

	// Title is the page title extracted from the <title> tag,
	// falling back to the first <h1>. Empty for non-HTML responses.
	Title string `json:"title,omitempty"`

	// Text is the readable text content of the page with scripts,
	// styles, and markup removed and whitespace collapsed.
	Text string `json:"content,omitempty"`

	// Links contains the outbound links discovered on the page, in
	// document order, resolved to absolute http(s) URLs.
	Links []string `json:"links,omitempty"`

	// Headers contains the response headers, one value per name.
	// Names are in canonical form; for repeated headers the first
	// value wins.
	Headers map[string]string `json:"headers,omitempty"`

	// Depth is the link distance from the seed URL. The seed is depth 0.
	Depth int `json:"depth"`

	// Error classifies why the fetch produced no page content.
	// Nil on success.
	Error *FetchError `json:"error,omitempty"`
}

// IsSuccess reports whether the fetch produced page content.
func (r *Result) IsSuccess() bool {
	return r.Error == nil
}

// ContentLength returns the length of the extracted text in bytes.
func (r *Result) ContentLength() int {
	return len(r.Text)
}

// Header returns the value of the named response header, looked up in
// canonical form. Returns an empty string when the header is absent.
func (r *Result) Header(name string) string {
	return r.Headers[http.CanonicalHeaderKey(name)]
}
