package model

import (
	"encoding/json"
	"strconv"
)

// ErrorKind classifies why a fetch attempt did not produce page content.
type ErrorKind string

// Fetch error kinds. Kinds that carry extra information (the HTTP status,
// the offending content type, the transport message) render it in
// parentheses, e.g. "HTTPError(404)".
const (
	// KindInvalidURL means the URL failed validation before any request.
	KindInvalidURL ErrorKind = "InvalidURL"

	// KindRobotsDisallowed means robots.txt forbids fetching the URL.
	KindRobotsDisallowed ErrorKind = "RobotsDisallowed"

	// KindTimeout means the request exceeded the configured timeout.
	KindTimeout ErrorKind = "Timeout"

	// KindConnectionError means the connection could not be established,
	// including DNS resolution failures and refused connections.
	KindConnectionError ErrorKind = "ConnectionError"

	// KindHTTPError means the server answered with a non-200 status.
	KindHTTPError ErrorKind = "HTTPError"

	// KindNotHTML means a 200 response carried a non-HTML content type.
	KindNotHTML ErrorKind = "NotHTML"

	// KindUnknown covers transport failures with no narrower class.
	KindUnknown ErrorKind = "Unknown"
)

// FetchError describes why a single URL could not be crawled to content.
// It is per-URL data, not a control-flow error: the crawl records it in the
// Result and moves on.
type FetchError struct {
	// Kind is the failure classification.
	Kind ErrorKind `json:"kind"`

	// Detail carries kind-specific context: the status code for HTTPError,
	// the content type for NotHTML, the transport message for Unknown.
	Detail string `json:"detail,omitempty"`
}

// InvalidURL reports a URL that failed validation.
func InvalidURL() *FetchError {
	return &FetchError{Kind: KindInvalidURL}
}

// RobotsDisallowed reports a URL forbidden by robots.txt.
func RobotsDisallowed() *FetchError {
	return &FetchError{Kind: KindRobotsDisallowed}
}

// Timeout reports a request that exceeded its deadline.
func Timeout() *FetchError {
	return &FetchError{Kind: KindTimeout}
}

// ConnectionError reports a connection-level failure.
func ConnectionError() *FetchError {
	return &FetchError{Kind: KindConnectionError}
}

// HTTPError reports a non-200 response status.
func HTTPError(statusCode int) *FetchError {
	return &FetchError{Kind: KindHTTPError, Detail: strconv.Itoa(statusCode)}
}

// NotHTML reports a 200 response with a non-HTML content type.
func NotHTML(contentType string) *FetchError {
	return &FetchError{Kind: KindNotHTML, Detail: contentType}
}

// Unknown reports a transport failure with no narrower classification.
func Unknown(message string) *FetchError {
	return &FetchError{Kind: KindUnknown, Detail: message}
}

// String renders the error in its wire form: the bare kind, or
// "Kind(detail)" when the kind carries context.
func (e *FetchError) String() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + "(" + e.Detail + ")"
}

// Error implements the error interface with the String rendering.
func (e *FetchError) Error() string {
	return e.String()
}

// MarshalJSON serializes the error as its String form so reports show
// "HTTPError(404)" rather than a nested object.
func (e *FetchError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}
