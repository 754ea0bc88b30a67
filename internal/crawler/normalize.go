package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL so that identical resources compare equal:
// the fragment is stripped, the query is re-encoded with keys sorted and
// duplicate keys kept in their original relative order, and an empty path
// becomes "/". Scheme and host are lowercased. Empty-valued query
// parameters are dropped.
//
// It returns an error for structurally invalid URLs: no scheme, a scheme
// other than http or https, or an empty host. Normalize is idempotent.
func Normalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", rawURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in %q", u.Scheme, rawURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", rawURL)
	}

	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	u.RawQuery = normalizeQuery(u.RawQuery)

	return u.String(), nil
}

// normalizeQuery re-encodes a query string with keys sorted
// lexicographically. Values of a repeated key keep their original order.
// Parameters with empty values are dropped. A query that does not parse is
// kept verbatim.
func normalizeQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery
	}

	for key, vals := range values {
		kept := vals[:0]
		for _, v := range vals {
			if v != "" {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			delete(values, key)
			continue
		}
		values[key] = kept
	}

	// url.Values.Encode sorts by key and preserves per-key value order.
	return values.Encode()
}

// Origin returns the politeness scope of a parsed URL: scheme://host[:port].
// Robots rules and rate-limit clocks are keyed by this value.
func Origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

// SameHost reports whether two parsed URLs share a host, ignoring case.
// Ports are part of the host and must match.
func SameHost(a, b *url.URL) bool {
	return strings.EqualFold(a.Host, b.Host)
}
