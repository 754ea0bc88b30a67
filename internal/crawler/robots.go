package crawler

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// robotsCache answers "may this agent fetch this path" per origin.
// robots.txt is fetched and parsed at most once per origin per crawl run;
// any fetch or parse failure yields a permissive entry, so robots handling
// can never abort a crawl.
type robotsCache struct {
	client    *http.Client
	userAgent string

	mu      sync.Mutex
	entries map[string]*robotsEntry
}

// robotsEntry holds the rules for one origin. The sync.Once guarantees a
// single robots.txt fetch per origin even when concurrent workers ask about
// the same origin at the same time. Nil data means everything is allowed.
type robotsEntry struct {
	once sync.Once
	data *robotstxt.RobotsData
}

// newRobotsCache creates an empty cache that fetches robots.txt with the
// given client and matches rules against the given agent string.
func newRobotsCache(client *http.Client, userAgent string) *robotsCache {
	return &robotsCache{
		client:    client,
		userAgent: userAgent,
		entries:   make(map[string]*robotsEntry),
	}
}

// Allows reports whether the configured agent may fetch the URL. The first
// query for an origin fetches {origin}/robots.txt; later queries are cache
// hits.
func (rc *robotsCache) Allows(ctx context.Context, u *url.URL) bool {
	origin := Origin(u)

	rc.mu.Lock()
	entry, ok := rc.entries[origin]
	if !ok {
		entry = &robotsEntry{}
		rc.entries[origin] = entry
	}
	rc.mu.Unlock()

	entry.once.Do(func() {
		entry.data = rc.fetchRobots(ctx, origin)
	})

	if entry.data == nil {
		return true
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return entry.data.TestAgent(path, rc.userAgent)
}

// fetchRobots retrieves and parses robots.txt for an origin. Returns nil,
// meaning permissive, when the file cannot be fetched or parsed. Status
// handling follows robotstxt.FromResponse: any 4xx allows everything, 5xx
// disallows everything.
func (rc *robotsCache) fetchRobots(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", rc.userAgent)

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	// FromResponse reports a 5xx as a disallow-all ruleset plus an error,
	// so the fetch is unusable only when there is no ruleset at all.
	robots, err := robotstxt.FromResponse(resp)
	if err != nil && robots == nil {
		return nil
	}
	return robots
}
