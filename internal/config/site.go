package config

// SiteConfig holds per-site configuration for a single host.
// This allows customizing crawl behavior for known sites without
// repeating CLI flags.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the global max depth for this site.
	// If zero, the global MaxDepth is used.
	Depth int `yaml:"depth,omitempty"`

	// Delay overrides the global politeness delay for this site.
	// If zero, the global Delay is used.
	Delay Duration `yaml:"delay,omitempty"`

	// UserAgent overrides the global User-Agent for this site.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// File represents the structure of the .goop configuration file.
type File struct {
	// Sites maps hosts to their site-specific configurations.
	// Keys are bare hosts without a scheme (e.g. "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains site configuration applied to all sites unless
	// overridden in the site-specific entry.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a host, merging the
// site-specific entry over the defaults. A nil File has no entries.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	if cf == nil {
		return SiteConfig{}
	}
	result := cf.Defaults

	if siteConfig, ok := cf.Sites[host]; ok {
		if siteConfig.Cookie != "" {
			result.Cookie = siteConfig.Cookie
		}
		if siteConfig.Depth != 0 {
			result.Depth = siteConfig.Depth
		}
		if !siteConfig.Delay.IsZero() {
			result.Delay = siteConfig.Delay
		}
		if siteConfig.UserAgent != "" {
			result.UserAgent = siteConfig.UserAgent
		}
		if len(siteConfig.Headers) > 0 {
			// Merge into a fresh map; result.Headers still aliases the
			// shared defaults map at this point.
			merged := make(map[string]string, len(result.Headers)+len(siteConfig.Headers))
			for k, v := range result.Headers {
				merged[k] = v
			}
			for k, v := range siteConfig.Headers {
				merged[k] = v
			}
			result.Headers = merged
		}
	}

	return result
}

// Apply folds a site configuration into the crawl configuration.
// Only fields the site config sets are overridden.
func (c *Config) Apply(site SiteConfig) {
	if site.UserAgent != "" {
		c.UserAgent = site.UserAgent
	}
	if site.Depth != 0 {
		c.MaxDepth = site.Depth
	}
	if !site.Delay.IsZero() {
		c.Delay = site.Delay.Duration
	}
	if site.Cookie != "" {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		c.Headers["Cookie"] = site.Cookie
	}
	if len(site.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		for k, v := range site.Headers {
			c.Headers[k] = v
		}
	}
}
