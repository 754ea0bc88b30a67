// Package config provides configuration structures and utilities for goop.
// It defines the crawl engine options, their defaults and validation, and
// the optional .goop YAML file with per-site overrides.
package config
