// Package main provides the entry point for the goop CLI.
//
// goop is a polite, bounded, breadth-first web crawler and scraper.
// It honors robots.txt, rate-limits per host, and writes crawl reports
// in JSON, CSV, Markdown, plain text, or as a plain list of links.
//
// Usage:
//
//	goop crawl <url>
//	goop extract <url> <selector>
//
// See --help for all available options.
package main

// main is the entry point for goop.
func main() {
	Execute()
}
