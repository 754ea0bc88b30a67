// Package report provides crawl report output in multiple formats.
//
// This package contains writers for different destinations and formats:
//   - TextWriter: human-readable text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - CSVWriter: one row per crawled URL for spreadsheets
//   - LinksWriter: discovered links, one per line, for piping
//   - MarkdownWriter: shareable Markdown with summary tables
//
// Writers implement the Writer interface, so they can be used
// interchangeably and composed with MultiWriter for multi-destination
// output. Report data structures live in the model package; writers only
// render them.
package report
