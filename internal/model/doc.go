// Package model defines the core data structures used throughout goop.
//
// This package contains the following main types:
//   - Result: the record of one fetch attempt, successful or not
//   - FetchError: the per-URL failure classification carried by a Result
//   - CrawlReport: one crawl run with its results and summary statistics
//
// Models live in their own package because multiple packages (crawler,
// report, database) consume them; centralizing them prevents import cycles.
// All types are serializable to JSON for report output and database storage.
package model
