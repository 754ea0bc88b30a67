// Package database provides SQLite-based storage for crawl history.
//
// This package implements the HistoryDB, an append-only record of completed
// crawl runs: one row per run plus one row per fetched URL. The history
// backs the history and compare commands; it is never consulted to resume
// or influence a crawl.
//
// SQLite (via modernc.org/sqlite) keeps the whole history in a single file
// without CGO, so cross-compiled binaries work unchanged. WAL mode gives
// good concurrent read performance while a crawl is writing.
package database
