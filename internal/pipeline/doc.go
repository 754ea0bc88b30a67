// Package pipeline sequences the phases of a crawl run.
//
// A run has two phases today: the crawl itself and recording the outcome
// in the history database. Each phase implements Step and receives the
// shared *model.CrawlReport; the crawl step fills it, later steps consume
// it. Pipeline executes the steps in order with consistent logging, error
// wrapping, and a cancellation check between steps.
package pipeline
