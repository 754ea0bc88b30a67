// Package parser extracts structured data from HTML documents: the page
// title, the whitespace-collapsed visible text, and outbound links resolved
// to absolute URLs. A CSS selector API backs ad-hoc extraction.
package parser
