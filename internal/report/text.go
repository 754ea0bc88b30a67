package report

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/goop/internal/model"
)

// TextWriter outputs human-readable text reports for terminal display.
// Plain ASCII formatting keeps the output safe to pipe into files and
// other tools.
type TextWriter struct {
	baseWriter

	// verbose enables per-result detail in the output.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithVerbose enables verbose output with per-result links, depth, and
// redirect targets.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *TextWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeResults(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the report header with crawl metadata.
func (w *TextWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          GOOP CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Seed URL:      %s\n", report.SeedURL)
	fmt.Fprintf(sb, "Started:       %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:      %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Pages Crawled: %d\n", len(report.Results))
	sb.WriteString("\n")
}

// writeSummary writes the outcome summary section.
func (w *TextWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	stats := report.Stats()

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  SUCCEEDED:   %d\n", stats.Succeeded)
	fmt.Fprintf(sb, "  FAILED:      %d\n", stats.Failed)
	fmt.Fprintf(sb, "  LINKS FOUND: %d\n", stats.LinksFound)

	if len(stats.ByKind) > 0 {
		sb.WriteString("\n")
		kinds := make([]model.ErrorKind, 0, len(stats.ByKind))
		for kind := range stats.ByKind {
			kinds = append(kinds, kind)
		}
		slices.Sort(kinds)
		for _, kind := range kinds {
			fmt.Fprintf(sb, "  %-17s %d\n", string(kind)+":", stats.ByKind[kind])
		}
	}
	sb.WriteString("\n")
}

// writeResults writes one line per crawled URL, with optional detail.
func (w *TextWriter) writeResults(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RESULTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Results) == 0 {
		sb.WriteString("  No pages crawled\n\n")
		return
	}

	for _, result := range report.Results {
		if result.IsSuccess() {
			fmt.Fprintf(sb, "  [+] %s (%d)", result.RequestedURL, result.StatusCode)
			if result.Title != "" {
				fmt.Fprintf(sb, " %s", result.Title)
			}
			sb.WriteString("\n")
		} else {
			fmt.Fprintf(sb, "  [-] %s %s\n", result.RequestedURL, result.Error)
		}

		if w.verbose {
			fmt.Fprintf(sb, "      depth: %d, links: %d\n", result.Depth, len(result.Links))
			if result.FinalURL != "" && result.FinalURL != result.RequestedURL {
				fmt.Fprintf(sb, "      redirected to: %s\n", result.FinalURL)
			}
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *TextWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by goop\n")
	sb.WriteString("https://github.com/nao1215/goop\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
