package report

import (
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/nao1215/goop/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format, designed for
// documentation and sharing. Summary numbers are rendered as tables, the
// outcome distribution as a mermaid pie chart.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeResults(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl metadata.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + report.SeedURL + "`"},
			{"Run ID", "`" + report.RunID + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"User Agent", report.UserAgent},
		},
	})
	md.PlainText("")
}

// writeSummary writes the outcome summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	stats := report.Stats()

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages crawled", strconv.Itoa(stats.Total)},
			{"Succeeded", strconv.Itoa(stats.Succeeded)},
			{"Failed", strconv.Itoa(stats.Failed)},
			{"Links found", strconv.Itoa(stats.LinksFound)},
		},
	})
	md.PlainText("")

	if stats.Failed > 0 {
		w.writePieChart(md, stats)
	}
	w.writeAlert(md, stats)
}

// writePieChart writes a mermaid pie chart of the outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats model.Stats) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Fetch Outcomes"),
		piechart.WithShowData(true),
	)

	if stats.Succeeded > 0 {
		chart.LabelAndIntValue("Succeeded", uint64(stats.Succeeded))
	}

	kinds := make([]model.ErrorKind, 0, len(stats.ByKind))
	for kind := range stats.ByKind {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	for _, kind := range kinds {
		chart.LabelAndIntValue(string(kind), uint64(stats.ByKind[kind]))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert summarizing how the crawl went.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, stats model.Stats) {
	switch {
	case stats.Total == 0:
		md.Note("No pages were crawled.")
	case stats.Failed == 0:
		md.Tip("All pages fetched successfully.")
	case stats.Succeeded == 0:
		md.Cautionf("All %d fetches failed.", stats.Failed)
	default:
		md.Warningf("%d of %d fetches failed.", stats.Failed, stats.Total)
	}
	md.PlainText("")
}

// writeResults writes the per-URL results table.
func (w *MarkdownWriter) writeResults(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Results")
	md.PlainText("")

	if len(report.Results) == 0 {
		md.PlainText("No results.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Results))
	for i, result := range report.Results {
		status := "-"
		if result.StatusCode != 0 {
			status = strconv.Itoa(result.StatusCode)
		}
		errText := "-"
		if result.Error != nil {
			errText = result.Error.String()
		}

		rows[i] = []string{
			"`" + truncateString(result.RequestedURL, 60) + "`",
			status,
			truncateString(result.Title, 40),
			strconv.Itoa(result.Depth),
			strconv.Itoa(len(result.Links)),
			errText,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Title", "Depth", "Links", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [goop](https://github.com/nao1215/goop)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
