package report

import (
	"io"
	"slices"
	"strings"

	"github.com/nao1215/goop/internal/model"
)

// LinksWriter outputs every link discovered during the crawl, one per line,
// deduplicated and sorted. The format is designed for piping into other
// tools such as grep or xargs.
type LinksWriter struct {
	baseWriter
}

// NewLinksWriter creates a LinksWriter that outputs to the given writer.
func NewLinksWriter(output io.Writer) *LinksWriter {
	return &LinksWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the sorted set of links found on all crawled pages.
func (w *LinksWriter) Write(report *model.CrawlReport) (int, error) {
	seen := make(map[string]struct{})
	for _, result := range report.Results {
		for _, link := range result.Links {
			seen[link] = struct{}{}
		}
	}

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	slices.Sort(links)

	var sb strings.Builder
	for _, link := range links {
		sb.WriteString(link)
		sb.WriteByte('\n')
	}
	return io.WriteString(w.output, sb.String())
}
