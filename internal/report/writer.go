package report

import (
	"io"

	"github.com/nao1215/goop/internal/model"
)

// Writer outputs a crawl report to a configured destination. Implementations
// render the report in one specific format.
type Writer interface {
	// Write outputs the report. It returns the number of bytes written and
	// any error encountered.
	Write(report *model.CrawlReport) (int, error)
}

// MultiWriter writes a report to several Writers in turn, for example to
// both the terminal and a file. It differs from io.MultiWriter in that it
// forwards reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers. It returns the total
// bytes written across all writers and stops at the first error.
func (m *MultiWriter) Write(report *model.CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds the output destination shared by all report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// countingWriter wraps an io.Writer and tracks how many bytes pass through.
// Writers that stream through an encoder use it to report their byte count.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
