package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/nao1215/goop/internal/model"
)

// csvHeader is the column layout of CSV reports. The columns mirror the
// JSON result fields so both formats carry the same information.
var csvHeader = []string{
	"url", "final_url", "status_code", "title",
	"depth", "links", "content_length", "error",
}

// CSVWriter outputs one row per crawled URL, suitable for spreadsheets and
// further processing with standard tooling.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report as a CSV document with a header row.
func (w *CSVWriter) Write(report *model.CrawlReport) (int, error) {
	counter := &countingWriter{w: w.output}
	cw := csv.NewWriter(counter)

	if err := cw.Write(csvHeader); err != nil {
		return counter.n, err
	}

	for _, result := range report.Results {
		row := []string{
			result.RequestedURL,
			result.FinalURL,
			strconv.Itoa(result.StatusCode),
			result.Title,
			strconv.Itoa(result.Depth),
			strconv.Itoa(len(result.Links)),
			strconv.Itoa(result.ContentLength()),
			result.Error.String(),
		}
		if err := cw.Write(row); err != nil {
			return counter.n, err
		}
	}

	cw.Flush()
	return counter.n, cw.Error()
}
