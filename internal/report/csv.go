package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// CSVHeader is the first row of every CSV report.
var CSVHeader = []string{"URL", "Discovery Time", "Content Hash"}

// CSVWriter writes one row per leak record.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write implements Writer.
func (w *CSVWriter) Write(s *Summary) (int, error) {
	cw := &countingWriter{w: w.output}
	out := csv.NewWriter(cw)

	if err := out.Write(CSVHeader); err != nil {
		return cw.n, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, leak := range s.Leaks {
		discovered := "Unknown"
		if !leak.DiscoveryTime.IsZero() {
			discovered = leak.DiscoveryTime.Format(time.RFC3339)
		}
		hash := leak.ContentHash
		if hash == "" {
			hash = "Unknown"
		}
		if err := out.Write([]string{leak.URL, discovered, hash}); err != nil {
			return cw.n, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	out.Flush()
	return cw.n, out.Error()
}
