package report

import (
	"io"
	"time"

	"github.com/nao1215/leakwatch/internal/model"
)

// Summary is the input of every writer.
type Summary struct {
	Company     string
	RunID       string
	GeneratedAt time.Time
	Candidates  int
	Leaks       []*model.LeakRecord
}

// NewSummary builds a summary from a finished run.
func NewSummary(run *model.ScanRun) *Summary {
	return &Summary{
		Company:     run.Company,
		RunID:       run.ID,
		GeneratedAt: run.FinishedAt,
		Candidates:  len(run.Candidates),
		Leaks:       run.Leaks,
	}
}

// Entities returns the bundle of the representative record, if any.
func (s *Summary) Entities() model.EntityBundle {
	if len(s.Leaks) == 0 {
		return nil
	}
	return s.Leaks[0].ExtractedInfo
}

// Writer renders a summary.
type Writer interface {
	// Write outputs the summary and returns the number of bytes written.
	Write(s *Summary) (int, error)
}

// baseWriter holds the destination common to all writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// countingWriter counts bytes passed to w.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

// truncateString cuts s to maxLen runes, marking the cut with "...".
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
