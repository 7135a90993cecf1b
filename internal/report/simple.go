package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/leakwatch/internal/model"
)

// SimpleWriter outputs a plain-text summary for the terminal.
type SimpleWriter struct {
	baseWriter
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose also prints snippets and extracted entities.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write implements Writer.
func (w *SimpleWriter) Write(s *Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&sb, "LEAK SCAN: %s\n", s.Company)
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&sb, "Finished:   %s\n", s.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Candidates: %d\n", s.Candidates)
	fmt.Fprintf(&sb, "Leaks:      %d\n", len(s.Leaks))

	if len(s.Leaks) == 0 {
		sb.WriteString("\nNo potential leaks detected.\n")
		return io.WriteString(w.output, sb.String())
	}

	sb.WriteString("\nSources:\n")
	for _, leak := range s.Leaks {
		marker := "[NEW] "
		if leak.PreviouslySeen {
			marker = "[SEEN]"
		}
		fmt.Fprintf(&sb, "  %s %s\n", marker, leak.URL)
		if w.verbose {
			for _, snippet := range leak.RelevantSnippets {
				fmt.Fprintf(&sb, "         > %s\n", truncateString(snippet, 100))
			}
		}
	}

	if entities := s.Entities(); w.verbose && !entities.IsEmpty() {
		sb.WriteString("\nExtracted Information:\n")
		for _, cat := range model.EntityCategories {
			if items := entities[cat]; len(items) > 0 {
				fmt.Fprintf(&sb, "  %-20s %s\n", cat, strings.Join(items, ", "))
			}
		}
	}

	return io.WriteString(w.output, sb.String())
}
