package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/leakwatch/internal/model"
)

// JSONWriter outputs the leak record list.
type JSONWriter struct {
	baseWriter
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint indents the output by two spaces.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = "  "
	}
}

// NewJSONWriter creates a JSONWriter.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write implements Writer. The output is the bare record array.
func (w *JSONWriter) Write(s *Summary) (int, error) {
	data, err := MarshalLeaks(s.Leaks, w.indent)
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}

// MarshalLeaks encodes leaks as a JSON array. A nil slice encodes as [].
func MarshalLeaks(leaks []*model.LeakRecord, indent string) ([]byte, error) {
	if leaks == nil {
		leaks = []*model.LeakRecord{}
	}
	if indent != "" {
		return json.MarshalIndent(leaks, "", indent)
	}
	return json.Marshal(leaks)
}

// UnmarshalLeaks decodes a JSON array of leak records.
func UnmarshalLeaks(data []byte) ([]*model.LeakRecord, error) {
	var leaks []*model.LeakRecord
	if err := json.Unmarshal(data, &leaks); err != nil {
		return nil, err
	}
	return leaks, nil
}
