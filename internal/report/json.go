package report

import (
	"encoding/json"
	"io"

	"github.com/tsubute/arcache/internal/model"
)

// JSONWriter outputs results in JSON format for tool integration.
//
// Design decision: We use standard encoding/json rather than a
// third-party JSON library because it's sufficient for a report-sized
// document and keeps behavior consistent across Go versions.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the per-level indentation string.
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// Convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the result in JSON format.
func (w *JSONWriter) Write(result *model.Result) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(result, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(result)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
