package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/webconv/internal/model"
)

// JSONWriter outputs run summaries as JSON, one document per call.
// URLs are written verbatim, without HTML escaping of '&', '<' and '>'.
type JSONWriter struct {
	output  io.Writer
	prefix  string
	indent  string
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents nested values with indent, prefixing each line with
// prefix.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix = prefix
		w.indent = indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the tool version in batch output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter. Output is compact unless an indent
// option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{output: output}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary of run.
func (w *JSONWriter) Write(run *model.ConversionRun) (int, error) {
	return w.encode(NewSummary(run))
}

// WriteBatch outputs the aggregate summary of runs.
func (w *JSONWriter) WriteBatch(runs []*model.ConversionRun) (int, error) {
	batch := NewBatchSummary(runs)
	batch.Version = w.version
	return w.encode(batch)
}

func (w *JSONWriter) encode(v any) (int, error) {
	cw := &countingWriter{w: w.output}
	enc := json.NewEncoder(cw)
	enc.SetEscapeHTML(false)
	if w.prefix != "" || w.indent != "" {
		enc.SetIndent(w.prefix, w.indent)
	}
	err := enc.Encode(v)
	return cw.n, err
}

// countingWriter counts the bytes written through it.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
