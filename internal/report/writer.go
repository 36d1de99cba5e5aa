package report

import (
	"fmt"
	"io"

	"github.com/nao1215/webconv/internal/model"
)

// Writer renders run summaries.
type Writer interface {
	// Write outputs the summary of a single run and returns the number of
	// bytes written.
	Write(run *model.ConversionRun) (int, error)

	// WriteBatch outputs the summaries of several runs started together.
	WriteBatch(runs []*model.ConversionRun) (int, error)
}

// Format selects a report writer.
type Format string

// Report formats.
const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Settings holds the options shared by NewWriter.
type Settings struct {
	// Verbose lists every page and file in text reports.
	Verbose bool

	// Version is stamped on JSON batch reports.
	Version string
}

// NewWriter returns the writer for format.
func NewWriter(output io.Writer, format Format, s Settings) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewSimpleWriter(output, WithVerbose(s.Verbose)), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint(), WithVersion(s.Version)), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// WriteRuns writes a single-run report for one run and a batch report
// otherwise.
func WriteRuns(w Writer, runs []*model.ConversionRun) (int, error) {
	if len(runs) == 1 {
		return w.Write(runs[0])
	}
	return w.WriteBatch(runs)
}
