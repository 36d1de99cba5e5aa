package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/webconv/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text reports for the terminal.
type SimpleWriter struct {
	output io.Writer

	// showEmpty controls whether sections with nothing to list are shown.
	showEmpty bool

	// verbose lists every visited page and written file.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		output: output,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(run *model.ConversionRun) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb)
	w.writeRun(&sb, NewSummary(run))
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteBatch outputs every run followed by the batch totals.
func (w *SimpleWriter) WriteBatch(runs []*model.ConversionRun) (int, error) {
	var sb strings.Builder
	batch := NewBatchSummary(runs)

	w.writeHeader(&sb)
	for _, s := range batch.Runs {
		w.writeRun(&sb, s)
	}

	writeSection(&sb, "TOTAL")
	fmt.Fprintf(&sb, "Runs:           %d (%d failed)\n", len(batch.Runs), batch.RunsFailed)
	fmt.Fprintf(&sb, "Pages OK:       %d\n", batch.PagesOK)
	fmt.Fprintf(&sb, "Pages Failed:   %d\n\n", batch.PagesFailed)

	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                         WEBCONV REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")
}

// writeRun writes the property block and page sections of one run.
func (w *SimpleWriter) writeRun(sb *strings.Builder, s *Summary) {
	fmt.Fprintf(sb, "Start URL:      %s\n", s.Seed)
	fmt.Fprintf(sb, "Started:        %s\n", s.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Format:         %s\n", s.Format)
	fmt.Fprintf(sb, "Depth:          %d\n", s.Depth)
	fmt.Fprintf(sb, "Output:         %s\n", s.OutputDir)
	fmt.Fprintf(sb, "Pages:          %d converted, %d failed\n", s.PagesOK, s.PagesFailed)
	fmt.Fprintf(sb, "Duration:       %s\n", s.Duration())

	switch s.Status {
	case StatusCancelled:
		sb.WriteString("Status:         CANCELLED (partial results)\n")
	case StatusError:
		fmt.Fprintf(sb, "Status:         ERROR - %s\n", s.Error)
	default:
		sb.WriteString("Status:         Complete\n")
	}
	sb.WriteString("\n")

	w.writeFailures(sb, s)
	if w.verbose {
		w.writePages(sb, s)
		w.writeFiles(sb, s)
	}
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, s *Summary) {
	failed := s.FailedPages()
	if len(failed) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "FAILED PAGES")
	if len(failed) == 0 {
		sb.WriteString("  No failed pages\n")
	}
	for _, p := range failed {
		fmt.Fprintf(sb, "  [!] %s\n", p.URL)
		fmt.Fprintf(sb, "      %s\n", p.Error)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePages(sb *strings.Builder, s *Summary) {
	if len(s.Pages) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "VISITED PAGES")
	if len(s.Pages) == 0 {
		sb.WriteString("  No pages visited\n")
	}
	for _, p := range s.Pages {
		mark := "+"
		if p.Failed() {
			mark = "!"
		}
		fmt.Fprintf(sb, "  [%s] %s (depth %d)\n", mark, p.URL, p.Depth)
		if p.Title != "" {
			fmt.Fprintf(sb, "      %s\n", p.Title)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFiles(sb *strings.Builder, s *Summary) {
	if len(s.Files) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "FILES")
	if len(s.Files) == 0 {
		sb.WriteString("  No files written\n")
	}
	for _, f := range s.Files {
		fmt.Fprintf(sb, "  %s\n", f)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}
