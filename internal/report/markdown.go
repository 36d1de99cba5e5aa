package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/webconv/internal/model"
)

// maxCellLen bounds URL and error cells in page tables.
const maxCellLen = 80

// MarkdownWriter outputs run summaries as a Markdown document.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		output: output,
	}
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(run *model.ConversionRun) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("webconv Report")
	md.PlainText("")
	w.writeRun(md, NewSummary(run))
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteBatch outputs a totals table followed by one section per run.
func (w *MarkdownWriter) WriteBatch(runs []*model.ConversionRun) (int, error) {
	md := markdown.NewMarkdown(w.output)
	batch := NewBatchSummary(runs)

	md.H1("webconv Report")
	md.PlainText("")

	rows := make([][]string, 0, len(batch.Runs))
	for _, s := range batch.Runs {
		rows = append(rows, []string{
			"`" + truncateString(s.Seed, maxCellLen) + "`",
			strconv.Itoa(s.PagesOK),
			strconv.Itoa(s.PagesFailed),
			statusText(s),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Start URL", "Pages OK", "Pages Failed", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, s := range batch.Runs {
		md.H2(s.Seed)
		md.PlainText("")
		w.writeRun(md, s)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeRun writes the property table, alert, and page sections of a run.
func (w *MarkdownWriter) writeRun(md *markdown.Markdown, s *Summary) {
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + s.Seed + "`"},
			{"Format", s.Format},
			{"Depth", strconv.Itoa(s.Depth)},
			{"Single File", strconv.FormatBool(s.Combine)},
			{"JavaScript", strconv.FormatBool(s.JavaScript)},
			{"Output Directory", "`" + s.OutputDir + "`"},
			{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", s.Duration().String()},
			{"Pages Converted", strconv.Itoa(s.PagesOK)},
			{"Pages Failed", strconv.Itoa(s.PagesFailed)},
			{"Status", statusText(s)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, s)
	w.writePages(md, s)
	w.writeFiles(md, s)
}

func statusText(s *Summary) string {
	switch s.Status {
	case StatusCancelled:
		return "⚠️ Cancelled (partial results)"
	case StatusError:
		return "❌ Error - " + s.Error
	default:
		return "✅ Complete"
	}
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s *Summary) {
	switch {
	case s.Status == StatusError:
		md.Cautionf("The run failed: %s", s.Error)
	case s.Status == StatusCancelled:
		md.Warningf("The run was interrupted after %d page(s).", len(s.Pages))
	case s.PagesFailed > 0:
		md.Importantf("%d page(s) could not be converted.", s.PagesFailed)
	case s.PagesOK == 0:
		md.Note("No pages were converted.")
	default:
		md.Tip("All visited pages were converted.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePages(md *markdown.Markdown, s *Summary) {
	md.H3("Pages")
	md.PlainText("")

	if len(s.Pages) == 0 {
		md.PlainText("No pages visited.")
		md.PlainText("")
		return
	}

	if s.PagesFailed > 0 && s.PagesOK > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Page Results"),
			piechart.WithShowData(true),
		)
		chart.LabelAndIntValue("Converted", uint64(s.PagesOK))
		chart.LabelAndIntValue("Failed", uint64(s.PagesFailed))
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	rows := make([][]string, 0, len(s.Pages))
	for _, p := range s.Pages {
		title := p.Title
		if title == "" {
			title = "-"
		}
		result := "ok"
		if p.Failed() {
			result = truncateString(p.Error, maxCellLen)
		}
		rows = append(rows, []string{
			truncateString(p.URL, maxCellLen),
			strconv.Itoa(p.Depth),
			title,
			result,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Depth", "Title", "Result"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFiles(md *markdown.Markdown, s *Summary) {
	md.H3("Files")
	md.PlainText("")

	if len(s.Files) == 0 {
		md.PlainText("No files written.")
		md.PlainText("")
		return
	}

	md.BulletList(s.Files...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by webconv*")
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
