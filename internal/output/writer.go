package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/webconv/internal/model"
)

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// PageWriter writes each page into its own file under a directory.
// It implements crawler.Sink.
type PageWriter struct {
	dir    string
	format model.Format

	// written lists the files written so far, in order.
	written []string
}

// NewPageWriter creates a writer for pages of the given format.
func NewPageWriter(dir string, format model.Format) *PageWriter {
	return &PageWriter{dir: dir, format: format}
}

// Accept writes the page content, overwriting any existing file, and
// records the path on the page.
func (w *PageWriter) Accept(page *model.PageResult) error {
	path := filepath.Join(w.dir, PageFileName(page.URL, w.format))
	if err := writeFile(path, page.Content); err != nil {
		return err
	}
	page.OutputPath = path
	w.written = append(w.written, path)
	return nil
}

// Files returns the files written so far.
func (w *PageWriter) Files() []string {
	out := make([]string, len(w.written))
	copy(out, w.written)
	return out
}

// DocumentCollector adds each page to a CombinedDocument.
// It implements crawler.Sink.
type DocumentCollector struct {
	doc *model.CombinedDocument
}

// NewDocumentCollector creates a collector filling doc.
func NewDocumentCollector(doc *model.CombinedDocument) *DocumentCollector {
	return &DocumentCollector{doc: doc}
}

// Accept adds the page content to the document.
func (c *DocumentCollector) Accept(page *model.PageResult) error {
	c.doc.Add(page.URL, page.Content)
	return nil
}

// writeFile creates the parent directories of path and writes content.
func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
