package output

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/webconv/internal/config"
	"github.com/nao1215/webconv/internal/model"
)

// CombinedBaseName is the file name, without extension, of combined output.
const CombinedBaseName = "website_content"

// timestampLayout is the suffix layout of derived output directories.
const timestampLayout = "20060102_150405"

// PageFileName derives the file name for a page from its URL path:
// leading and trailing slashes are trimmed, the remaining slashes become
// underscores, and an empty path becomes "index".
func PageFileName(pageURL string, format model.Format) string {
	name := ""
	if u, err := url.Parse(pageURL); err == nil {
		name = strings.ReplaceAll(strings.Trim(u.Path, "/"), "/", "_")
	}
	if name == "" {
		name = "index"
	}
	return name + "." + format.Extension()
}

// CombinedFileName returns the combined output file name for format.
func CombinedFileName(format model.Format) string {
	return CombinedBaseName + "." + format.Extension()
}

// DefaultDir returns {base}/{host with dots replaced}_{YYYYMMDD_HHMMSS} for
// the run started at now.
func DefaultDir(base, startURL string, now time.Time) (string, error) {
	u, err := url.Parse(startURL)
	if err != nil {
		return "", fmt.Errorf("invalid start URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid start URL %q: missing host", startURL)
	}
	return filepath.Join(base, config.HostDirName(u.Host)+"_"+now.Format(timestampLayout)), nil
}

// ResolveDir returns the output directory of a run: the request's own
// directory when set, otherwise a directory derived under base.
func ResolveDir(req model.CrawlRequest, base string, now time.Time) (string, error) {
	if req.OutputDir != "" {
		return req.OutputDir, nil
	}
	return DefaultDir(base, req.StartURL, now)
}
