package report

import (
	"time"

	"github.com/nao1215/webconv/internal/model"
)

// Run status values reported by Summary.Status.
const (
	StatusComplete  = model.RunStatusComplete
	StatusCancelled = model.RunStatusCancelled
	StatusError     = model.RunStatusError
)

// Summary is the flattened, serializable view of a ConversionRun.
type Summary struct {
	Seed        string              `json:"seed"`
	Format      string              `json:"format"`
	Depth       int                 `json:"depth"`
	Combine     bool                `json:"combine"`
	JavaScript  bool                `json:"javascript"`
	OutputDir   string              `json:"output_dir"`
	StartedAt   time.Time           `json:"started_at"`
	DurationMS  int64               `json:"duration_ms"`
	PagesOK     int                 `json:"pages_ok"`
	PagesFailed int                 `json:"pages_failed"`
	Files       []string            `json:"files"`
	Pages       []*model.PageResult `json:"pages"`
	Status      string              `json:"status"`
	Error       string              `json:"error,omitempty"`
}

// NewSummary builds the summary of run.
func NewSummary(run *model.ConversionRun) *Summary {
	return &Summary{
		Seed:        run.Request.StartURL,
		Format:      run.Request.Format.String(),
		Depth:       run.Request.MaxDepth,
		Combine:     run.Request.Combine,
		JavaScript:  run.Request.RenderJavaScript,
		OutputDir:   run.OutputDir,
		StartedAt:   run.StartedAt,
		DurationMS:  run.Duration().Milliseconds(),
		PagesOK:     run.SucceededCount(),
		PagesFailed: run.FailedCount(),
		Files:       run.Files,
		Pages:       run.Pages,
		Status:      run.Status(),
		Error:       run.ErrorText(),
	}
}

// FailedPages returns the pages that could not be processed.
func (s *Summary) FailedPages() []*model.PageResult {
	var failed []*model.PageResult
	for _, p := range s.Pages {
		if p.Failed() {
			failed = append(failed, p)
		}
	}
	return failed
}

// Duration returns the run duration.
func (s *Summary) Duration() time.Duration {
	return time.Duration(s.DurationMS) * time.Millisecond
}

// BatchSummary aggregates several runs.
type BatchSummary struct {
	Version     string     `json:"version,omitempty"`
	Runs        []*Summary `json:"runs"`
	PagesOK     int        `json:"pages_ok"`
	PagesFailed int        `json:"pages_failed"`
	RunsFailed  int        `json:"runs_failed"`
}

// NewBatchSummary builds the aggregate summary of runs.
func NewBatchSummary(runs []*model.ConversionRun) *BatchSummary {
	b := &BatchSummary{Runs: make([]*Summary, 0, len(runs))}
	for _, run := range runs {
		s := NewSummary(run)
		b.Runs = append(b.Runs, s)
		b.PagesOK += s.PagesOK
		b.PagesFailed += s.PagesFailed
		if s.Status != StatusComplete {
			b.RunsFailed++
		}
	}
	return b
}
