package model

import "time"

// ConversionRun is the record of a single conversion run.
// It is created from a CrawlRequest and filled in by the pipeline steps.
type ConversionRun struct {
	// ID is the history database identifier. Zero until the run is saved.
	ID int64 `json:"id,omitempty"`

	// Request is the immutable request this run executes.
	Request CrawlRequest `json:"request"`

	// OutputDir is the resolved output directory.
	OutputDir string `json:"output_dir"`

	// StartedAt is when the run was created.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last pipeline step completed.
	FinishedAt time.Time `json:"finished_at"`

	// Pages holds one entry per visited URL, in first-visit order.
	Pages []*PageResult `json:"pages"`

	// Files lists every file written by the run.
	Files []string `json:"files"`

	// Document is the combined document. Nil unless the request combines pages.
	Document *CombinedDocument `json:"-"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps"`

	// Cancelled is set when the run was interrupted before completion.
	Cancelled bool `json:"cancelled,omitempty"`

	// Err is the run-level error, if any.
	Err error `json:"-"`

	// ErrorMessage is the text of Err, kept for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewConversionRun creates a run for the given request.
func NewConversionRun(req CrawlRequest) *ConversionRun {
	run := &ConversionRun{
		Request:        req,
		StartedAt:      time.Now(),
		Pages:          make([]*PageResult, 0),
		Files:          make([]string, 0),
		PerformedSteps: make([]string, 0),
	}
	if req.Combine {
		run.Document = NewCombinedDocument()
	}
	return run
}

// AddPage records a visited page.
func (r *ConversionRun) AddPage(p *PageResult) {
	r.Pages = append(r.Pages, p)
}

// AddFile records a written file. A path already recorded is ignored.
func (r *ConversionRun) AddFile(path string) {
	for _, f := range r.Files {
		if f == path {
			return
		}
	}
	r.Files = append(r.Files, path)
}

// SucceededCount returns the number of pages converted without error.
func (r *ConversionRun) SucceededCount() int {
	n := 0
	for _, p := range r.Pages {
		if !p.Failed() {
			n++
		}
	}
	return n
}

// FailedCount returns the number of pages that failed.
func (r *ConversionRun) FailedCount() int {
	return len(r.Pages) - r.SucceededCount()
}

// Duration returns how long the run took.
// It returns zero for runs that have not finished.
func (r *ConversionRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run finished without a run-level error.
func (r *ConversionRun) Succeeded() bool {
	return r.Err == nil && r.ErrorMessage == "" && !r.Cancelled
}

// Run status values returned by Status.
const (
	RunStatusComplete  = "complete"
	RunStatusCancelled = "cancelled"
	RunStatusError     = "error"
)

// Status returns the run outcome. Cancellation takes precedence over errors.
func (r *ConversionRun) Status() string {
	switch {
	case r.Cancelled:
		return RunStatusCancelled
	case r.ErrorText() != "":
		return RunStatusError
	default:
		return RunStatusComplete
	}
}

// ErrorText returns the run-level error message, or "" when there is none.
func (r *ConversionRun) ErrorText() string {
	if r.ErrorMessage != "" {
		return r.ErrorMessage
	}
	if r.Err != nil {
		return r.Err.Error()
	}
	return ""
}
