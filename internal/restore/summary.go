package restore

import (
	"time"
)

// Status is the final state of one file in a run
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Reasons recorded for skipped files
const (
	ReasonNoSidecar   = "no sidecar"
	ReasonUnsupported = "unsupported file type"
	ReasonDryRun      = "dry run"
	ReasonInterrupted = "interrupted"
)

// Result records what happened to a single media file
type Result struct {
	Path     string
	Sidecar  string
	Kind     string
	Status   Status
	Reason   string
	Duration time.Duration
}

// Summary aggregates the results of a run
type Summary struct {
	Root     string
	Started  time.Time
	Finished time.Time

	Total     int
	Succeeded int
	Unchanged int
	Skipped   int
	Failed    int

	Interrupted bool

	Results []Result
}

// NewSummary starts a summary for a run over root
func NewSummary(root string) *Summary {
	return &Summary{
		Root:    root,
		Started: time.Now(),
		Results: []Result{},
	}
}

// Add records r and updates the counters
func (s *Summary) Add(r Result) {
	s.Total++
	switch r.Status {
	case StatusSucceeded:
		s.Succeeded++
	case StatusUnchanged:
		s.Unchanged++
	case StatusFailed:
		s.Failed++
	default:
		s.Skipped++
		if r.Reason == ReasonInterrupted {
			s.Interrupted = true
		}
	}
	s.Results = append(s.Results, r)
}

// Finish stamps the end of the run
func (s *Summary) Finish() {
	s.Finished = time.Now()
}

// Elapsed returns the wall time of the run
func (s *Summary) Elapsed() time.Duration {
	if s.Finished.IsZero() {
		return time.Since(s.Started)
	}
	return s.Finished.Sub(s.Started)
}

// Failures returns the failed results in processing order
func (s *Summary) Failures() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Status == StatusFailed {
			out = append(out, r)
		}
	}
	return out
}
