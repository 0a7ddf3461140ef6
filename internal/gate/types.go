package gate

import (
	"time"
)

// Status classifies the outcome of one tool invocation.
type Status string

const (
	// StatusOK means the tool ran and reported no violations.
	StatusOK Status = "ok"

	// StatusFailed means the tool ran and found violations, exited
	// non-zero, or (in fix mode) had to rewrite files.
	StatusFailed Status = "failed"

	// StatusError means the tool could not run at all: missing
	// executable, timeout, or crash. Kept distinct from failed so
	// operators can tell "found problems" from "couldn't check".
	StatusError Status = "error"
)

// ToolResult is the outcome of one rule's invocation against its
// resolved file subset.
type ToolResult struct {
	RuleID   string        `json:"rule_id" yaml:"rule_id"`
	Status   Status        `json:"status" yaml:"status"`
	Files    []string      `json:"files" yaml:"files"`
	ExitCode int           `json:"exit_code" yaml:"exit_code"`
	Stdout   string        `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty" yaml:"stderr,omitempty"`
	// Message summarizes why the result is not ok.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	// ModifiedFiles lists files a fix-mode tool rewrote, so the caller
	// knows to re-stage them.
	ModifiedFiles []string      `json:"modified_files,omitempty" yaml:"modified_files,omitempty"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
}

// OK reports whether the invocation passed.
func (r *ToolResult) OK() bool {
	return r.Status == StatusOK
}

// Report aggregates every ToolResult of one gate run. Results follow
// rule-table order regardless of execution completion order, so output
// is reproducible under any concurrency scheduling. The report owns
// its results for the duration of one run and is discarded after being
// rendered; nothing is persisted unless a manifest dir is set.
type Report struct {
	RunID    string        `json:"run_id" yaml:"run_id"`
	Results  []*ToolResult `json:"results" yaml:"results"`
	Passed   bool          `json:"passed" yaml:"passed"`
	Failed   int           `json:"failed" yaml:"failed"`
	Errored  int           `json:"errored" yaml:"errored"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// combine computes the overall verdict: pass iff every result is ok.
// Zero scheduled rules is a pass.
func combine(runID string, results []*ToolResult, elapsed time.Duration) *Report {
	report := &Report{
		RunID:    runID,
		Results:  results,
		Duration: elapsed,
	}

	for _, r := range results {
		switch r.Status {
		case StatusFailed:
			report.Failed++
		case StatusError:
			report.Errored++
		}
	}

	report.Passed = report.Failed == 0 && report.Errored == 0
	return report
}
