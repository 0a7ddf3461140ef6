package gate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rungate/rungate/internal/errors"
)

// RunManifest is the audit record for one gate run.
type RunManifest struct {
	RunID     string           `json:"run_id"`
	Timestamp time.Time        `json:"timestamp"`
	Passed    bool             `json:"passed"`
	FixMode   bool             `json:"fix_mode"`
	Duration  string           `json:"duration"`
	Results   []ManifestResult `json:"results"`
}

// ManifestResult is the per-rule slice of the audit record.
type ManifestResult struct {
	RuleID        string   `json:"rule_id"`
	Status        Status   `json:"status"`
	ExitCode      int      `json:"exit_code"`
	Files         []string `json:"files"`
	ModifiedFiles []string `json:"modified_files,omitempty"`
	Duration      string   `json:"duration"`
}

// NewManifest creates an audit manifest from a finished report.
func NewManifest(report *Report, fixMode bool) *RunManifest {
	m := &RunManifest{
		RunID:     report.RunID,
		Timestamp: time.Now(),
		Passed:    report.Passed,
		FixMode:   fixMode,
		Duration:  report.Duration.String(),
		Results:   make([]ManifestResult, 0, len(report.Results)),
	}

	for _, r := range report.Results {
		m.Results = append(m.Results, ManifestResult{
			RuleID:        r.RuleID,
			Status:        r.Status,
			ExitCode:      r.ExitCode,
			Files:         r.Files,
			ModifiedFiles: r.ModifiedFiles,
			Duration:      r.Duration.String(),
		})
	}

	return m
}

// SaveManifest writes a run manifest to disk under dir.
func SaveManifest(manifest *RunManifest, dir string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "create manifest directory", err)
	}

	filename := fmt.Sprintf("%s_%s.json",
		manifest.Timestamp.Format("20060102_150405"),
		manifest.RunID)
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "marshal manifest", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "write manifest", err)
	}

	return nil
}
