package gate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rungate/rungate/internal/changeset"
	"github.com/rungate/rungate/internal/dispatch"
	gateerrors "github.com/rungate/rungate/internal/errors"
	"github.com/rungate/rungate/internal/rule"
)

// shRule builds a rule that runs an inline shell script; the resolved
// file subset arrives as positional parameters.
func shRule(id string, kind rule.Kind, types []string, script string) rule.Rule {
	return rule.Rule{
		ID:    id,
		Kind:  kind,
		Types: types,
		Entry: "sh",
		Args:  []string{"-c", script, "sh"},
	}
}

func mustPlan(t *testing.T, rules []rule.Rule, files ...string) *dispatch.Plan {
	t.Helper()
	table := &rule.Table{Rules: rules}
	require.NoError(t, table.Compile())
	return dispatch.New(table, changeset.New(files...))
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRunNoShortCircuit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "print(1)\n")
	writeFile(t, root, "run.sh", "echo hi\n")

	plan := mustPlan(t, []rule.Rule{
		shRule("lint-python", rule.KindCheck, []string{"py"}, `echo "a.py: bad style"; exit 1`),
		shRule("check-shell", rule.KindCheck, []string{"sh"}, `echo "run.sh: quoting"; exit 1`),
		shRule("copyright", rule.KindCheck, []string{"py", "sh"}, `exit 0`),
	}, "a.py", "run.sh")

	e := &Executor{Root: root}
	report, err := e.Run(context.Background(), plan)
	require.NoError(t, err)

	// One failing rule must not prevent the others from executing and
	// reporting: both violations appear in the final report.
	require.Len(t, report.Results, 3)
	assert.False(t, report.Passed)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 0, report.Errored)

	byID := make(map[string]*ToolResult)
	for _, r := range report.Results {
		byID[r.RuleID] = r
	}
	assert.Equal(t, StatusFailed, byID["lint-python"].Status)
	assert.Contains(t, byID["lint-python"].Stdout, "bad style")
	assert.Equal(t, StatusFailed, byID["check-shell"].Status)
	assert.Equal(t, StatusOK, byID["copyright"].Status)
}

func TestRunReportFollowsTableOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "x = 1\n")

	// The first rule finishes last; report order must still follow the
	// table, not completion order.
	plan := mustPlan(t, []rule.Rule{
		shRule("slow", rule.KindCheck, []string{"py"}, `sleep 0.3`),
		shRule("fast", rule.KindCheck, []string{"py"}, `exit 0`),
	}, "a.py")

	e := &Executor{Root: root, Jobs: 4}
	report, err := e.Run(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, "slow", report.Results[0].RuleID)
	assert.Equal(t, "fast", report.Results[1].RuleID)
}

func TestRunTimeoutIsErrorNotFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "x = 1\n")

	slow := shRule("slow-tool", rule.KindCheck, []string{"py"}, `sleep 5`)
	slow.Timeout = rule.Duration(100 * time.Millisecond)

	plan := mustPlan(t, []rule.Rule{
		slow,
		shRule("sibling", rule.KindCheck, []string{"py"}, `exit 0`),
	}, "a.py")

	e := &Executor{Root: root}
	report, err := e.Run(context.Background(), plan)
	require.NoError(t, err)

	byID := make(map[string]*ToolResult)
	for _, r := range report.Results {
		byID[r.RuleID] = r
	}

	require.NotNil(t, byID["slow-tool"])
	assert.Equal(t, StatusError, byID["slow-tool"].Status)
	assert.Contains(t, byID["slow-tool"].Message, "timed out")

	// The timeout does not abort sibling invocations.
	require.NotNil(t, byID["sibling"])
	assert.Equal(t, StatusOK, byID["sibling"].Status)

	assert.False(t, report.Passed)
	assert.Equal(t, 1, report.Errored)
}

func TestRunMissingExecutable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "x = 1\n")

	plan := mustPlan(t, []rule.Rule{
		{ID: "ghost", Kind: rule.KindCheck, Types: []string{"py"}, Entry: "rungate-no-such-tool"},
	}, "a.py")

	e := &Executor{Root: root}
	report, err := e.Run(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusError, report.Results[0].Status)
	assert.Equal(t, -1, report.Results[0].ExitCode)
	assert.False(t, report.Passed)
}

func TestRunFixModeReportsModifiedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "x=1\n")

	// Converging fixer: appends a marker once, then leaves files alone.
	fixer := shRule("fmt-python", rule.KindFix, []string{"py"},
		`for f in "$@"; do grep -q FORMATTED "$f" || echo "# FORMATTED" >> "$f"; done`)

	plan := mustPlan(t, []rule.Rule{fixer}, "a.py")
	e := &Executor{Root: root, Fix: true}

	report, err := e.Run(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	res := report.Results[0]
	// Having to rewrite anything counts as a failure: the violation
	// reached the gate.
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, []string{"a.py"}, res.ModifiedFiles)
	assert.False(t, report.Passed)

	// Second run converges: nothing left to rewrite, so it passes.
	plan2 := mustPlan(t, []rule.Rule{fixer}, "a.py")
	report2, err := e.Run(context.Background(), plan2)
	require.NoError(t, err)

	require.Len(t, report2.Results, 1)
	assert.Equal(t, StatusOK, report2.Results[0].Status)
	assert.Empty(t, report2.Results[0].ModifiedFiles)
	assert.True(t, report2.Passed)
}

func TestRunFixDisabledUsesCheckArgs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "x=1\n")

	fixer := rule.Rule{
		ID:        "fmt-python",
		Kind:      rule.KindFix,
		Types:     []string{"py"},
		Entry:     "sh",
		Args:      []string{"-c", `echo mutating >> "$1"; exit 0`, "sh"},
		CheckArgs: []string{"-c", `exit 3`, "sh"},
	}

	plan := mustPlan(t, []rule.Rule{fixer}, "a.py")
	e := &Executor{Root: root, Fix: false}

	report, err := e.Run(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusFailed, report.Results[0].Status)
	assert.Equal(t, 3, report.Results[0].ExitCode)

	// The fix arguments never ran: the file is untouched.
	data, err := os.ReadFile(filepath.Join(root, "a.py"))
	require.NoError(t, err)
	assert.Equal(t, "x=1\n", string(data))
}

func TestRunCancelledReportsAborted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "x = 1\n")

	plan := mustPlan(t, []rule.Rule{
		shRule("lint-python", rule.KindCheck, []string{"py"}, `exit 0`),
	}, "a.py")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &Executor{Root: root}
	report, err := e.Run(ctx, plan)

	// No partial verdict: an aborted run yields no report at all.
	require.Error(t, err)
	assert.Nil(t, report)

	var gateErr *gateerrors.GateError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, gateerrors.ErrCodeRunAborted, gateErr.Code)
}

func TestRunEmptyPlanPasses(t *testing.T) {
	root := t.TempDir()
	plan := mustPlan(t, []rule.Rule{
		shRule("lint-python", rule.KindCheck, []string{"py"}, `exit 1`),
	} /* no files */)

	e := &Executor{Root: root}
	report, err := e.Run(context.Background(), plan)
	require.NoError(t, err)

	assert.True(t, report.Passed)
	assert.Empty(t, report.Results)
}

func TestRunWritesManifest(t *testing.T) {
	root := t.TempDir()
	manifestDir := filepath.Join(root, ".rungate", "runs")
	writeFile(t, root, "a.py", "x = 1\n")

	plan := mustPlan(t, []rule.Rule{
		shRule("lint-python", rule.KindCheck, []string{"py"}, `exit 0`),
	}, "a.py")

	e := &Executor{Root: root, ManifestDir: manifestDir}
	report, err := e.Run(context.Background(), plan)
	require.NoError(t, err)
	require.True(t, report.Passed)

	entries, err := os.ReadDir(manifestDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), report.RunID)
}

// TestRunScenario covers the gate end to end: a fix rule that rewrites
// a badly formatted Python file, a lint rule over the same file, and a
// copyright rule spanning both files with exactly one offender.
func TestRunScenario(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "# Copyright 2026\nx=1\n")
	writeFile(t, root, "b.go", "package main\n")

	format := shRule("format", rule.KindFix, []string{"py"},
		`for f in "$@"; do grep -q FORMATTED "$f" || echo "# FORMATTED" >> "$f"; done`)
	lint := shRule("lint", rule.KindCheck, []string{"py"}, `exit 0`)
	copyright := shRule("copyright", rule.KindCheck, []string{"py", "go"},
		`rc=0; for f in "$@"; do grep -q Copyright "$f" || { echo "$f: missing copyright"; rc=1; }; done; exit $rc`)

	plan := mustPlan(t, []rule.Rule{format, lint, copyright}, "a.py", "b.go")

	e := &Executor{Root: root, Fix: true}
	report, err := e.Run(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	byID := make(map[string]*ToolResult)
	for _, r := range report.Results {
		byID[r.RuleID] = r
	}

	// format resolved to {a.py} and had to rewrite it.
	assert.Equal(t, []string{"a.py"}, byID["format"].Files)
	assert.Equal(t, []string{"a.py"}, byID["format"].ModifiedFiles)
	assert.Equal(t, StatusFailed, byID["format"].Status)

	// lint resolved to {a.py} and passed.
	assert.Equal(t, []string{"a.py"}, byID["lint"].Files)
	assert.Equal(t, StatusOK, byID["lint"].Status)

	// copyright resolved to both files and failed for b.go only.
	assert.Equal(t, []string{"a.py", "b.go"}, byID["copyright"].Files)
	assert.Equal(t, StatusFailed, byID["copyright"].Status)
	assert.Contains(t, byID["copyright"].Stdout, "b.go: missing copyright")

	assert.False(t, report.Passed)
	assert.Equal(t, 2, report.Failed)
}
