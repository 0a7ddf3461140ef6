package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gateerrors "github.com/rungate/rungate/internal/errors"
	"github.com/rungate/rungate/internal/exitcode"
	"github.com/rungate/rungate/internal/gate"
)

func TestVerdictError(t *testing.T) {
	assert.NoError(t, verdictError(&gate.Report{Passed: true}))

	err := verdictError(&gate.Report{Passed: false, Failed: 2})
	require.Error(t, err)
	assert.Equal(t, exitcode.GateFailed, exitcode.DetermineExitCode(err))

	err = verdictError(&gate.Report{Passed: false, Failed: 1, Errored: 1})
	require.Error(t, err)
	assert.Equal(t, exitcode.ToolError, exitcode.DetermineExitCode(err))
}

func TestLoadTableFallsBackToBuiltin(t *testing.T) {
	dir := t.TempDir()

	table, err := loadTable(runCmd, filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, table.Rules)
}

func TestLoadTableExplicitMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope.yaml")

	cmd := &cobra.Command{}
	cmd.Flags().String("rules", ".rungate.yaml", "")
	require.NoError(t, cmd.Flags().Set("rules", missing))

	_, err := loadTable(cmd, missing)
	require.Error(t, err)

	var gateErr *gateerrors.GateError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, gateerrors.ErrCodeConfigNotFound, gateErr.Code)
}

func TestRunCommandEndToEnd(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	rules := `rules:
  - id: no-tabs
    kind: check
    pattern: '\.txt$'
    entry: grep
    args: ["-q", "example"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rungate.yaml"), []byte(rules), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte("example text\n"), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"run", "--changed-files", "note.txt", "--format", "json", "--no-color"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"no-tabs"`)
	assert.Contains(t, out.String(), `"passed": true`)
}
