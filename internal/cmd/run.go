package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rungate/rungate/internal/changeset"
	"github.com/rungate/rungate/internal/dispatch"
	gateerrors "github.com/rungate/rungate/internal/errors"
	"github.com/rungate/rungate/internal/gate"
	"github.com/rungate/rungate/internal/log"
	"github.com/rungate/rungate/internal/report"
	"github.com/rungate/rungate/internal/rule"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the gate against a set of changed files",
	Long: `Run resolves which rules apply to the given files, executes their
tools concurrently, and prints an aggregated report. The command exits
zero only when every applicable rule passes; a rule whose file subset
is empty is omitted rather than counted.

By default the changed-file set is discovered from git (staged,
unstaged, and untracked files against the base ref). Use
--changed-files or --from-file to supply the set explicitly, or
--all-files to gate the whole tree.`,
	RunE: runGate,
}

var (
	runChangedFiles []string
	runFromFile     string
	runAllFiles     bool
	runBase         string
	runFix          bool
	runJobs         int
	runTimeout      time.Duration
	runRulesFile    string
	runFormat       string
	runManifestDir  string
)

func init() {
	runCmd.Flags().StringSliceVar(&runChangedFiles, "changed-files", nil, "explicit changed files (repeatable or comma-separated)")
	runCmd.Flags().StringVar(&runFromFile, "from-file", "", "read changed files from a file, one path per line")
	runCmd.Flags().BoolVar(&runAllFiles, "all-files", false, "gate every tracked file instead of the changed set")
	runCmd.Flags().StringVar(&runBase, "base", "HEAD", "git ref to diff against when discovering changed files")
	runCmd.Flags().BoolVar(&runFix, "fix", false, "let fix-mode rules rewrite files in place")
	runCmd.Flags().IntVarP(&runJobs, "jobs", "j", 0, "maximum concurrent tool invocations (0 = number of CPUs)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "override every rule's timeout")
	runCmd.Flags().StringVar(&runRulesFile, "rules", rule.DefaultTableFile, "rule table file")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "text", "report format (text, json, yaml)")
	runCmd.Flags().StringVar(&runManifestDir, "manifest-dir", "", "write a JSON audit manifest for the run into this directory")

	rootCmd.AddCommand(runCmd)
}

func runGate(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	logger := log.DefaultLogger()

	sources := 0
	if len(runChangedFiles) > 0 {
		sources++
	}
	if runFromFile != "" {
		sources++
	}
	if runAllFiles {
		sources++
	}
	if sources > 1 {
		return fmt.Errorf("invalid flag combination: --changed-files, --from-file and --all-files are mutually exclusive")
	}

	root, err := os.Getwd()
	if err != nil {
		return err
	}

	table, err := loadTable(cmd, runRulesFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var cs *changeset.ChangeSet
	switch {
	case len(runChangedFiles) > 0:
		cs = changeset.New(runChangedFiles...)
	case runFromFile != "":
		cs, err = changeset.FromFile(runFromFile)
	case runAllFiles:
		cs, err = changeset.AllFiles(ctx, root)
	default:
		cs, err = changeset.FromGit(ctx, root, runBase)
	}
	if err != nil {
		return err
	}

	logger.Debug("resolved changed-file set", "files", cs.Len(), "rules", len(table.Rules))

	plan := dispatch.New(table, cs)
	if plan.IsEmpty() {
		logger.Info("no rule matched any changed file; gate passes vacuously")
	}

	executor := &gate.Executor{
		Root:        root,
		Fix:         runFix,
		Jobs:        runJobs,
		Timeout:     runTimeout,
		ManifestDir: runManifestDir,
		Logger:      logger,
	}

	rep, err := executor.Run(ctx, plan)
	if err != nil {
		return err
	}

	formatter, err := report.NewFormatter(runFormat, &report.Options{
		Writer:  cmd.OutOrStdout(),
		NoColor: cc.NoColor,
		Verbose: cc.Verbose,
	})
	if err != nil {
		return err
	}
	if err := formatter.Format(rep); err != nil {
		return err
	}

	return verdictError(rep)
}

// loadTable reads the rule table, falling back to the built-in default
// table only when the rules flag was left at its default and the
// default file does not exist.
func loadTable(cmd *cobra.Command, path string) (*rule.Table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !cmd.Flags().Changed("rules") {
			return rule.DefaultTable(), nil
		}
		return nil, gateerrors.NewConfigNotFoundError(path)
	}
	return rule.Load(path)
}

// verdictError maps a completed report onto the error taxonomy so the
// process exit code reflects the verdict.
func verdictError(rep *gate.Report) error {
	if rep.Passed {
		return nil
	}
	if rep.Errored > 0 {
		return gateerrors.New(gateerrors.ErrCodeToolCrashed,
			fmt.Sprintf("%d rule(s) could not run", rep.Errored))
	}
	return gateerrors.New(gateerrors.ErrCodeRunFailed,
		fmt.Sprintf("%d rule(s) failed", rep.Failed))
}
