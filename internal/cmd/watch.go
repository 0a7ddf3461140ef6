package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rungate/rungate/internal/changeset"
	"github.com/rungate/rungate/internal/dispatch"
	"github.com/rungate/rungate/internal/gate"
	"github.com/rungate/rungate/internal/log"
	"github.com/rungate/rungate/internal/report"
	"github.com/rungate/rungate/internal/rule"
	"github.com/rungate/rungate/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the gate whenever files change",
	Long: `Watch observes the working tree and re-runs the gate against each
batch of changed files after a short quiet period. Fix mode is always
off while watching; a rule that would rewrite files reports a failure
instead, so an editor save never races a formatter.`,
	RunE: runWatch,
}

var (
	watchRulesFile string
	watchJobs      int
	watchFormat    string
	watchDebounce  time.Duration
)

func init() {
	watchCmd.Flags().StringVar(&watchRulesFile, "rules", rule.DefaultTableFile, "rule table file")
	watchCmd.Flags().IntVarP(&watchJobs, "jobs", "j", 0, "maximum concurrent tool invocations (0 = number of CPUs)")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "text", "report format (text, json, yaml)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a batch runs")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	logger := log.DefaultLogger()

	root, err := os.Getwd()
	if err != nil {
		return err
	}

	table, err := loadTable(cmd, watchRulesFile)
	if err != nil {
		return err
	}

	formatter, err := report.NewFormatter(watchFormat, &report.Options{
		Writer:  cmd.OutOrStdout(),
		NoColor: cc.NoColor,
		Verbose: cc.Verbose,
	})
	if err != nil {
		return err
	}

	executor := &gate.Executor{
		Root:   root,
		Fix:    false,
		Jobs:   watchJobs,
		Logger: logger,
	}

	w := &watch.Watcher{
		Root:     root,
		Debounce: watchDebounce,
		Logger:   logger,
		OnChange: func(ctx context.Context, changed []string) {
			cs := changeset.New()
			for _, path := range changed {
				// A removed file has nothing left to check.
				if _, statErr := os.Stat(filepath.Join(root, path)); statErr == nil {
					cs.Add(path)
				}
			}
			if cs.Len() == 0 {
				return
			}

			plan := dispatch.New(table, cs)
			if plan.IsEmpty() {
				logger.Debug("no rule matched the batch", "files", cs.Len())
				return
			}

			rep, runErr := executor.Run(ctx, plan)
			if runErr != nil {
				logger.WithError(runErr).Warn("gate run did not complete")
				return
			}
			if err := formatter.Format(rep); err != nil {
				logger.WithError(err).Warn("failed to render report")
			}
		},
	}

	err = w.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
