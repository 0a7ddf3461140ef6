package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/rungate/rungate/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "rungate",
	Short: "Quality gate for changed files",
	Long: `rungate runs a table of quality-tool rules (formatters, linters,
type checkers) against a set of changed files and aggregates the
results into a single pass/fail verdict. Each rule names an external
tool; rungate decides which files each rule sees, runs the tools
concurrently, and reports every rule's outcome in table order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cc, err := NewCommandContext(cmd)
		if err != nil {
			return err
		}
		log.SetDefaultLogger(log.New(cc.LogConfig()))
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context so
// commands stop on interrupt.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "enable debug logging")
	pf.BoolP("quiet", "q", false, "suppress all logging below error")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (text, json)")
	pf.Bool("no-color", false, "disable colored output")

	if os.Getenv("NO_COLOR") != "" {
		_ = pf.Set("no-color", "true")
	}
}
