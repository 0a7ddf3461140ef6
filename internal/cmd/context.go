package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rungate/rungate/internal/log"
)

// CommandContext holds the global flags shared by every command.
// Commands extract it in their RunE instead of reading package-level
// variables, which keeps them testable.
type CommandContext struct {
	Verbose   bool
	Quiet     bool
	NoColor   bool
	LogLevel  string
	LogFormat string
}

// NewCommandContext extracts the persistent flags from a cobra command.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, err
	}

	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, err
	}

	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}

	logFormat, err := cmd.Flags().GetString("log-format")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Verbose:   verbose,
		Quiet:     quiet,
		NoColor:   noColor,
		LogLevel:  logLevel,
		LogFormat: logFormat,
	}, nil
}

// LogConfig translates the flags into a logger configuration.
// --verbose and --quiet win over --log-level; --quiet wins over both.
func (c *CommandContext) LogConfig() log.Config {
	config := log.DefaultConfig()

	if c.LogLevel != "" {
		config.Level = log.ParseLevel(c.LogLevel)
	}
	if c.Verbose {
		config.Level = log.LevelDebug
	}
	if c.Quiet {
		config.Level = log.LevelError
	}

	if c.LogFormat != "" {
		config.Format = log.ParseFormat(c.LogFormat)
	}

	return config
}
