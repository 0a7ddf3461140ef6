package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rungate/rungate/internal/gate"
)

// Formatter renders a gate report for the caller.
type Formatter interface {
	// Format writes the report to the output writer
	Format(report *gate.Report) error
}

// Options contains configuration for formatters
type Options struct {
	// Writer is where output is written (defaults to os.Stdout)
	Writer io.Writer
	// NoColor disables styled output for the text formatter
	NoColor bool
	// Verbose includes captured tool output even for passing rules
	Verbose bool
}

// NewFormatter creates a formatter based on the format string
func NewFormatter(format string, opts *Options) (Formatter, error) {
	if opts == nil {
		opts = &Options{Writer: os.Stdout}
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch format {
	case "json":
		return &JSONFormatter{opts: opts}, nil
	case "yaml":
		return &YAMLFormatter{opts: opts}, nil
	case "text", "":
		return &TextFormatter{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: text, json, yaml)", format)
	}
}

// JSONFormatter renders the report as JSON
type JSONFormatter struct {
	opts *Options
}

// Format writes the report as indented JSON
func (f *JSONFormatter) Format(report *gate.Report) error {
	encoder := json.NewEncoder(f.opts.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// YAMLFormatter renders the report as YAML
type YAMLFormatter struct {
	opts *Options
}

// Format writes the report as YAML
func (f *YAMLFormatter) Format(report *gate.Report) error {
	encoder := yaml.NewEncoder(f.opts.Writer)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(report)
}

// Compile-time verification that formatters implement Formatter
var _ Formatter = (*JSONFormatter)(nil)
var _ Formatter = (*YAMLFormatter)(nil)
var _ Formatter = (*TextFormatter)(nil)
