package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rungate/rungate/internal/gate"
)

// TextFormatter renders the report as styled human-readable text with
// per-rule attribution: which tool, which files, what output, so a
// human can act on exactly the failing rule without re-running the
// whole gate.
type TextFormatter struct {
	opts *Options
}

type textStyles struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	failed lipgloss.Style
	errord lipgloss.Style
	label  lipgloss.Style
}

func (f *TextFormatter) styles() textStyles {
	if f.opts.NoColor {
		plain := lipgloss.NewStyle()
		return textStyles{title: plain, ok: plain, failed: plain, errord: plain, label: plain}
	}
	return textStyles{
		title:  lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
		ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		failed: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		errord: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		label:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Format writes the report as formatted text
func (f *TextFormatter) Format(report *gate.Report) error {
	st := f.styles()
	var b strings.Builder

	b.WriteString(st.title.Render(fmt.Sprintf("Gate report %s", shortID(report.RunID))) + "\n\n")

	for _, r := range report.Results {
		switch r.Status {
		case gate.StatusOK:
			b.WriteString(fmt.Sprintf("  %s %s (%d file(s), %s)\n",
				st.ok.Render("✓"), r.RuleID, len(r.Files), r.Duration.Round(time.Millisecond)))
			if f.opts.Verbose && strings.TrimSpace(r.Stdout) != "" {
				writeIndented(&b, r.Stdout)
			}
		case gate.StatusFailed:
			b.WriteString(fmt.Sprintf("  %s %s (%d file(s), %s): %s\n",
				st.failed.Render("✗"), r.RuleID, len(r.Files), r.Duration.Round(time.Millisecond), r.Message))
			writeIndented(&b, r.Stdout)
			writeIndented(&b, r.Stderr)
			if len(r.ModifiedFiles) > 0 {
				b.WriteString("      " + st.label.Render("rewrote:") + "\n")
				for _, mf := range r.ModifiedFiles {
					b.WriteString("        " + mf + "\n")
				}
			}
		case gate.StatusError:
			b.WriteString(fmt.Sprintf("  %s %s could not run: %s\n",
				st.errord.Render("⚠"), r.RuleID, r.Message))
			writeIndented(&b, r.Stderr)
		}
	}

	b.WriteString("\n")
	summary := fmt.Sprintf("%d rule(s) run, %d failed, %d errored in %s",
		len(report.Results), report.Failed, report.Errored, report.Duration.Round(time.Millisecond))
	b.WriteString(st.label.Render(summary) + "\n")

	if report.Passed {
		b.WriteString(st.ok.Render("PASS") + "\n")
	} else {
		b.WriteString(st.failed.Render("FAIL") + "\n")
	}

	_, err := fmt.Fprint(f.opts.Writer, b.String())
	return err
}

func writeIndented(b *strings.Builder, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("      " + line + "\n")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
