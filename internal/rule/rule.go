package rule

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rungate/rungate/internal/errors"
)

// Kind distinguishes check-mode rules from fix-mode rules.
type Kind string

const (
	// KindCheck marks a read-only rule: the tool reports pass/fail and
	// diagnostic text but never rewrites files.
	KindCheck Kind = "check"

	// KindFix marks a rule whose tool may rewrite files in place. A fix
	// rule that had to change anything is treated as failed, since an
	// unformatted file reaching the gate is a violation.
	KindFix Kind = "fix"
)

// DefaultTimeout bounds a single tool invocation unless the rule
// overrides it. Exceeding it records an error, not a failure.
const DefaultTimeout = 5 * time.Minute

// Duration wraps time.Duration with YAML support for "90s"-style values.
type Duration time.Duration

// UnmarshalYAML parses a duration string like "30s" or "2m".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in time.Duration string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Rule is a single check or fix tool plus the file scope it applies to.
type Rule struct {
	// ID uniquely identifies the rule; it is the attribution key in the
	// gate report.
	ID string `yaml:"id"`

	// Description is a short human-readable summary.
	Description string `yaml:"description,omitempty"`

	// Kind is "check" or "fix".
	Kind Kind `yaml:"kind"`

	// Types is extension shorthand: a path is in scope when its
	// extension (without the dot) appears here. Combined with Pattern
	// by OR.
	Types []string `yaml:"types,omitempty"`

	// Pattern is a Go regular expression searched against the
	// repository-relative, slash-separated path.
	Pattern string `yaml:"pattern,omitempty"`

	// Exclude is a Go regular expression; a path matching it is never
	// in scope, even when Types or Pattern match. Exclusion wins.
	Exclude string `yaml:"exclude,omitempty"`

	// Entry is the executable to invoke.
	Entry string `yaml:"entry"`

	// Args are passed before the resolved file subset.
	Args []string `yaml:"args,omitempty"`

	// CheckArgs replace Args when a fix rule runs with fixing disabled.
	CheckArgs []string `yaml:"check_args,omitempty"`

	// Timeout overrides DefaultTimeout for this rule.
	Timeout Duration `yaml:"timeout,omitempty"`

	// Serial forces the rule into the serial fix group even when its
	// resolved subset overlaps no other fix rule.
	Serial bool `yaml:"serial,omitempty"`

	include *regexp.Regexp
	exclude *regexp.Regexp
	typeSet map[string]struct{}
}

// Compile validates the rule and prepares its matchers. It must be
// called before Matches; Table.Compile does this for every rule.
func (r *Rule) Compile() error {
	if r.ID == "" {
		return errors.New(errors.ErrCodeConfigMissingCmd, "rule with empty id")
	}
	if r.Kind != KindCheck && r.Kind != KindFix {
		return errors.New(errors.ErrCodeConfigBadKind,
			fmt.Sprintf("rule %q has unknown kind %q (want %q or %q)", r.ID, r.Kind, KindCheck, KindFix))
	}
	if r.Entry == "" {
		return errors.NewMissingCommandError(r.ID)
	}
	if len(r.Types) == 0 && r.Pattern == "" {
		return errors.New(errors.ErrCodeConfigEmptyScope,
			fmt.Sprintf("rule %q has neither types nor pattern", r.ID)).
			WithSuggestion("Add 'types: [py]' or a 'pattern:' so the rule scopes to some files")
	}

	if r.Pattern != "" {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return errors.NewBadPatternError(r.ID, r.Pattern, err)
		}
		r.include = re
	}
	if r.Exclude != "" {
		re, err := regexp.Compile(r.Exclude)
		if err != nil {
			return errors.NewBadPatternError(r.ID, r.Exclude, err)
		}
		r.exclude = re
	}

	r.typeSet = make(map[string]struct{}, len(r.Types))
	for _, t := range r.Types {
		r.typeSet[strings.TrimPrefix(t, ".")] = struct{}{}
	}

	return nil
}

// Matches reports whether the repository-relative path is in scope:
// it matches the types list or the include pattern, and does not match
// the exclude pattern.
func (r *Rule) Matches(path string) bool {
	// Unconditional: filepath.ToSlash is a no-op on non-Windows hosts,
	// but backslash-separated input reaches the matcher regardless of
	// where the gate runs.
	path = strings.ReplaceAll(path, `\`, "/")

	if r.exclude != nil && r.exclude.MatchString(path) {
		return false
	}

	if len(r.typeSet) > 0 {
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if _, ok := r.typeSet[ext]; ok {
			return true
		}
	}

	return r.include != nil && r.include.MatchString(path)
}

// EffectiveTimeout returns the rule's timeout, falling back to the
// table default.
func (r *Rule) EffectiveTimeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout.Std()
	}
	return DefaultTimeout
}

// Table is the ordered rule list. Order defines report ordering, not
// correctness: rules are independent and overlapping scopes are
// expected (a format rule and a lint rule both covering the same file
// must both run).
type Table struct {
	Rules []Rule `yaml:"rules"`
}

// Compile validates every rule and prepares matchers. Any malformed
// rule is a configuration error: the whole gate run aborts before a
// single tool executes, since a broken rule could mask real violations.
func (t *Table) Compile() error {
	seen := make(map[string]struct{}, len(t.Rules))
	for i := range t.Rules {
		r := &t.Rules[i]
		if err := r.Compile(); err != nil {
			return err
		}
		if _, dup := seen[r.ID]; dup {
			return errors.New(errors.ErrCodeConfigDuplicateID,
				fmt.Sprintf("duplicate rule id %q", r.ID))
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

// Get returns the rule with the given id, or nil.
func (t *Table) Get(id string) *Rule {
	for i := range t.Rules {
		if t.Rules[i].ID == id {
			return &t.Rules[i]
		}
	}
	return nil
}
