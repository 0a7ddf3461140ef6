package rule

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rungate/rungate/internal/errors"
)

// DefaultTableFile is where Load looks when no path is given.
const DefaultTableFile = ".rungate.yaml"

// Load reads and compiles a rule table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigNotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "read rule file", err)
	}

	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigUnmarshal,
			fmt.Sprintf("unmarshal rule file %s", path), err)
	}

	if err := table.Compile(); err != nil {
		return nil, err
	}

	return &table, nil
}

// Save writes a rule table to a YAML file.
func Save(table *Table, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "create rule directory", err)
	}

	data, err := yaml.Marshal(table)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "marshal rule table", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "write rule file", err)
	}

	return nil
}

// DefaultTable returns the built-in multi-language gate: format, lint
// and type checks for Python, Go, C/C++, shell, YAML and protobuf,
// plus a copyright header scan. Generated and vendored trees are
// excluded throughout.
func DefaultTable() *Table {
	excludeGenerated := `(^|/)(vendor|third_party|node_modules|\.git)/|_pb2(_grpc)?\.pyi?$|\.pb\.go$`

	table := &Table{
		Rules: []Rule{
			{
				ID:          "fmt-python",
				Description: "Python formatting",
				Kind:        KindFix,
				Types:       []string{"py"},
				Exclude:     excludeGenerated,
				Entry:       "black",
				CheckArgs:   []string{"--check", "--diff"},
			},
			{
				ID:          "lint-python",
				Description: "Python style lint",
				Kind:        KindCheck,
				Types:       []string{"py"},
				Exclude:     excludeGenerated,
				Entry:       "flake8",
			},
			{
				ID:          "typecheck-python",
				Description: "Python static type check",
				Kind:        KindCheck,
				Types:       []string{"py"},
				Exclude:     excludeGenerated,
				Entry:       "mypy",
				Args:        []string{"--ignore-missing-imports"},
			},
			{
				ID:          "fmt-go",
				Description: "Go formatting",
				Kind:        KindFix,
				Types:       []string{"go"},
				Exclude:     excludeGenerated,
				Entry:       "gofmt",
				Args:        []string{"-w"},
				CheckArgs:   []string{"-l"},
			},
			{
				ID:          "fmt-cpp",
				Description: "C/C++ formatting",
				Kind:        KindFix,
				Types:       []string{"c", "cc", "cpp", "h", "hpp"},
				Exclude:     excludeGenerated,
				Entry:       "clang-format",
				Args:        []string{"-i"},
				CheckArgs:   []string{"--dry-run", "--Werror"},
			},
			{
				ID:          "check-shell",
				Description: "Shell script analysis",
				Kind:        KindCheck,
				Types:       []string{"sh", "bash"},
				Exclude:     excludeGenerated,
				Entry:       "shellcheck",
			},
			{
				ID:          "lint-yaml",
				Description: "YAML lint",
				Kind:        KindCheck,
				Types:       []string{"yaml", "yml"},
				Exclude:     excludeGenerated,
				Entry:       "yamllint",
				Args:        []string{"--strict"},
			},
			{
				ID:          "lint-proto",
				Description: "Protobuf lint",
				Kind:        KindCheck,
				Types:       []string{"proto"},
				Exclude:     excludeGenerated,
				Entry:       "protolint",
				Args:        []string{"lint"},
			},
			{
				ID:          "copyright",
				Description: "Copyright header scan",
				Kind:        KindCheck,
				Types:       []string{"py", "go", "sh", "c", "cc", "cpp", "h", "proto"},
				Exclude:     excludeGenerated,
				Entry:       "copyright-check",
			},
		},
	}

	// Built-in table must always compile.
	if err := table.Compile(); err != nil {
		panic(fmt.Sprintf("default rule table invalid: %v", err))
	}

	return table
}
