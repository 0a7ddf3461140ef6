package changeset

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rungate/rungate/internal/errors"
)

// FromFile reads a changeset from a file with one path per line. Blank
// lines and lines starting with '#' are skipped.
func FromFile(path string) (*ChangeSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed,
			fmt.Sprintf("read changed-files list %s", path), err)
	}

	c := New()
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c.Add(line)
	}
	return c, nil
}

// FromGit discovers the changeset from version control: files changed
// against base (default HEAD) plus untracked files, matching what a
// pre-commit style gate would see.
func FromGit(ctx context.Context, root, base string) (*ChangeSet, error) {
	if base == "" {
		base = "HEAD"
	}

	c := New()

	diff, err := runGit(ctx, root, "diff", "--name-only", "--diff-filter=ACMR", base)
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(diff, "\n") {
		c.Add(line)
	}

	untracked, err := runGit(ctx, root, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(untracked, "\n") {
		c.Add(line)
	}

	return c, nil
}

// AllFiles lists every tracked file, for --all-files runs.
func AllFiles(ctx context.Context, root string) (*ChangeSet, error) {
	out, err := runGit(ctx, root, "ls-files")
	if err != nil {
		return nil, err
	}

	c := New()
	for _, line := range strings.Split(out, "\n") {
		c.Add(line)
	}
	return c, nil
}

func runGit(ctx context.Context, root string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if root != "" {
		cmd.Dir = root
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", errors.Wrap(errors.ErrCodeGitFailed,
			fmt.Sprintf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(stderr.String())), err).
			WithSuggestion("Run the gate inside a git work tree, or pass --changed-files explicitly")
	}

	return stdout.String(), nil
}
