package changeset

import (
	"strings"
)

// ChangeSet is the ordered set of file paths under consideration for
// one gate run. Insertion order is discovery order; it is irrelevant to
// correctness but keeps diagnostic ordering deterministic.
type ChangeSet struct {
	paths []string
	seen  map[string]struct{}
}

// New builds a ChangeSet from the given paths, normalizing and
// de-duplicating while preserving first-seen order.
func New(paths ...string) *ChangeSet {
	c := &ChangeSet{seen: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		c.Add(p)
	}
	return c
}

// Add appends a path unless it is empty or already present.
func (c *ChangeSet) Add(path string) {
	path = Normalize(path)
	if path == "" {
		return
	}
	if _, ok := c.seen[path]; ok {
		return
	}
	c.seen[path] = struct{}{}
	c.paths = append(c.paths, path)
}

// Paths returns the paths in insertion order. The returned slice is
// shared; callers must not mutate it.
func (c *ChangeSet) Paths() []string {
	return c.paths
}

// Len returns the number of paths.
func (c *ChangeSet) Len() int {
	return len(c.paths)
}

// Normalize converts a path to the repository-relative slash form the
// rule matchers expect. Backslash separators are converted
// unconditionally; filepath.ToSlash alone would leave them alone on
// non-Windows hosts, and changed-file lists produced on Windows do
// cross platforms.
func Normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	path = strings.ReplaceAll(path, `\`, "/")
	path = strings.TrimPrefix(path, "./")
	return path
}
