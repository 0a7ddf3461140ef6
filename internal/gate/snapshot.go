package gate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// snapshot maps each path to a content hash, or "" for files that do
// not exist (a tool may create or delete files).
type snapshot map[string]string

// takeSnapshot hashes the given repo-relative paths under root.
// Tools are not trusted to report what they rewrote; comparing
// snapshots taken before and after an invocation is the source of
// truth for fix-mode modification.
func takeSnapshot(root string, paths []string) snapshot {
	snap := make(snapshot, len(paths))
	for _, p := range paths {
		snap[p] = hashFile(filepath.Join(root, p))
	}
	return snap
}

// diff returns the paths whose content changed between two snapshots,
// in the order of the given path list.
func (s snapshot) diff(after snapshot, paths []string) []string {
	var changed []string
	for _, p := range paths {
		if s[p] != after[p] {
			changed = append(changed, p)
		}
	}
	return changed
}

// hashFile returns the blake3 hex digest of a file, or "" if it cannot
// be read.
func hashFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return ""
	}

	return fmt.Sprintf("%x", hasher.Sum(nil))
}
