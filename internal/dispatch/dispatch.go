package dispatch

import (
	"github.com/rungate/rungate/internal/changeset"
	"github.com/rungate/rungate/internal/rule"
)

// Work is one scheduled rule together with the subset of the changeset
// it applies to. The subset is never empty: rules that resolve to
// nothing are not scheduled at all.
type Work struct {
	Rule  *rule.Rule
	Files []string
}

// Plan maps the rule table onto a changeset. It is created fresh per
// gate run and immutable once computed; identical inputs always yield
// an identical plan.
type Plan struct {
	work []*Work
}

// New resolves every rule in the table against the changeset. A rule's
// subset is the paths matching its include scope minus its exclusions;
// rules with an empty subset are omitted from the plan (absence is the
// signal, they are not reported as skipped). The table must already be
// compiled: pattern errors are configuration errors caught at load
// time, before planning.
func New(table *rule.Table, cs *changeset.ChangeSet) *Plan {
	p := &Plan{}

	for i := range table.Rules {
		r := &table.Rules[i]

		var files []string
		for _, path := range cs.Paths() {
			if r.Matches(path) {
				files = append(files, path)
			}
		}

		if len(files) == 0 {
			continue
		}

		p.work = append(p.work, &Work{Rule: r, Files: files})
	}

	return p
}

// Work returns all scheduled work in rule-table order.
func (p *Plan) Work() []*Work {
	return p.work
}

// IsEmpty reports whether no rule resolved to any file.
func (p *Plan) IsEmpty() bool {
	return len(p.work) == 0
}

// CheckWork returns the scheduled check-mode rules in table order.
func (p *Plan) CheckWork() []*Work {
	var out []*Work
	for _, w := range p.work {
		if w.Rule.Kind == rule.KindCheck {
			out = append(out, w)
		}
	}
	return out
}

// FixBatches partitions the scheduled fix-mode rules into batches that
// are safe to run concurrently with each other. Rules within one batch
// run sequentially: two fix tools rewriting overlapping file sets at
// the same time would lose updates, so overlapping rules (and rules
// declaring serial mutual exclusion) share a batch. Batch order and
// in-batch order follow the rule table.
func (p *Plan) FixBatches() [][]*Work {
	var fixes []*Work
	for _, w := range p.work {
		if w.Rule.Kind == rule.KindFix {
			fixes = append(fixes, w)
		}
	}
	if len(fixes) == 0 {
		return nil
	}

	// Union-find over fix work items.
	parent := make([]int, len(fixes))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			if ra > rb {
				ra, rb = rb, ra
			}
			parent[rb] = ra
		}
	}

	serialRoot := -1
	for i, w := range fixes {
		if w.Rule.Serial {
			if serialRoot == -1 {
				serialRoot = i
			} else {
				union(serialRoot, i)
			}
		}
		for j := i + 1; j < len(fixes); j++ {
			if overlaps(w.Files, fixes[j].Files) {
				union(i, j)
			}
		}
	}

	batches := make(map[int][]*Work)
	var roots []int
	for i, w := range fixes {
		r := find(i)
		if _, seen := batches[r]; !seen {
			roots = append(roots, r)
		}
		batches[r] = append(batches[r], w)
	}

	out := make([][]*Work, 0, len(roots))
	for _, r := range roots {
		out = append(out, batches[r])
	}
	return out
}

func overlaps(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, p := range a {
		set[p] = struct{}{}
	}
	for _, p := range b {
		if _, ok := set[p]; ok {
			return true
		}
	}
	return false
}
