package dispatch

import (
	"reflect"
	"testing"

	"github.com/rungate/rungate/internal/changeset"
	"github.com/rungate/rungate/internal/rule"
)

func mustTable(t *testing.T, rules ...rule.Rule) *rule.Table {
	t.Helper()
	table := &rule.Table{Rules: rules}
	if err := table.Compile(); err != nil {
		t.Fatalf("compile table: %v", err)
	}
	return table
}

func workIDs(work []*Work) []string {
	var ids []string
	for _, w := range work {
		ids = append(ids, w.Rule.ID)
	}
	return ids
}

func TestNewResolvesSubsets(t *testing.T) {
	table := mustTable(t,
		rule.Rule{ID: "fmt-python", Kind: rule.KindFix, Types: []string{"py"}, Entry: "black"},
		rule.Rule{ID: "lint-python", Kind: rule.KindCheck, Types: []string{"py"}, Entry: "flake8"},
		rule.Rule{ID: "copyright", Kind: rule.KindCheck, Types: []string{"py", "go", "sh"}, Entry: "copyright-check"},
	)
	cs := changeset.New("a.py", "b.go")

	plan := New(table, cs)

	want := map[string][]string{
		"fmt-python":  {"a.py"},
		"lint-python": {"a.py"},
		"copyright":   {"a.py", "b.go"},
	}
	if len(plan.Work()) != len(want) {
		t.Fatalf("scheduled %d rules, want %d", len(plan.Work()), len(want))
	}
	for _, w := range plan.Work() {
		if !reflect.DeepEqual(w.Files, want[w.Rule.ID]) {
			t.Errorf("rule %s resolved %v, want %v", w.Rule.ID, w.Files, want[w.Rule.ID])
		}
	}
}

func TestNewOmitsEmptySubsets(t *testing.T) {
	table := mustTable(t,
		rule.Rule{ID: "check-shell", Kind: rule.KindCheck, Types: []string{"sh"}, Entry: "shellcheck"},
		rule.Rule{ID: "lint-python", Kind: rule.KindCheck, Types: []string{"py"}, Entry: "flake8"},
	)
	cs := changeset.New("a.py")

	plan := New(table, cs)

	if got := workIDs(plan.Work()); !reflect.DeepEqual(got, []string{"lint-python"}) {
		t.Errorf("scheduled %v, want only lint-python", got)
	}
}

func TestNewIsDeterministic(t *testing.T) {
	table := mustTable(t,
		rule.Rule{ID: "fmt-python", Kind: rule.KindFix, Types: []string{"py"}, Entry: "black"},
		rule.Rule{ID: "copyright", Kind: rule.KindCheck, Types: []string{"py", "go"}, Entry: "copyright-check"},
	)
	cs := changeset.New("b.py", "a.py", "c.go")

	first := New(table, cs)
	for i := 0; i < 10; i++ {
		again := New(table, cs)
		if !reflect.DeepEqual(workIDs(first.Work()), workIDs(again.Work())) {
			t.Fatal("plan rule order is not deterministic")
		}
		for j := range first.Work() {
			if !reflect.DeepEqual(first.Work()[j].Files, again.Work()[j].Files) {
				t.Fatal("plan file subsets are not deterministic")
			}
		}
	}
}

func TestEmptyChangesetYieldsEmptyPlan(t *testing.T) {
	table := mustTable(t,
		rule.Rule{ID: "lint-python", Kind: rule.KindCheck, Types: []string{"py"}, Entry: "flake8"},
	)

	plan := New(table, changeset.New())
	if !plan.IsEmpty() {
		t.Error("expected empty plan for empty changeset")
	}
}

func TestFixBatchesSerializeOverlaps(t *testing.T) {
	table := mustTable(t,
		rule.Rule{ID: "fmt-a", Kind: rule.KindFix, Types: []string{"py"}, Entry: "black"},
		rule.Rule{ID: "fmt-b", Kind: rule.KindFix, Types: []string{"py"}, Entry: "isort"},
		rule.Rule{ID: "fmt-go", Kind: rule.KindFix, Types: []string{"go"}, Entry: "gofmt"},
		rule.Rule{ID: "lint", Kind: rule.KindCheck, Types: []string{"py"}, Entry: "flake8"},
	)
	cs := changeset.New("a.py", "b.go")

	plan := New(table, cs)
	batches := plan.FixBatches()

	if len(batches) != 2 {
		t.Fatalf("got %d fix batches, want 2", len(batches))
	}
	// fmt-a and fmt-b both resolve to a.py so they share a serial batch;
	// fmt-go is disjoint and gets its own.
	if got := workIDs(batches[0]); !reflect.DeepEqual(got, []string{"fmt-a", "fmt-b"}) {
		t.Errorf("first batch = %v, want [fmt-a fmt-b]", got)
	}
	if got := workIDs(batches[1]); !reflect.DeepEqual(got, []string{"fmt-go"}) {
		t.Errorf("second batch = %v, want [fmt-go]", got)
	}
}

func TestFixBatchesSerialFlag(t *testing.T) {
	table := mustTable(t,
		rule.Rule{ID: "fmt-py", Kind: rule.KindFix, Types: []string{"py"}, Entry: "black", Serial: true},
		rule.Rule{ID: "fmt-go", Kind: rule.KindFix, Types: []string{"go"}, Entry: "gofmt", Serial: true},
	)
	cs := changeset.New("a.py", "b.go")

	plan := New(table, cs)
	batches := plan.FixBatches()

	// Disjoint subsets, but both declared serial: one batch.
	if len(batches) != 1 {
		t.Fatalf("got %d fix batches, want 1", len(batches))
	}
	if got := workIDs(batches[0]); !reflect.DeepEqual(got, []string{"fmt-py", "fmt-go"}) {
		t.Errorf("batch = %v, want [fmt-py fmt-go]", got)
	}
}

func TestCheckWorkExcludesFixRules(t *testing.T) {
	table := mustTable(t,
		rule.Rule{ID: "fmt-py", Kind: rule.KindFix, Types: []string{"py"}, Entry: "black"},
		rule.Rule{ID: "lint-py", Kind: rule.KindCheck, Types: []string{"py"}, Entry: "flake8"},
	)
	plan := New(table, changeset.New("a.py"))

	if got := workIDs(plan.CheckWork()); !reflect.DeepEqual(got, []string{"lint-py"}) {
		t.Errorf("CheckWork() = %v, want [lint-py]", got)
	}
}
