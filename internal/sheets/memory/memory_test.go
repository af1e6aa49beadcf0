package memory

import (
	"context"
	"testing"

	"expensetracker/internal/core"
)

func TestMirrorReplacesSnapshot(t *testing.T) {
	m := New()
	in := []core.Expense{{ID: 1, Category: "Food"}, {ID: 2, Category: "Care"}}

	ref, err := m.ReplaceExpenses(context.Background(), in)
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected replace: ref=%q err=%v", ref, err)
	}

	in[0].Category = "mutated"
	if got := m.Snapshot(); got[0].Category != "Food" {
		t.Fatalf("snapshot aliases caller slice: %+v", got)
	}

	if _, err := m.ReplaceExpenses(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if len(m.Snapshot()) != 0 || m.Syncs() != 2 {
		t.Fatalf("expected empty snapshot after second sync, got %d rows, %d syncs", len(m.Snapshot()), m.Syncs())
	}
}
