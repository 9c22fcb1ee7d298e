package stats

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/archtype/internal/model"
)

func TestWeakCommandsOrdering(t *testing.T) {
	aggs := []model.CommandAggregate{
		{Command: "ls", Attempts: 2, Completions: 2, AvgPct: 20},
		{Command: "systemctl restart sshd", Attempts: 4, Completions: 2, Timeouts: 2, AvgPct: 60},
		{Command: "pwd", Attempts: 2, Completions: 2, AvgPct: 85},
		{Command: "ip a", Attempts: 3, Completions: 2, Timeouts: 1, AvgPct: 40},
	}
	got := commandNames(WeakCommands(aggs, 3))
	want := []string{"systemctl restart sshd", "ip a", "pwd"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if len(WeakCommands(aggs, 0)) != 4 {
		t.Fatalf("top <= 0 keeps every command")
	}
}

func TestPrioritizeWeak(t *testing.T) {
	order := []string{"a", "b", "c", "d", "e"}
	weak := []model.CommandAggregate{{Command: "d"}, {Command: "b"}, {Command: "zz"}}
	got := PrioritizeWeak(order, weak)
	want := []string{"b", "d", "a", "c", "e"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func commandNames(aggs []model.CommandAggregate) []string {
	out := make([]string, len(aggs))
	for i, agg := range aggs {
		out[i] = agg.Command
	}
	return out
}
