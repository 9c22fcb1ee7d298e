package stats

import (
	"sort"

	"github.com/verte-zerg/archtype/internal/model"
)

// WeakCommands ranks commands from weakest to strongest: most timeouts
// first, then the largest share of the time limit used.
func WeakCommands(aggs []model.CommandAggregate, top int) []model.CommandAggregate {
	if len(aggs) == 0 {
		return nil
	}
	candidates := make([]model.CommandAggregate, len(aggs))
	copy(candidates, aggs)
	sort.Slice(candidates, func(i, j int) bool {
		ti, tj := timeoutRate(candidates[i]), timeoutRate(candidates[j])
		if ti != tj {
			return ti > tj
		}
		if candidates[i].AvgPct != candidates[j].AvgPct {
			return candidates[i].AvgPct > candidates[j].AvgPct
		}
		return candidates[i].Command < candidates[j].Command
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	return candidates[:top]
}

// PrioritizeWeak moves the weak commands present in order to its front,
// keeping the relative order of everything else.
func PrioritizeWeak(order []string, weak []model.CommandAggregate) []string {
	wanted := make(map[string]struct{}, len(weak))
	for _, agg := range weak {
		wanted[agg.Command] = struct{}{}
	}
	front := make([]string, 0, len(weak))
	rest := make([]string, 0, len(order))
	for _, cmd := range order {
		if _, ok := wanted[cmd]; ok {
			front = append(front, cmd)
			continue
		}
		rest = append(rest, cmd)
	}
	return append(front, rest...)
}

func timeoutRate(agg model.CommandAggregate) float64 {
	if agg.Attempts == 0 {
		return 0
	}
	return float64(agg.Timeouts) / float64(agg.Attempts)
}
