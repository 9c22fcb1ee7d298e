package stats

import (
	"sort"

	"github.com/verte-zerg/archtype/internal/model"
)

// MostPlayed returns the n commands with the most attempts.
func MostPlayed(aggs []model.CommandAggregate, n int) []model.CommandAggregate {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	items := make([]model.CommandAggregate, len(aggs))
	copy(items, aggs)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Attempts == items[j].Attempts {
			return items[i].Command < items[j].Command
		}
		return items[i].Attempts > items[j].Attempts
	})
	return items[:min(n, len(items))]
}
