package stats

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/verte-zerg/archtype/internal/model"
	"github.com/verte-zerg/archtype/internal/store"
)

// Report contains precomputed data for `archtype scores`.
type Report struct {
	HighScore int
	Sessions  []model.SessionRecord
	Tiers     []model.TierCount
	Commands  []model.CommandAggregate
}

// BuildReport loads the sessions matching filter and their aggregates.
func BuildReport(ctx context.Context, st *store.Store, filter model.HistoryFilter) (Report, error) {
	highScore, err := st.LoadHighScore(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load high score: %w", err)
	}
	sessions, err := st.ListSessions(ctx, filter)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	ids := sessionIDs(sessions)
	tiers, err := st.TierCounts(ctx, ids)
	if err != nil {
		return Report{}, fmt.Errorf("failed to count tiers: %w", err)
	}
	commands, err := st.CommandAggregates(ctx, ids)
	if err != nil {
		return Report{}, fmt.Errorf("failed to aggregate commands: %w", err)
	}
	sort.Slice(commands, func(i, j int) bool {
		return commands[i].Command < commands[j].Command
	})
	return Report{
		HighScore: highScore,
		Sessions:  sessions,
		Tiers:     tiers,
		Commands:  commands,
	}, nil
}

// Render writes the full report. top limits the command tables.
func (r Report) Render(w io.Writer, top, window int) error {
	if err := RenderSummary(w, r.Sessions, r.HighScore); err != nil {
		return err
	}
	if len(r.Sessions) == 0 {
		return nil
	}
	if err := RenderTrend(w, r.Sessions, window); err != nil {
		return err
	}
	if err := RenderTierTable(w, r.Tiers); err != nil {
		return err
	}
	if err := RenderCommandTable(w, "Weakest Commands", WeakCommands(r.Commands, top)); err != nil {
		return err
	}
	return RenderCommandTable(w, "Most Played", MostPlayed(r.Commands, top))
}

func sessionIDs(sessions []model.SessionRecord) []string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}
