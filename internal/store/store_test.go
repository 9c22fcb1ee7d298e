package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/archtype/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "archtype.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func session(id string, ended time.Time, outcome string, score int) model.SessionRecord {
	return model.SessionRecord{
		ID:        id,
		StartedAt: ended.Add(-time.Minute),
		EndedAt:   ended,
		Outcome:   outcome,
		Policy:    "retry",
		Score:     score,
		HighScore: score,
		Level:     1,
		Completed: 2,
		Total:     2,
	}
}

func TestHighScoreDefaultsToZero(t *testing.T) {
	s := openTemp(t)
	score, err := s.LoadHighScore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, score)
}

func TestSaveHighScoreNeverDecreases(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.SaveHighScore(ctx, 250))
	require.NoError(t, s.SaveHighScore(ctx, 100))
	score, err := s.LoadHighScore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 250, score)

	require.NoError(t, s.SaveHighScore(ctx, 300))
	score, err = s.LoadHighScore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300, score)
}

func TestHighScoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archtype.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveHighScore(context.Background(), 175))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	score, err := s.LoadHighScore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 175, score)
}

func TestInsertAndListSessions(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	challenges := []model.ChallengeRecord{
		{Seq: 1, Command: "ls -la", TimeLimit: 5, TimeUsed: 1, Multiplier: 1, Attempt: 1, Tier: "S", Points: 100},
		{Seq: 2, Command: "pwd", TimeLimit: 5, TimeUsed: 5, Multiplier: 1, Attempt: 1, TimedOut: true},
		{Seq: 3, Command: "pwd", TimeLimit: 5, TimeUsed: 4, Multiplier: 1, Attempt: 2, Tier: "C", Points: 25},
	}
	require.NoError(t, s.InsertSession(ctx, session("b", base.Add(time.Hour), "victory", 125), challenges))
	require.NoError(t, s.InsertSession(ctx, session("a", base, "defeat", 10), nil))

	all, err := s.ListSessions(ctx, model.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID, "sessions are listed oldest first")
	assert.Equal(t, "b", all[1].ID)
	assert.True(t, all[1].EndedAt.Equal(base.Add(time.Hour)))

	last, err := s.ListSessions(ctx, model.HistoryFilter{Last: 1})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "b", last[0].ID)

	since := base.Add(30 * time.Minute)
	recent, err := s.ListSessions(ctx, model.HistoryFilter{Since: &since})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "b", recent[0].ID)

	defeats, err := s.ListSessions(ctx, model.HistoryFilter{Outcome: "defeat"})
	require.NoError(t, err)
	require.Len(t, defeats, 1)
	assert.Equal(t, "a", defeats[0].ID)

	stored, err := s.ListChallenges(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, challenges, stored)
}

func TestTierCountsAndAggregates(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertSession(ctx, session("x", now, "victory", 200), []model.ChallengeRecord{
		{Seq: 1, Command: "git status", TimeLimit: 10, TimeUsed: 2, Multiplier: 1, Attempt: 1, Tier: "S", Points: 100},
		{Seq: 2, Command: "git status", TimeLimit: 10, TimeUsed: 10, Multiplier: 1, Attempt: 1, TimedOut: true},
		{Seq: 3, Command: "git status", TimeLimit: 10, TimeUsed: 4, Multiplier: 1, Attempt: 2, Tier: "A", Points: 75},
		{Seq: 4, Command: "df -h", TimeLimit: 5, TimeUsed: 1, Multiplier: 1, Attempt: 1, Tier: "S", Points: 100},
	}))

	counts, err := s.TierCounts(ctx, []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []model.TierCount{{Tier: "A", Count: 1}, {Tier: "S", Count: 2}}, counts)

	aggs, err := s.CommandAggregates(ctx, []string{"x"})
	require.NoError(t, err)
	byCommand := map[string]model.CommandAggregate{}
	for _, agg := range aggs {
		byCommand[agg.Command] = agg
	}
	git := byCommand["git status"]
	assert.Equal(t, 3, git.Attempts)
	assert.Equal(t, 2, git.Completions)
	assert.Equal(t, 1, git.Timeouts)
	assert.InDelta(t, 30, git.AvgPct, 1e-9)
	assert.InDelta(t, 20, byCommand["df -h"].AvgPct, 1e-9)

	empty, err := s.TierCounts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReset(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.SaveHighScore(ctx, 500))
	require.NoError(t, s.InsertSession(ctx, session("z", time.Now().UTC(), "quit", 0), []model.ChallengeRecord{
		{Seq: 1, Command: "ls", TimeLimit: 5, TimeUsed: 5, Multiplier: 1, Attempt: 1, TimedOut: true},
	}))

	require.NoError(t, s.Reset(ctx))

	score, err := s.LoadHighScore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, score)
	sessions, err := s.ListSessions(ctx, model.HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, sessions)
	challenges, err := s.ListChallenges(ctx, "z")
	require.NoError(t, err)
	assert.Empty(t, challenges)
}

func TestOpenInMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	require.NoError(t, s.SaveHighScore(context.Background(), 42))
	score, err := s.LoadHighScore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, score)
}
