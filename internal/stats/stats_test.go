package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/archtype/internal/model"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	assert.InDeltaSlice(t, []float64{2, 3, 5, 7}, got, 1e-9)
	assert.Equal(t, []float64{1, 2}, MovingAverage([]float64{1, 2}, 1))
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "", Sparkline(nil))
	assert.Equal(t, " @", Sparkline([]float64{0, 10}))
	flat := Sparkline([]float64{3, 3, 3})
	assert.Equal(t, strings.Repeat("+", 3), flat)
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, nil, 0))
	assert.Equal(t, "No sessions found.\n", buf.String())

	buf.Reset()
	sessions := []model.SessionRecord{
		{Outcome: "victory", Score: 300, Level: 2, Completed: 10, Total: 10},
		{Outcome: "defeat", Score: 100, Level: 1, Completed: 5, Total: 10},
	}
	require.NoError(t, RenderSummary(&buf, sessions, 450))
	out := buf.String()
	for _, want := range []string{
		"Sessions: 2 (1 victories, 1 defeats, 0 quit)",
		"High score: 450",
		"Best session: 300",
		"Avg score: 200.0",
		"Avg completion: 75.0%",
		"Highest level: 2",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderTierTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTierTable(&buf, []model.TierCount{{Tier: "S", Count: 3}, {Tier: "C", Count: 1}}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "Rank Distribution", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "S        3 75.0% ###############"), lines[2])
	assert.True(t, strings.HasPrefix(lines[6], "D        0  0.0%"), lines[6])

	buf.Reset()
	require.NoError(t, RenderTierTable(&buf, nil))
	assert.Equal(t, "No completed commands yet.\n", buf.String())
}

func TestRenderTrendNeedsTwoSessions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTrend(&buf, []model.SessionRecord{{Score: 1}}, 1))
	assert.Empty(t, buf.String())

	require.NoError(t, RenderTrend(&buf, []model.SessionRecord{{Score: 0, Total: 1}, {Score: 100, Completed: 1, Total: 1}}, 1))
	assert.Contains(t, buf.String(), "Score      | @|")
	assert.Contains(t, buf.String(), "Completion | @|")
}
