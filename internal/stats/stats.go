// Package stats contains session history calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/archtype/internal/game"
	"github.com/verte-zerg/archtype/internal/model"
)

const sparkChars = " .:-=+*#%@"

// CompletionRate returns the share of a session's commands that were typed.
func CompletionRate(s model.SessionRecord) float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints totals across sessions.
func RenderSummary(w io.Writer, sessions []model.SessionRecord, highScore int) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	outcomes := map[string]int{}
	var totalScore, totalRate float64
	bestScore, bestLevel := 0, 0
	for _, s := range sessions {
		outcomes[s.Outcome]++
		totalScore += float64(s.Score)
		totalRate += CompletionRate(s)
		bestScore = max(bestScore, s.Score)
		bestLevel = max(bestLevel, s.Level)
	}
	count := float64(len(sessions))
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d (%d victories, %d defeats, %d quit)", len(sessions),
			outcomes[string(game.OutcomeVictory)], outcomes[string(game.OutcomeDefeat)], outcomes[string(game.OutcomeQuit)]),
		fmt.Sprintf("High score: %d", highScore),
		fmt.Sprintf("Best session: %d", bestScore),
		fmt.Sprintf("Avg score: %.1f", totalScore/count),
		fmt.Sprintf("Avg completion: %.1f%%", totalRate/count*100),
		fmt.Sprintf("Highest level: %d", bestLevel),
		"",
	}
	return writeLines(w, lines)
}

// RenderTrend prints a sparkline of session scores, smoothed over window.
func RenderTrend(w io.Writer, sessions []model.SessionRecord, window int) error {
	if len(sessions) < 2 {
		return nil
	}
	scores := make([]float64, len(sessions))
	rates := make([]float64, len(sessions))
	for i, s := range sessions {
		scores[i] = float64(s.Score)
		rates[i] = CompletionRate(s) * 100
	}
	return writeLines(w, []string{
		"Trend (oldest to newest)",
		fmt.Sprintf("Score      |%s|", Sparkline(MovingAverage(scores, window))),
		fmt.Sprintf("Completion |%s|", Sparkline(MovingAverage(rates, window))),
		"",
	})
}

// RenderTierTable prints how often each rank tier was earned.
func RenderTierTable(w io.Writer, counts []model.TierCount) error {
	byTier := map[string]int{}
	total := 0
	for _, c := range counts {
		byTier[c.Tier] += c.Count
		total += c.Count
	}
	if total == 0 {
		_, err := fmt.Fprintln(w, "No completed commands yet.")
		return err
	}
	const barWidth = 20
	rows := make([][]string, 0, len(game.Tiers))
	for _, tier := range game.Tiers {
		n := byTier[string(tier)]
		share := float64(n) / float64(total)
		rows = append(rows, []string{
			string(tier),
			fmt.Sprintf("%d", n),
			fmt.Sprintf("%.1f%%", share*100),
			strings.Repeat("#", int(math.Round(share*barWidth))),
		})
	}
	lines := append([]string{"Rank Distribution"}, formatTable([]string{"Tier", "Count", "Share", ""}, rows, map[int]bool{1: true, 2: true})...)
	return writeLines(w, append(lines, ""))
}

// RenderCommandTable prints per-command aggregates under title.
func RenderCommandTable(w io.Writer, title string, aggs []model.CommandAggregate) error {
	if len(aggs) == 0 {
		return nil
	}
	headers := []string{"Command", "Attempts", "Done", "Timeouts", "Avg Time Used"}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range aggs {
		avg := "-"
		if agg.Completions > 0 {
			avg = fmt.Sprintf("%.1f%%", agg.AvgPct)
		}
		rows = append(rows, []string{
			agg.Command,
			fmt.Sprintf("%d", agg.Attempts),
			fmt.Sprintf("%d", agg.Completions),
			fmt.Sprintf("%d", agg.Timeouts),
			avg,
		})
	}
	lines := append([]string{title}, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true})...)
	return writeLines(w, append(lines, ""))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
