package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/archtype/internal/game"
)

const defaultBarWidth = 40

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	overflowStyle    = incorrectStyle.Underline(true)
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1793D1"))
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	warnStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF4D4F"))
	boxStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#1793D1")).Padding(1, 3)

	tierStyles = map[game.Tier]lipgloss.Style{
		game.TierS: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD700")),
		game.TierA: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#52C41A")),
		game.TierB: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1793D1")),
		game.TierC: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A")),
		game.TierD: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8C8C8C")),
	}
)

// screen keeps the latest frame and the last notable event for View.
type screen struct {
	policy game.TimeoutPolicy
	frame  game.Frame
	seen   bool
	notice string
}

// Render implements game.Presenter.
func (s *screen) Render(frame game.Frame) {
	s.frame = frame
	s.seen = true
	switch frame.Kind {
	case game.FrameRank:
		rank := frame.Result.Rank
		style := tierStyles[rank.Tier]
		s.notice = style.Render(fmt.Sprintf("%s %s +%d", rank.Tier, rank.Label, rank.Points)) +
			dimStyle.Render(fmt.Sprintf("  %.2fs of %.2fs", frame.Result.TimeUsed, frame.Result.Limit))
	case game.FrameTimeout:
		msg := "TIME'S UP!"
		if s.policy != game.PolicyEnd {
			msg += " Try again."
		}
		s.notice = warnStyle.Render(msg)
	case game.FrameMismatch:
		s.notice = warnStyle.Render("Not quite. Input cleared.")
	case game.FrameInput:
		if strings.Contains(s.notice, "Not quite") {
			s.notice = ""
		}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch {
	case m.ctrl.Finished():
		content = m.renderSummary()
	case m.ctrl.Phase() == game.PhaseReady || !m.screen.seen:
		content = m.renderIntro()
	default:
		content = m.renderPlay()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.help.View(m.keys)
	if m.ctrl.Phase() != game.PhasePlaying && m.ctrl.Phase() != game.PhasePaused || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
}

func (m *Model) renderIntro() string {
	state := m.ctrl.State()
	lines := []string{
		titleStyle.Render("ARCHTYPE"),
		"",
		"Type each command exactly as shown before the timer runs out.",
		"The faster you finish, the better your rank:",
		"",
		tierStyles[game.TierS].Render("S") + " ≤30%  " +
			tierStyles[game.TierA].Render("A") + " ≤50%  " +
			tierStyles[game.TierB].Render("B") + " ≤70%  " +
			tierStyles[game.TierC].Render("C") + " ≤90%  " +
			tierStyles[game.TierD].Render("D") + " slower",
		"",
		fmt.Sprintf("Every %d commands the level rises and the clock speeds up.", game.CompletionsPerLevel),
		fmt.Sprintf("%d commands in this session.", state.Total),
		"",
		dimStyle.Render("press ENTER to start · esc to leave"),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderPlay() string {
	frame := m.screen.frame
	command := []rune(m.ctrl.Command())
	input := []rune(m.ctrl.Input())
	styled := buildStyledRunes(command, input, cursorFor(command, input))

	width := m.contentWidth()
	lines := []string{
		m.renderHeader(),
		"",
		wrapStyledRunes(styled, width),
		"",
		m.renderTimer(),
	}
	if m.ctrl.Phase() == game.PhasePaused {
		lines = append(lines, "", warnStyle.Render("PAUSED")+dimStyle.Render("  ctrl+p to resume"))
	} else if frame.Attempt > 1 {
		lines = append(lines, "", dimStyle.Render(fmt.Sprintf("attempt %d", frame.Attempt)))
	}
	if m.screen.notice != "" {
		lines = append(lines, "", m.screen.notice)
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderHeader() string {
	state := m.ctrl.State()
	segments := []string{
		titleStyle.Render("ARCHTYPE"),
		fmt.Sprintf("Level %d", state.Level),
		fmt.Sprintf("Score %d", state.Score),
		fmt.Sprintf("High %d", state.HighScore),
		fmt.Sprintf("%d/%d", state.Completed, state.Total),
	}
	return headerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) renderTimer() string {
	frame := m.screen.frame
	ratio := 0.0
	if frame.Limit > 0 {
		ratio = frame.Remaining / frame.Limit
	}
	label := fmt.Sprintf(" %5.1fs", frame.Remaining)
	if frame.Multiplier > 1 {
		label += fmt.Sprintf(" ×%.1f", frame.Multiplier)
	}
	return m.bar.ViewAs(ratio) + dimStyle.Render(label)
}

func (m *Model) renderSummary() string {
	summary, ok := m.ctrl.Summary()
	if !ok {
		return ""
	}
	return boxStyle.Render(SummaryText(summary) + "\n\n" + dimStyle.Render("press ENTER to exit"))
}

// SummaryText renders the end-of-session report.
func SummaryText(s game.Summary) string {
	title := titleStyle.Render("SESSION OVER")
	switch s.Outcome {
	case game.OutcomeVictory:
		title = tierStyles[game.TierS].Render("VICTORY! Every command typed.")
	case game.OutcomeDefeat:
		title = warnStyle.Render("DEFEAT. The clock won.")
	}
	lines := []string{
		title,
		"",
		fmt.Sprintf("Score       %d", s.Score),
		fmt.Sprintf("High score  %d", s.HighScore),
		fmt.Sprintf("Level       %d", s.Level),
		fmt.Sprintf("Completed   %d/%d", s.Completed, s.Total),
	}
	if s.NewHighScore {
		lines = append(lines, "", tierStyles[game.TierS].Render("NEW HIGH SCORE!"))
	}
	counts := tierCounts(s.Results)
	if len(counts) > 0 {
		parts := make([]string, 0, len(game.Tiers))
		for _, tier := range game.Tiers {
			parts = append(parts, tierStyles[tier].Render(string(tier))+fmt.Sprintf(" %d", counts[tier]))
		}
		lines = append(lines, "", strings.Join(parts, "  "))
	}
	return strings.Join(lines, "\n")
}

func tierCounts(results []game.ChallengeResult) map[game.Tier]int {
	counts := map[game.Tier]int{}
	for _, r := range results {
		if r.TimedOut {
			continue
		}
		counts[r.Rank.Tier]++
	}
	return counts
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	width := int(float64(m.width) * 0.70)
	if width < 1 {
		width = 1
	}
	return width
}

func barWidth(termWidth int) int {
	width := int(float64(termWidth)*0.70) - 12
	if width < 10 {
		return 10
	}
	if width > 60 {
		return 60
	}
	return width
}
