package lineplay

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/archtype/internal/game"
	"github.com/verte-zerg/archtype/internal/tui"
)

var (
	commandStyle = lipgloss.NewStyle().Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	barFull      = lipgloss.NewStyle().Foreground(lipgloss.Color("#1793D1"))
)

// TextPresenter writes frames as plain lines.
type TextPresenter struct {
	out    io.Writer
	width  int
	policy game.TimeoutPolicy
	warned bool
}

// NewTextPresenter returns a presenter that writes to out.
func NewTextPresenter(out io.Writer, barWidth int, policy game.TimeoutPolicy) *TextPresenter {
	if barWidth <= 0 {
		barWidth = defaultBarWidth
	}
	return &TextPresenter{out: out, width: barWidth, policy: policy}
}

// Intro prints the rules shown before the first countdown.
func (p *TextPresenter) Intro(total int) {
	p.printf("%s\n%s\n%s\n%s\n%s\n\n%s\n",
		commandStyle.Render("ARCHTYPE"),
		"Type each command exactly as shown, then press ENTER, before the timer runs out.",
		"The faster you finish, the better your rank: S ≤30%  A ≤50%  B ≤70%  C ≤90%  D slower.",
		fmt.Sprintf("Every %d commands the level rises and the clock speeds up.", game.CompletionsPerLevel),
		fmt.Sprintf("%d commands in this session.", total),
		infoStyle.Render("press ENTER to start"))
}

// Render implements game.Presenter.
func (p *TextPresenter) Render(frame game.Frame) {
	switch frame.Kind {
	case game.FrameChallenge:
		p.warned = false
		header := fmt.Sprintf("[%d/%d] level %d  score %d  high %d", frame.Completed+1, frame.Total, frame.Level, frame.Score, frame.HighScore)
		if frame.Attempt > 1 {
			header += fmt.Sprintf("  attempt %d", frame.Attempt)
		}
		p.printf("\n%s\n  %s\n  %s\n> ", infoStyle.Render(header), commandStyle.Render(frame.Command), p.bar(frame))
	case game.FrameTick:
		if !p.warned && frame.Limit > 0 && frame.Remaining <= frame.Limit/3 {
			p.warned = true
			p.printf("\n  %s\n> ", badStyle.Render(fmt.Sprintf("hurry! %.1fs left", frame.Remaining)))
		}
	case game.FrameMismatch:
		p.printf("  %s\n> ", badStyle.Render("not quite, try again"))
	case game.FrameRank:
		res := frame.Result
		p.printf("  %s\n", goodStyle.Render(fmt.Sprintf("%s %s +%d (%.2fs of %.2fs)", res.Rank.Tier, res.Rank.Label, res.Rank.Points, res.TimeUsed, res.Limit)))
	case game.FrameTimeout:
		msg := "TIME'S UP!"
		if p.policy != game.PolicyEnd {
			msg += " Same command again."
		}
		p.printf("\n  %s\n", badStyle.Render(msg))
	case game.FrameSummary:
		if frame.Summary != nil {
			p.printf("\n%s\n", tui.SummaryText(*frame.Summary))
		}
	}
}

func (p *TextPresenter) bar(frame game.Frame) string {
	ratio := 1.0
	if frame.Limit > 0 {
		ratio = frame.Remaining / frame.Limit
	}
	filled := int(ratio*float64(p.width) + 0.5)
	filled = max(0, min(filled, p.width))
	label := fmt.Sprintf(" %.1fs", frame.Remaining)
	if frame.Multiplier > 1 {
		label += fmt.Sprintf(" ×%.1f", frame.Multiplier)
	}
	return barFull.Render(strings.Repeat("█", filled)) + strings.Repeat("░", p.width-filled) + infoStyle.Render(label)
}

func (p *TextPresenter) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(p.out, format, args...); err != nil {
		// Best-effort output.
		_ = err
	}
}
