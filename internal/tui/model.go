// Package tui provides the Bubble Tea game interface.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/verte-zerg/archtype/internal/game"
)

// Options configures the game model.
type Options struct {
	Policy  game.TimeoutPolicy
	Scores  game.HighScoreStore
	History game.History
	// Cues receives every frame alongside the screen, e.g. sound.
	Cues   game.Presenter
	Clock  func() time.Time
	Logger *zap.Logger
}

type tickMsg struct {
	gen uint64
}

// Model implements the Bubble Tea game UI on top of game.Controller.
type Model struct {
	ctrl   *game.Controller
	screen *screen
	keys   keyMap
	help   help.Model
	bar    progress.Model
	logger *zap.Logger

	width  int
	height int

	// scheduledGen is the countdown generation the live tick chain serves.
	scheduledGen uint64
	ticking      bool
}

// NewModel constructs a game model that plays order.
func NewModel(order []string, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	scr := &screen{policy: opts.Policy}
	presenters := game.Presenters{scr}
	if opts.Cues != nil {
		presenters = append(presenters, opts.Cues)
	}
	ctrl := game.NewController(order, game.Options{
		Policy:    opts.Policy,
		Presenter: presenters,
		Scores:    opts.Scores,
		History:   opts.History,
		Clock:     opts.Clock,
		Logger:    opts.Logger,
	})
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = defaultBarWidth
	return &Model{
		ctrl:   ctrl,
		screen: scr,
		keys:   newKeyMap(),
		help:   help.New(),
		bar:    bar,
		logger: opts.Logger,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Summary returns the session summary once the game has ended.
func (m *Model) Summary() (game.Summary, bool) {
	return m.ctrl.Summary()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = barWidth(msg.Width)
		m.help.Width = msg.Width
		m.logger.Debug("window resized", zap.Int("width", msg.Width), zap.Int("height", msg.Height))
		return m, nil
	case tickMsg:
		if msg.gen != m.scheduledGen {
			m.logger.Debug("dropped stale tick", zap.Uint64("gen", msg.gen), zap.Uint64("current", m.scheduledGen))
			return m, nil
		}
		m.ticking = false
		m.ctrl.Tick(msg.gen)
		return m, m.scheduleTick()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		// Nothing was played yet, so there is no session to end.
		if m.ctrl.Phase() != game.PhaseReady {
			m.ctrl.Quit()
		}
		return m, tea.Quit
	}

	switch m.ctrl.Phase() {
	case game.PhaseReady:
		switch {
		case key.Matches(msg, m.keys.Start):
			m.ctrl.Start()
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
	case game.PhaseOver:
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc, tea.KeySpace:
			return m, tea.Quit
		}
		return m, nil
	default:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.ctrl.Quit()
		case key.Matches(msg, m.keys.Pause):
			m.ctrl.TogglePause()
		case key.Matches(msg, m.keys.Submit):
			m.ctrl.Submit()
		case key.Matches(msg, m.keys.Backspace):
			m.ctrl.Backspace()
		case msg.Type == tea.KeySpace:
			m.ctrl.Append(' ')
		case msg.Type == tea.KeyRunes && !msg.Alt:
			m.ctrl.Append(msg.Runes...)
		}
	}
	return m, m.scheduleTick()
}

// scheduleTick starts a tick chain for the current countdown unless one is
// already in flight. Chains for older generations die on arrival.
func (m *Model) scheduleTick() tea.Cmd {
	if !m.ctrl.Running() {
		return nil
	}
	gen := m.ctrl.Generation()
	if m.ticking && gen == m.scheduledGen {
		return nil
	}
	m.scheduledGen = gen
	m.ticking = true
	return tea.Tick(m.ctrl.TickPeriod(), func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}
