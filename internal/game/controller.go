// Package game implements the typing session: challenge selection, the
// countdown, ranking and score progression.
package game

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/archtype/internal/catalog"
)

// TimeoutPolicy decides what an expired challenge does to the session.
type TimeoutPolicy string

const (
	// PolicyRetry restarts the same command with a fresh countdown.
	PolicyRetry TimeoutPolicy = "retry"
	// PolicyEnd ends the session in defeat.
	PolicyEnd TimeoutPolicy = "end"
)

// ParseTimeoutPolicy validates a policy name.
func ParseTimeoutPolicy(value string) (TimeoutPolicy, error) {
	switch TimeoutPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case PolicyRetry:
		return PolicyRetry, nil
	case PolicyEnd:
		return PolicyEnd, nil
	default:
		return "", fmt.Errorf("unknown timeout policy %q (want %q or %q)", value, PolicyRetry, PolicyEnd)
	}
}

// Phase is the controller lifecycle.
type Phase int

const (
	PhaseReady Phase = iota
	PhasePlaying
	PhasePaused
	PhaseOver
)

// Options wires a Controller to its collaborators. Nil collaborators are
// replaced with no-ops.
type Options struct {
	Policy    TimeoutPolicy
	Presenter Presenter
	Scores    HighScoreStore
	History   History
	Clock     func() time.Time
	Logger    *zap.Logger
}

// Controller runs one session. It is not safe for concurrent use: callers
// deliver input and tick events one at a time from a single goroutine.
type Controller struct {
	order     []string
	policy    TimeoutPolicy
	presenter Presenter
	scores    HighScoreStore
	history   History
	now       func() time.Time
	logger    *zap.Logger

	phase     Phase
	state     *State
	timer     *Timer
	input     []rune
	attempt   int
	startedAt time.Time
	newHigh   bool
	results   []ChallengeResult
	summary   *Summary
}

// NewController returns a controller that plays order front to back.
func NewController(order []string, opts Options) *Controller {
	if opts.Policy == "" {
		opts.Policy = PolicyRetry
	}
	if opts.Presenter == nil {
		opts.Presenter = PresenterFunc(func(Frame) {})
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{
		order:     append([]string(nil), order...),
		policy:    opts.Policy,
		presenter: opts.Presenter,
		scores:    opts.Scores,
		history:   opts.History,
		now:       opts.Clock,
		logger:    opts.Logger,
		state:     NewState(len(order), 0),
		timer:     NewTimer(opts.Clock),
	}
}

// Start loads the high score and begins the first challenge.
func (c *Controller) Start() {
	if c.phase != PhaseReady {
		return
	}
	highScore := 0
	if c.scores != nil {
		highScore = c.scores.LoadHighScore()
	}
	c.state = NewState(len(c.order), highScore)
	c.startedAt = c.now()
	c.phase = PhasePlaying
	c.logger.Debug("session started",
		zap.Int("total", c.state.Total),
		zap.Int("high_score", highScore),
		zap.String("policy", string(c.policy)))
	c.beginChallenge(false)
}

func (c *Controller) beginChallenge(retry bool) {
	if c.state.IsComplete() {
		c.finish(OutcomeVictory)
		return
	}
	if retry {
		c.attempt++
	} else {
		c.attempt = 1
	}
	c.input = c.input[:0]
	command := c.currentCommand()
	c.timer.Start(catalog.TimeLimit(command), c.state.SpeedMultiplier())
	c.logger.Debug("challenge started",
		zap.String("command", command),
		zap.Float64("limit", c.timer.Limit()),
		zap.Float64("multiplier", c.timer.Multiplier()),
		zap.Int("attempt", c.attempt))
	c.render(FrameChallenge, nil)
}

// Append extends the live input one rune at a time and completes the
// challenge as soon as the buffer equals the command. Runes after the match
// are dropped.
func (c *Controller) Append(runes ...rune) {
	if c.phase != PhasePlaying || len(runes) == 0 {
		return
	}
	if c.expireIfDue() {
		return
	}
	for _, r := range runes {
		c.input = append(c.input, r)
		if c.matches() {
			c.complete()
			return
		}
	}
	c.render(FrameInput, nil)
}

// Backspace removes the last input rune.
func (c *Controller) Backspace() {
	if c.phase != PhasePlaying || len(c.input) == 0 {
		return
	}
	if c.expireIfDue() {
		return
	}
	c.input = c.input[:len(c.input)-1]
	c.render(FrameInput, nil)
}

// Submit checks the buffer explicitly. A mismatch clears the buffer.
func (c *Controller) Submit() {
	if c.phase != PhasePlaying {
		return
	}
	if c.expireIfDue() {
		return
	}
	if c.matches() {
		c.complete()
		return
	}
	c.input = c.input[:0]
	c.render(FrameMismatch, nil)
}

// Commit replaces the buffer with a whole line and submits it.
func (c *Controller) Commit(line string) {
	if c.phase != PhasePlaying {
		return
	}
	if c.expireIfDue() {
		return
	}
	c.input = append(c.input[:0], []rune(strings.TrimSpace(line))...)
	c.Submit()
}

// Tick delivers a timer notification for countdown generation gen.
func (c *Controller) Tick(gen uint64) {
	if c.phase != PhasePlaying {
		return
	}
	res := c.timer.Tick(gen)
	switch {
	case res.Stale:
		return
	case res.Expired:
		c.expire()
	default:
		c.render(FrameTick, nil)
	}
}

// TogglePause pauses a running challenge or resumes a paused one.
func (c *Controller) TogglePause() {
	switch c.phase {
	case PhasePlaying:
		if c.expireIfDue() {
			return
		}
		if c.timer.Pause() {
			c.phase = PhasePaused
			c.render(FramePaused, nil)
		}
	case PhasePaused:
		if _, ok := c.timer.Resume(); ok {
			c.phase = PhasePlaying
			c.render(FrameResumed, nil)
		}
	}
}

// Quit ends the session early. Quitting before Start leaves no summary and
// records nothing.
func (c *Controller) Quit() {
	switch c.phase {
	case PhaseOver:
		return
	case PhaseReady:
		c.phase = PhaseOver
		c.logger.Debug("session abandoned before start")
		return
	}
	c.finish(OutcomeQuit)
}

// expireIfDue lets an overdue countdown expire before input is evaluated,
// so a late keystroke cannot complete a challenge whose time ran out.
func (c *Controller) expireIfDue() bool {
	if !c.timer.Running() {
		return false
	}
	if res := c.timer.Tick(c.timer.Generation()); res.Expired {
		c.expire()
		return true
	}
	return false
}

func (c *Controller) matches() bool {
	return string(c.input) == c.currentCommand()
}

func (c *Controller) complete() {
	used, ok := c.timer.Complete()
	if !ok {
		return
	}
	limit := c.timer.Limit()
	rank := Rank(used, limit)
	result := ChallengeResult{
		Command:    c.currentCommand(),
		Limit:      limit,
		TimeUsed:   used,
		Multiplier: c.timer.Multiplier(),
		Attempt:    c.attempt,
		Rank:       rank,
	}
	c.results = append(c.results, result)
	if c.state.RecordCompletion(rank) {
		c.newHigh = true
		if c.scores != nil {
			c.scores.SaveHighScore(c.state.HighScore)
		}
	}
	c.logger.Debug("challenge completed",
		zap.String("command", result.Command),
		zap.Float64("used", used),
		zap.String("tier", string(rank.Tier)),
		zap.Int("score", c.state.Score))
	c.render(FrameRank, &result)
	c.beginChallenge(false)
}

func (c *Controller) expire() {
	result := ChallengeResult{
		Command:    c.currentCommand(),
		Limit:      c.timer.Limit(),
		TimeUsed:   c.timer.Limit(),
		Multiplier: c.timer.Multiplier(),
		Attempt:    c.attempt,
		TimedOut:   true,
	}
	c.results = append(c.results, result)
	c.state.RecordTimeout()
	c.logger.Debug("challenge expired",
		zap.String("command", result.Command),
		zap.Int("attempt", c.attempt))
	c.render(FrameTimeout, &result)
	if c.policy == PolicyEnd {
		c.finish(OutcomeDefeat)
		return
	}
	c.beginChallenge(true)
}

func (c *Controller) finish(outcome Outcome) {
	c.timer.Cancel()
	c.phase = PhaseOver
	summary := Summary{
		Outcome:      outcome,
		Policy:       c.policy,
		StartedAt:    c.startedAt,
		EndedAt:      c.now(),
		Score:        c.state.Score,
		HighScore:    c.state.HighScore,
		NewHighScore: c.newHigh,
		Level:        c.state.Level,
		Completed:    c.state.Completed,
		Total:        c.state.Total,
		Results:      append([]ChallengeResult(nil), c.results...),
	}
	c.summary = &summary
	c.logger.Info("session finished",
		zap.String("outcome", string(outcome)),
		zap.Int("score", summary.Score),
		zap.Int("completed", summary.Completed),
		zap.Int("total", summary.Total))
	if c.history != nil {
		c.history.RecordSession(summary)
	}
	c.render(FrameSummary, nil)
}

func (c *Controller) currentCommand() string {
	if c.state.Completed >= len(c.order) {
		return ""
	}
	return c.order[c.state.Completed]
}

func (c *Controller) render(kind FrameKind, result *ChallengeResult) {
	frame := Frame{
		Kind:       kind,
		Command:    c.currentCommand(),
		Input:      string(c.input),
		Remaining:  c.timer.Remaining(),
		Limit:      c.timer.Limit(),
		Multiplier: c.timer.Multiplier(),
		Score:      c.state.Score,
		HighScore:  c.state.HighScore,
		Level:      c.state.Level,
		Completed:  c.state.Completed,
		Total:      c.state.Total,
		Attempt:    c.attempt,
		Result:     result,
		Summary:    c.summary,
	}
	if kind == FrameRank || kind == FrameTimeout {
		// The countdown that produced the result is already stopped.
		frame.Command = result.Command
	}
	c.presenter.Render(frame)
}

// Phase returns the lifecycle phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Finished reports whether the session has ended.
func (c *Controller) Finished() bool {
	return c.phase == PhaseOver
}

// Running reports whether the countdown expects ticks.
func (c *Controller) Running() bool {
	return c.phase == PhasePlaying && c.timer.Running()
}

// Generation identifies the running countdown; ticks must carry it.
func (c *Controller) Generation() uint64 {
	return c.timer.Generation()
}

// TickPeriod is the cadence at which ticks should be delivered.
func (c *Controller) TickPeriod() time.Duration {
	return PollPeriod(c.state.SpeedMultiplier())
}

// State returns a copy of the session progress.
func (c *Controller) State() State {
	return *c.state
}

// Command returns the current target command.
func (c *Controller) Command() string {
	return c.currentCommand()
}

// Input returns the live input buffer.
func (c *Controller) Input() string {
	return string(c.input)
}

// Summary returns the session summary once the session has ended.
func (c *Controller) Summary() (Summary, bool) {
	if c.summary == nil {
		return Summary{}, false
	}
	return *c.summary, true
}
