package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	frames []Frame
}

func (r *recorder) Render(f Frame) {
	r.frames = append(r.frames, f)
}

func (r *recorder) kinds() []FrameKind {
	out := make([]FrameKind, len(r.frames))
	for i, f := range r.frames {
		out[i] = f.Kind
	}
	return out
}

func (r *recorder) count(kind FrameKind) int {
	n := 0
	for _, f := range r.frames {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) last() Frame {
	return r.frames[len(r.frames)-1]
}

type memScores struct {
	high  int
	saves []int
}

func (m *memScores) LoadHighScore() int { return m.high }

func (m *memScores) SaveHighScore(score int) {
	m.high = score
	m.saves = append(m.saves, score)
}

type memHistory struct {
	sessions []Summary
}

func (m *memHistory) RecordSession(s Summary) {
	m.sessions = append(m.sessions, s)
}

type harness struct {
	clock   *fakeClock
	rec     *recorder
	scores  *memScores
	history *memHistory
	ctrl    *Controller
}

func newHarness(order []string, policy TimeoutPolicy) *harness {
	h := &harness{
		clock:   newFakeClock(),
		rec:     &recorder{},
		scores:  &memScores{},
		history: &memHistory{},
	}
	h.ctrl = NewController(order, Options{
		Policy:    policy,
		Presenter: h.rec,
		Scores:    h.scores,
		History:   h.history,
		Clock:     h.clock.Now,
	})
	return h
}

func (h *harness) typeString(s string) {
	for _, r := range s {
		h.ctrl.Append(r)
	}
}

func TestSingleCommandVictory(t *testing.T) {
	h := newHarness([]string{"ls -lah"}, PolicyRetry)
	h.ctrl.Start()
	require.Equal(t, FrameChallenge, h.rec.last().Kind)
	assert.Equal(t, "ls -lah", h.rec.last().Command)
	assert.Equal(t, 5.0, h.rec.last().Limit)

	h.clock.Advance(1 * time.Second)
	h.typeString("ls -lah")

	require.True(t, h.ctrl.Finished())
	summary, ok := h.ctrl.Summary()
	require.True(t, ok)
	assert.Equal(t, OutcomeVictory, summary.Outcome)
	assert.Equal(t, 100, summary.Score)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 1, summary.Total)
	assert.True(t, summary.NewHighScore)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, TierS, summary.Results[0].Rank.Tier)

	assert.Equal(t, []int{100}, h.scores.saves)
	require.Len(t, h.history.sessions, 1)
	assert.Equal(t, FrameSummary, h.rec.last().Kind)
	assert.Equal(t, 1, h.rec.count(FrameRank))
	assert.False(t, h.ctrl.Running())
}

func TestLiveInputRendersPartialProgress(t *testing.T) {
	h := newHarness([]string{"df -h"}, PolicyRetry)
	h.ctrl.Start()
	h.typeString("df")
	assert.Equal(t, FrameInput, h.rec.last().Kind)
	assert.Equal(t, "df", h.rec.last().Input)

	h.ctrl.Backspace()
	assert.Equal(t, "d", h.ctrl.Input())
	h.ctrl.Append('x')
	assert.Equal(t, "dx", h.rec.last().Input)
	assert.False(t, h.ctrl.Finished())
}

func TestSubmitMismatchClearsInput(t *testing.T) {
	h := newHarness([]string{"df -h"}, PolicyRetry)
	h.ctrl.Start()
	h.typeString("df -x")
	h.ctrl.Submit()

	assert.Equal(t, FrameMismatch, h.rec.last().Kind)
	assert.Equal(t, "", h.ctrl.Input())
	assert.Equal(t, 0, h.ctrl.State().Score)
	assert.True(t, h.ctrl.Running())
}

func TestCommitLine(t *testing.T) {
	h := newHarness([]string{"ip a", "ip link"}, PolicyRetry)
	h.ctrl.Start()
	first := h.ctrl.Command()

	h.ctrl.Commit("nope")
	assert.Equal(t, FrameMismatch, h.rec.last().Kind)
	assert.Equal(t, first, h.ctrl.Command())

	h.clock.Advance(1 * time.Second)
	h.ctrl.Commit("  " + first + "\n")
	assert.Equal(t, 1, h.ctrl.State().Completed)
	assert.Equal(t, FrameChallenge, h.rec.last().Kind)
	assert.NotEqual(t, first, h.ctrl.Command())
}

func TestRankUsesCountdownTime(t *testing.T) {
	h := newHarness([]string{"ls"}, PolicyRetry)
	h.ctrl.Start()
	h.clock.Advance(seconds(2.5))
	h.typeString("ls")

	summary, ok := h.ctrl.Summary()
	require.True(t, ok)
	result := summary.Results[0]
	assert.InDelta(t, 2.5, result.TimeUsed, 1e-9)
	assert.Equal(t, TierA, result.Rank.Tier)
	assert.Equal(t, 75, summary.Score)
}

func TestTickRendersRemaining(t *testing.T) {
	h := newHarness([]string{"uptime"}, PolicyRetry)
	h.ctrl.Start()
	gen := h.ctrl.Generation()

	h.clock.Advance(1 * time.Second)
	h.ctrl.Tick(gen)
	frame := h.rec.last()
	assert.Equal(t, FrameTick, frame.Kind)
	assert.InDelta(t, 4, frame.Remaining, 1e-9)
}

func TestTimeoutEndPolicy(t *testing.T) {
	h := newHarness([]string{"uptime", "lsblk"}, PolicyEnd)
	h.ctrl.Start()
	gen := h.ctrl.Generation()
	command := h.ctrl.Command()

	h.clock.Advance(6 * time.Second)
	h.ctrl.Tick(gen)

	require.True(t, h.ctrl.Finished())
	assert.Equal(t, 1, h.rec.count(FrameTimeout))
	assert.Equal(t, FrameSummary, h.rec.last().Kind)
	summary, _ := h.ctrl.Summary()
	assert.Equal(t, OutcomeDefeat, summary.Outcome)
	assert.Equal(t, 0, summary.Score)
	assert.Equal(t, 0, summary.Completed)
	require.Len(t, summary.Results, 1)
	assert.True(t, summary.Results[0].TimedOut)
	assert.Equal(t, command, summary.Results[0].Command)
	assert.Empty(t, h.scores.saves)
}

func TestTimeoutRetryPolicyRestartsSameCommand(t *testing.T) {
	h := newHarness([]string{"uptime", "lsblk"}, PolicyRetry)
	h.ctrl.Start()
	gen := h.ctrl.Generation()
	command := h.ctrl.Command()

	h.clock.Advance(6 * time.Second)
	h.ctrl.Tick(gen)

	require.False(t, h.ctrl.Finished())
	assert.Equal(t, command, h.ctrl.Command())
	assert.Equal(t, 0, h.ctrl.State().Completed)
	assert.Equal(t, 0, h.ctrl.State().Score)

	frame := h.rec.last()
	assert.Equal(t, FrameChallenge, frame.Kind)
	assert.Equal(t, 2, frame.Attempt)
	assert.InDelta(t, 5, frame.Remaining, 1e-9)

	assert.NotEqual(t, gen, h.ctrl.Generation())
	h.ctrl.Tick(gen)
	assert.Equal(t, 1, h.rec.count(FrameTimeout), "stale tick must not expire the retry")
}

func TestExpiryWinsOverLateKeystroke(t *testing.T) {
	h := newHarness([]string{"htop"}, PolicyEnd)
	h.ctrl.Start()
	gen := h.ctrl.Generation()
	h.typeString("hto")

	// Deadline passes with no tick delivered yet; the matching key lands in the same instant.
	h.clock.Advance(5 * time.Second)
	h.ctrl.Append('p')
	h.ctrl.Tick(gen)
	h.ctrl.Tick(h.ctrl.Generation())

	assert.Equal(t, 1, h.rec.count(FrameTimeout))
	assert.Equal(t, 0, h.rec.count(FrameRank))
	summary, ok := h.ctrl.Summary()
	require.True(t, ok)
	assert.Equal(t, OutcomeDefeat, summary.Outcome)
	assert.Equal(t, 0, summary.Score)
}

func TestCompletionWinsOverLateTick(t *testing.T) {
	h := newHarness([]string{"htop", "top"}, PolicyEnd)
	h.ctrl.Start()
	gen := h.ctrl.Generation()

	h.clock.Advance(4 * time.Second)
	h.typeString("htop")
	h.clock.Advance(2 * time.Second)
	h.ctrl.Tick(gen)

	assert.Equal(t, 0, h.rec.count(FrameTimeout))
	assert.Equal(t, 1, h.ctrl.State().Completed)
	assert.False(t, h.ctrl.Finished())
}

func TestLevelUpSpeedsCountdown(t *testing.T) {
	order := make([]string, 11)
	for i := range order {
		order[i] = string(rune('a' + i))
	}
	h := newHarness(order, PolicyRetry)
	h.ctrl.Start()
	for i := 0; i < 10; i++ {
		h.ctrl.Append(rune('a' + i))
	}
	state := h.ctrl.State()
	assert.Equal(t, 10, state.Completed)
	assert.Equal(t, 2, state.Level)

	frame := h.rec.last()
	assert.Equal(t, FrameChallenge, frame.Kind)
	assert.InDelta(t, 1.1, frame.Multiplier, 1e-9)
	assert.Equal(t, PollPeriod(1.1), h.ctrl.TickPeriod())
}

func TestHighScoreLoadedAndOnlySavedWhenBeaten(t *testing.T) {
	h := newHarness([]string{"a", "b", "c"}, PolicyRetry)
	h.scores.high = 150
	h.ctrl.Start()
	assert.Equal(t, 150, h.rec.last().HighScore)

	h.typeString("a")
	assert.Empty(t, h.scores.saves)
	h.typeString("b")
	assert.Equal(t, []int{200}, h.scores.saves)
	h.typeString("c")
	assert.Equal(t, []int{200, 300}, h.scores.saves)
}

func TestPauseFreezesCountdown(t *testing.T) {
	h := newHarness([]string{"uptime"}, PolicyEnd)
	h.ctrl.Start()
	gen := h.ctrl.Generation()

	h.clock.Advance(1 * time.Second)
	h.ctrl.TogglePause()
	assert.Equal(t, PhasePaused, h.ctrl.Phase())
	assert.Equal(t, FramePaused, h.rec.last().Kind)
	assert.False(t, h.ctrl.Running())

	h.clock.Advance(time.Minute)
	h.ctrl.Tick(gen)
	h.ctrl.Append('u')
	assert.Equal(t, "", h.ctrl.Input(), "input is ignored while paused")

	h.ctrl.TogglePause()
	assert.Equal(t, PhasePlaying, h.ctrl.Phase())
	assert.Equal(t, FrameResumed, h.rec.last().Kind)
	assert.InDelta(t, 4, h.rec.last().Remaining, 1e-9)
	assert.False(t, h.ctrl.Finished())
}

func TestQuit(t *testing.T) {
	h := newHarness([]string{"uptime", "lsblk"}, PolicyRetry)
	h.ctrl.Start()
	gen := h.ctrl.Generation()
	h.ctrl.Quit()
	h.ctrl.Quit()

	summary, ok := h.ctrl.Summary()
	require.True(t, ok)
	assert.Equal(t, OutcomeQuit, summary.Outcome)
	assert.Equal(t, 1, h.rec.count(FrameSummary))
	require.Len(t, h.history.sessions, 1)

	h.clock.Advance(time.Minute)
	h.ctrl.Tick(gen)
	assert.Equal(t, 0, h.rec.count(FrameTimeout))
}

func TestQuitBeforeStartRecordsNothing(t *testing.T) {
	h := newHarness([]string{"uptime", "lsblk"}, PolicyRetry)
	h.ctrl.Quit()

	assert.True(t, h.ctrl.Finished())
	_, ok := h.ctrl.Summary()
	assert.False(t, ok)
	assert.Empty(t, h.history.sessions)
	assert.Empty(t, h.rec.frames)

	h.ctrl.Start()
	assert.Equal(t, PhaseOver, h.ctrl.Phase(), "an abandoned session cannot start")
}

func TestBatchedRunesCompleteAtExactMatch(t *testing.T) {
	h := newHarness([]string{"ls", "pwd"}, PolicyRetry)
	h.ctrl.Start()
	h.ctrl.Append('l', 's', 'p')

	assert.Equal(t, 1, h.ctrl.State().Completed)
	assert.Equal(t, "pwd", h.ctrl.Command())
	assert.Equal(t, "", h.ctrl.Input(), "runes past the match are dropped")
	assert.Equal(t, FrameChallenge, h.rec.last().Kind)
}

func TestEmptyOrderIsImmediateVictory(t *testing.T) {
	h := newHarness(nil, PolicyRetry)
	h.ctrl.Start()
	assert.Equal(t, []FrameKind{FrameSummary}, h.rec.kinds())
	summary, _ := h.ctrl.Summary()
	assert.Equal(t, OutcomeVictory, summary.Outcome)
}

func TestParseTimeoutPolicy(t *testing.T) {
	p, err := ParseTimeoutPolicy(" END ")
	require.NoError(t, err)
	assert.Equal(t, PolicyEnd, p)

	p, err = ParseTimeoutPolicy("retry")
	require.NoError(t, err)
	assert.Equal(t, PolicyRetry, p)

	_, err = ParseTimeoutPolicy("skip")
	assert.Error(t, err)
}
