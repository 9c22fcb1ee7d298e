package game

import "time"

// FrameKind tells a presenter why a frame was emitted.
type FrameKind int

const (
	// FrameChallenge starts a new challenge (or a retry of the same one).
	FrameChallenge FrameKind = iota
	// FrameInput reflects a change of the live input buffer.
	FrameInput
	// FrameTick reflects a change of the remaining time.
	FrameTick
	// FrameMismatch follows a submit that did not match; the buffer was cleared.
	FrameMismatch
	// FrameRank reports a completed challenge.
	FrameRank
	// FrameTimeout reports an expired challenge.
	FrameTimeout
	// FramePaused and FrameResumed bracket a pause.
	FramePaused
	FrameResumed
	// FrameSummary ends the session.
	FrameSummary
)

func (k FrameKind) String() string {
	switch k {
	case FrameChallenge:
		return "challenge"
	case FrameInput:
		return "input"
	case FrameTick:
		return "tick"
	case FrameMismatch:
		return "mismatch"
	case FrameRank:
		return "rank"
	case FrameTimeout:
		return "timeout"
	case FramePaused:
		return "paused"
	case FrameResumed:
		return "resumed"
	case FrameSummary:
		return "summary"
	default:
		return "unknown"
	}
}

// Frame is a declarative render request. It carries data only; how it is
// drawn is up to the presenter.
type Frame struct {
	Kind       FrameKind
	Command    string
	Input      string
	Remaining  float64
	Limit      float64
	Multiplier float64
	Score      int
	HighScore  int
	Level      int
	Completed  int
	Total      int
	// Attempt counts tries of the current command, starting at 1.
	Attempt int
	// Result is set on FrameRank and FrameTimeout.
	Result *ChallengeResult
	// Summary is set on FrameSummary.
	Summary *Summary
}

// Presenter receives render requests. Render must not block.
type Presenter interface {
	Render(Frame)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(Frame)

// Render implements Presenter.
func (f PresenterFunc) Render(frame Frame) {
	f(frame)
}

// Presenters fans a frame out to several presenters in order.
type Presenters []Presenter

// Render implements Presenter.
func (ps Presenters) Render(frame Frame) {
	for _, p := range ps {
		if p != nil {
			p.Render(frame)
		}
	}
}

// HighScoreStore persists the best score across sessions. Implementations
// swallow their own failures: Load returns 0 and Save gives up silently.
type HighScoreStore interface {
	LoadHighScore() int
	SaveHighScore(score int)
}

// History records finished sessions. Failures must not reach the controller.
type History interface {
	RecordSession(Summary)
}

// Outcome is how a session ended.
type Outcome string

const (
	OutcomeVictory Outcome = "victory"
	OutcomeDefeat  Outcome = "defeat"
	OutcomeQuit    Outcome = "quit"
)

// ChallengeResult describes one finished attempt at a command.
type ChallengeResult struct {
	Command    string
	Limit      float64
	TimeUsed   float64
	Multiplier float64
	Attempt    int
	TimedOut   bool
	Rank       RankResult
}

// Summary describes a finished session.
type Summary struct {
	Outcome      Outcome
	Policy       TimeoutPolicy
	StartedAt    time.Time
	EndedAt      time.Time
	Score        int
	HighScore    int
	NewHighScore bool
	Level        int
	Completed    int
	Total        int
	Results      []ChallengeResult
}
