package game

// CompletionsPerLevel is how many completed challenges raise the level by one.
const CompletionsPerLevel = 10

// State is the mutable progress of one session. It is owned by a Controller
// and only changes through its Record methods.
type State struct {
	Total     int
	Completed int
	Score     int
	Level     int
	HighScore int
}

// NewState returns the starting state for a session of total challenges.
func NewState(total, highScore int) *State {
	if highScore < 0 {
		highScore = 0
	}
	return &State{
		Total:     total,
		Level:     1,
		HighScore: highScore,
	}
}

// RecordCompletion adds the points of a completed challenge and advances
// progress. It reports whether the high score was raised.
func (s *State) RecordCompletion(r RankResult) bool {
	s.Score += r.Points
	s.Completed++
	if s.Completed%CompletionsPerLevel == 0 {
		s.Level++
	}
	if s.Score > s.HighScore {
		s.HighScore = s.Score
		return true
	}
	return false
}

// RecordTimeout leaves score, level and progress untouched; the timed-out
// challenge stays current.
func (s *State) RecordTimeout() {}

// IsComplete reports whether every challenge has been completed.
func (s *State) IsComplete() bool {
	return s.Completed >= s.Total
}

// SpeedMultiplier is the countdown rate for the current level.
func (s *State) SpeedMultiplier() float64 {
	return SpeedMultiplier(s.Level)
}

// SpeedMultiplier returns 1 + 0.1 per level above the first.
func SpeedMultiplier(level int) float64 {
	if level < 1 {
		level = 1
	}
	return 1 + 0.1*float64(level-1)
}
