// Package model defines shared data structures.
package model

import "time"

// Config defines session settings.
type Config struct {
	OnTimeout   string
	Sound       bool
	Categories  []string
	Count       int
	CatalogPath string
	Plain       bool
	FocusWeak   bool
	WeakTop     int
	WeakWindow  int
}

// HistoryFilter narrows history queries.
type HistoryFilter struct {
	Since   *time.Time
	Last    int
	Outcome string
}

// SessionRecord is a finished session as stored in history.
type SessionRecord struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time
	Outcome   string
	Policy    string
	Score     int
	HighScore int
	Level     int
	Completed int
	Total     int
}

// ChallengeRecord is one attempt at a command within a session.
type ChallengeRecord struct {
	Seq        int
	Command    string
	TimeLimit  float64
	TimeUsed   float64
	Multiplier float64
	Attempt    int
	TimedOut   bool
	Tier       string
	Points     int
}

// TierCount aggregates completions per rank tier.
type TierCount struct {
	Tier  string
	Count int
}

// CommandAggregate summarizes all attempts at one command.
type CommandAggregate struct {
	Command     string
	Attempts    int
	Completions int
	Timeouts    int
	AvgPct      float64
}
