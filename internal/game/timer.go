package game

import (
	"fmt"
	"time"
)

const (
	basePollPeriod = 100 * time.Millisecond
	minPollPeriod  = 50 * time.Millisecond
)

// TimerState is the lifecycle position of a challenge countdown.
type TimerState int

const (
	TimerIdle TimerState = iota
	TimerRunning
	TimerPaused
	TimerCompleted
	TimerExpired
	TimerCancelled
)

func (s TimerState) String() string {
	switch s {
	case TimerIdle:
		return "idle"
	case TimerRunning:
		return "running"
	case TimerPaused:
		return "paused"
	case TimerCompleted:
		return "completed"
	case TimerExpired:
		return "expired"
	case TimerCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("TimerState(%d)", int(s))
	}
}

// TickResult reports what a tick observed.
type TickResult struct {
	Remaining float64
	Expired   bool
	// Stale is set when the tick belongs to a cancelled or finished countdown.
	Stale bool
}

// Timer is a countdown bound to one challenge. It does not schedule itself:
// the owner delivers ticks tagged with the generation returned by Start, and
// any tick whose generation is no longer current is ignored. Every state
// change bumps the generation, so Cancel takes effect synchronously.
type Timer struct {
	now        func() time.Time
	state      TimerState
	generation uint64
	startedAt  time.Time
	frozenAt   time.Time
	limit      float64
	multiplier float64
}

// NewTimer returns an idle timer reading time from now.
func NewTimer(now func() time.Time) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{now: now}
}

// Start begins a countdown of limit seconds depleting at multiplier times real
// time and returns its generation. Any previous countdown is cancelled first.
// Non-positive limits or multipliers panic: they would corrupt ranking.
func (t *Timer) Start(limit, multiplier float64) uint64 {
	if limit <= 0 {
		panic(fmt.Sprintf("game: timer limit must be positive, got %v", limit))
	}
	if multiplier <= 0 {
		panic(fmt.Sprintf("game: speed multiplier must be positive, got %v", multiplier))
	}
	t.Cancel()
	t.generation++
	t.state = TimerRunning
	t.startedAt = t.now()
	t.frozenAt = time.Time{}
	t.limit = limit
	t.multiplier = multiplier
	return t.generation
}

// Tick recomputes the remaining time for the countdown of generation gen.
// The first tick at or below zero expires the countdown; it reports Expired
// exactly once and every later tick is stale.
func (t *Timer) Tick(gen uint64) TickResult {
	if gen != t.generation || t.state != TimerRunning {
		return TickResult{Remaining: t.Remaining(), Stale: true}
	}
	remaining := t.Remaining()
	if remaining <= 0 {
		t.stop(TimerExpired)
		return TickResult{Remaining: 0, Expired: true}
	}
	return TickResult{Remaining: remaining}
}

// Complete stops a running countdown as a success and returns the countdown
// seconds consumed. ok is false when the countdown is not running, which
// suppresses a completion racing an expiry.
func (t *Timer) Complete() (used float64, ok bool) {
	if t.state != TimerRunning {
		return 0, false
	}
	t.stop(TimerCompleted)
	return t.used(), true
}

// Cancel stops all future notifications. It is idempotent.
func (t *Timer) Cancel() {
	if t.state != TimerRunning && t.state != TimerPaused {
		return
	}
	if t.state == TimerRunning {
		t.frozenAt = t.now()
	}
	t.state = TimerCancelled
	t.generation++
}

func (t *Timer) stop(state TimerState) {
	t.frozenAt = t.now()
	t.state = state
	t.generation++
}

// Pause freezes a running countdown.
func (t *Timer) Pause() bool {
	if t.state != TimerRunning {
		return false
	}
	t.stop(TimerPaused)
	return true
}

// Resume continues a paused countdown, excluding the paused interval, and
// returns the new generation.
func (t *Timer) Resume() (uint64, bool) {
	if t.state != TimerPaused {
		return t.generation, false
	}
	t.startedAt = t.startedAt.Add(t.now().Sub(t.frozenAt))
	t.frozenAt = time.Time{}
	t.state = TimerRunning
	t.generation++
	return t.generation, true
}

// State returns the lifecycle state.
func (t *Timer) State() TimerState {
	return t.state
}

// Generation identifies the current countdown for tick delivery.
func (t *Timer) Generation() uint64 {
	return t.generation
}

// Running reports whether ticks are currently expected.
func (t *Timer) Running() bool {
	return t.state == TimerRunning
}

// Limit returns the nominal time limit in seconds.
func (t *Timer) Limit() float64 {
	return t.limit
}

// Multiplier returns the countdown speed multiplier.
func (t *Timer) Multiplier() float64 {
	return t.multiplier
}

// StartedAt returns the start instant, shifted forward by any paused time.
func (t *Timer) StartedAt() time.Time {
	return t.startedAt
}

// Elapsed returns real seconds since start, excluding pauses. It stops
// advancing once the countdown is paused or finished.
func (t *Timer) Elapsed() float64 {
	if t.state == TimerIdle {
		return 0
	}
	end := t.now()
	if t.state != TimerRunning {
		end = t.frozenAt
	}
	return end.Sub(t.startedAt).Seconds()
}

// Remaining returns limit minus countdown seconds consumed, never below zero.
func (t *Timer) Remaining() float64 {
	if t.state == TimerIdle || t.state == TimerExpired {
		return 0
	}
	remaining := t.limit - t.used()
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (t *Timer) used() float64 {
	return t.Elapsed() * t.multiplier
}

// Period is the tick cadence for the running countdown.
func (t *Timer) Period() time.Duration {
	return PollPeriod(t.multiplier)
}

// PollPeriod returns max(50ms, 100ms / multiplier).
func PollPeriod(multiplier float64) time.Duration {
	if multiplier <= 0 {
		return basePollPeriod
	}
	period := time.Duration(float64(basePollPeriod) / multiplier)
	if period < minPollPeriod {
		return minPollPeriod
	}
	return period
}
