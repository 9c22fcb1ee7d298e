// Package audio plays short sound cues for game events.
package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"

	"github.com/verte-zerg/archtype/internal/game"
)

const sampleRate = beep.SampleRate(44100)

// Cues renders game frames as sounds. It implements game.Presenter and is
// silent until Init succeeds.
type Cues struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	logger      *zap.Logger
	initialized bool
}

// New returns an uninitialized cue player.
func New(logger *zap.Logger) *Cues {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cues{mixer: &beep.Mixer{}, logger: logger}
}

// Init opens the audio device. A failure leaves the player silent.
func (c *Cues) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
		c.logger.Warn("audio unavailable", zap.Error(err))
		return err
	}
	speaker.Play(c.mixer)
	c.initialized = true
	return nil
}

// Close stops playback and releases the audio device.
func (c *Cues) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	c.initialized = false
}

// Render implements game.Presenter.
func (c *Cues) Render(frame game.Frame) {
	notes := cueFor(frame)
	if len(notes) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return
	}
	speaker.Lock()
	c.mixer.Add(melody(notes))
	speaker.Unlock()
}

// Note is a single tone. Freq 0 is a rest.
type Note struct {
	Freq     float64
	Duration time.Duration
	Wave     Wave
}

var tierPitch = map[game.Tier]float64{
	game.TierS: 1046.50,
	game.TierA: 880.00,
	game.TierB: 659.25,
	game.TierC: 523.25,
	game.TierD: 392.00,
}

func cueFor(frame game.Frame) []Note {
	switch frame.Kind {
	case game.FrameRank:
		if frame.Result == nil {
			return nil
		}
		pitch, ok := tierPitch[frame.Result.Rank.Tier]
		if !ok {
			return nil
		}
		if frame.Result.Rank.Tier == game.TierS {
			return []Note{
				{Freq: pitch, Duration: 70 * time.Millisecond},
				{Freq: pitch * 1.5, Duration: 110 * time.Millisecond},
			}
		}
		return []Note{{Freq: pitch, Duration: 120 * time.Millisecond}}
	case game.FrameMismatch:
		return []Note{{Freq: 220, Duration: 60 * time.Millisecond, Wave: WaveSquare}}
	case game.FrameTimeout:
		return []Note{{Freq: 130, Duration: 250 * time.Millisecond, Wave: WaveSquare}}
	case game.FrameSummary:
		if frame.Summary == nil {
			return nil
		}
		switch frame.Summary.Outcome {
		case game.OutcomeVictory:
			return []Note{
				{Freq: 523.25, Duration: 90 * time.Millisecond},
				{Freq: 659.25, Duration: 90 * time.Millisecond},
				{Freq: 783.99, Duration: 90 * time.Millisecond},
				{Freq: 1046.50, Duration: 220 * time.Millisecond},
			}
		case game.OutcomeDefeat:
			return []Note{
				{Freq: 392.00, Duration: 140 * time.Millisecond, Wave: WaveSquare},
				{Freq: 329.63, Duration: 140 * time.Millisecond, Wave: WaveSquare},
				{Freq: 261.63, Duration: 280 * time.Millisecond, Wave: WaveSquare},
			}
		}
	}
	return nil
}

func melody(notes []Note) beep.Streamer {
	streamers := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		streamers = append(streamers, NewTone(n, sampleRate))
	}
	return beep.Seq(streamers...)
}
