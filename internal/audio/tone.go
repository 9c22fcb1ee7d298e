package audio

import (
	"math"

	"github.com/gopxl/beep"
)

// Wave selects the oscillator shape.
type Wave int

const (
	WaveSine Wave = iota
	WaveSquare
)

const (
	amplitude = 0.25
	fadeSec   = 0.005
)

// Tone is a finite beep.Streamer for one Note.
type Tone struct {
	note  Note
	sr    beep.SampleRate
	pos   int
	total int
}

// NewTone returns a streamer that plays note once.
func NewTone(note Note, sr beep.SampleRate) *Tone {
	return &Tone{note: note, sr: sr, total: sr.N(note.Duration)}
}

// Stream implements beep.Streamer.
func (t *Tone) Stream(samples [][2]float64) (n int, ok bool) {
	if t.pos >= t.total {
		return 0, false
	}
	for i := range samples {
		if t.pos >= t.total {
			return i, true
		}
		v := t.sample()
		samples[i][0] = v
		samples[i][1] = v
		t.pos++
		n++
	}
	return n, true
}

// Err implements beep.Streamer.
func (t *Tone) Err() error {
	return nil
}

func (t *Tone) sample() float64 {
	if t.note.Freq <= 0 {
		return 0
	}
	sec := float64(t.pos) / float64(t.sr)
	phase := math.Sin(2 * math.Pi * t.note.Freq * sec)
	if t.note.Wave == WaveSquare {
		if phase >= 0 {
			phase = 0.6
		} else {
			phase = -0.6
		}
	}
	return amplitude * t.envelope() * phase
}

// envelope ramps the edges to avoid clicks.
func (t *Tone) envelope() float64 {
	fade := float64(t.sr) * fadeSec
	in := float64(t.pos) / fade
	out := float64(t.total-t.pos) / fade
	return math.Min(1, math.Min(in, out))
}
