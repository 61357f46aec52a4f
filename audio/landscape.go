// Package audio synthesizes the sensor sound landscape and game cue effects through the beep speaker
package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/sensorloop/parameter"
	"github.com/lixenwraith/sensorloop/synth"
)

// ParamSource returns the current target params; called once per buffer from the speaker goroutine
type ParamSource func() synth.Params

// Landscape is an endless stream of three sine voices gliding toward the latest targets
// Phase is continuous across target changes so updates never click
type Landscape struct {
	src  ParamSource
	rate beep.SampleRate

	phase [synth.Voices]float64
	freq  [synth.Voices]float64
	amp   float64

	// alpha is the per-sample one-pole smoothing coefficient for the glide time
	alpha float64
}

// NewLandscape creates the streamer; it starts at the source's current frequencies and silent
func NewLandscape(src ParamSource, rate beep.SampleRate, glide time.Duration) *Landscape {
	l := &Landscape{src: src, rate: rate, alpha: 1}
	if n := float64(rate.N(glide)); n > 0 {
		l.alpha = 1 - math.Exp(-1/n)
	}
	l.freq = clampFrequencies(src().Frequencies)
	return l
}

// Stream implements beep.Streamer
func (l *Landscape) Stream(samples [][2]float64) (n int, ok bool) {
	target := l.src()
	freqs := clampFrequencies(target.Frequencies)

	for i := range samples {
		l.amp += (target.Amplitude - l.amp) * l.alpha

		var v float64
		for k := range l.freq {
			l.freq[k] += (freqs[k] - l.freq[k]) * l.alpha
			v += math.Sin(2 * math.Pi * l.phase[k])
			l.phase[k] += l.freq[k] / float64(l.rate)
			l.phase[k] -= math.Floor(l.phase[k])
		}
		v *= l.amp * parameter.LandscapeVoiceGain

		samples[i][0] = v
		samples[i][1] = v
	}
	return len(samples), true
}

// Err implements beep.Streamer
func (l *Landscape) Err() error { return nil }

// Amplitude returns the current smoothed amplitude
func (l *Landscape) Amplitude() float64 { return l.amp }

// Frequencies returns the current smoothed voice frequencies
func (l *Landscape) Frequencies() [synth.Voices]float64 { return l.freq }

func clampFrequencies(f [synth.Voices]float64) [synth.Voices]float64 {
	for i := range f {
		f[i] = math.Min(math.Max(f[i], 0), parameter.LandscapeMaxFrequency)
	}
	return f
}
