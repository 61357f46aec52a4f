// Package synth maps vector sensor readings onto sound-landscape voice parameters
package synth

import (
	"math"

	"github.com/lixenwraith/sensorloop/control"
	"github.com/lixenwraith/sensorloop/parameter"
	"github.com/lixenwraith/sensorloop/sensor"
)

// Voices is the number of sine voices, one per axis
const Voices = parameter.LandscapeVoices

// Params is one target state of the synthesizer
type Params struct {
	Frequencies [Voices]float64
	Amplitude   float64 // in [0, 1]
}

// Idle is the silent state at the rest-position frequencies
func Idle() Params {
	return FromVector(0, 0, 0, 0)
}

// FromReading maps x, y, z onto three voices; amplitude is the mean absolute axis value scaled and clamped
func FromReading(r sensor.Reading) Params {
	x, y, z := r.Vector()
	amp := (math.Abs(x) + math.Abs(y) + math.Abs(z)) / 3 * parameter.LandscapeAmplitude
	return FromVector(x, y, z, amp)
}

// FromSnapshot maps the latest reading of a controller snapshot, Idle before the first reading
func FromSnapshot(s control.Snapshot) Params {
	if s.Generation == 0 {
		return Idle()
	}
	return FromReading(s.Latest)
}

// FromVector builds params from axis values and an unclamped amplitude
func FromVector(x, y, z, amp float64) Params {
	var p Params
	for i, v := range [Voices]float64{x, y, z} {
		p.Frequencies[i] = parameter.LandscapeBase[i] + (v+1)*parameter.LandscapeSpread
	}
	p.Amplitude = clamp01(amp)
	return p
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
