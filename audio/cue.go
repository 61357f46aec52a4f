package audio

import (
	"github.com/gopxl/beep"

	"github.com/lixenwraith/sensorloop/engine"
	"github.com/lixenwraith/sensorloop/parameter"
)

// JumpSound is a short rising blip
func JumpSound(rate beep.SampleRate) beep.Streamer {
	d := parameter.JumpSoundDuration
	osc := NewOscillator(660, d, WaveSquare, rate)
	return newVolume(NewEnvelope(osc, d, parameter.JumpSoundAttack, parameter.JumpSoundRelease, rate), 0.4)
}

// CrashSound is a low buzz layered with noise
func CrashSound(rate beep.SampleRate) beep.Streamer {
	d := parameter.CrashSoundDuration
	buzz := NewEnvelope(NewOscillator(110, d, WaveSaw, rate), d, parameter.CrashSoundAttack, parameter.CrashSoundRelease, rate)
	noise := NewEnvelope(NewOscillator(0, d, WaveNoise, rate), d, parameter.CrashSoundAttack, parameter.CrashSoundRelease, rate)
	return beep.Mix(newVolume(buzz, 0.5), newVolume(noise, 0.2))
}

// StartSound is a two-note rising chime
func StartSound(rate beep.SampleRate) beep.Streamer {
	d1, d2 := parameter.StartSoundNote1Duration, parameter.StartSoundNote2Duration
	n1 := NewEnvelope(NewOscillator(523.25, d1, WaveSine, rate), d1, parameter.StartSoundAttack, parameter.StartSoundRelease, rate)
	n2 := NewEnvelope(NewOscillator(783.99, d2, WaveSine, rate), d2, parameter.StartSoundAttack, parameter.StartSoundRelease, rate)
	return newVolume(beep.Seq(n1, n2), 0.6)
}

// CueSound returns the effect for a scheduler cue, nil when the cue is silent
func CueSound(c engine.Cue, rate beep.SampleRate) beep.Streamer {
	switch c {
	case engine.CueStart:
		return StartSound(rate)
	case engine.CueJump:
		return JumpSound(rate)
	case engine.CueCrash:
		return CrashSound(rate)
	default:
		return nil
	}
}
