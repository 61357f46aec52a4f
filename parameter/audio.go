package parameter

import "time"

// Audio hardware settings
const (
	AudioSampleRate = 44100

	// AudioBufferDuration determines speaker latency
	AudioBufferDuration = 100 * time.Millisecond

	AudioMasterVolume = 0.8
)

// Sound landscape voices, one per accelerometer axis
const (
	LandscapeVoices = 3

	// LandscapeGlide is the time constant for frequency and amplitude changes
	LandscapeGlide = 50 * time.Millisecond

	// LandscapeVoiceGain scales each voice so the sum of full-amplitude voices stays inside [-1, 1]
	LandscapeVoiceGain = 1.0 / LandscapeVoices
)

// Game cue sounds
const (
	JumpSoundDuration = 80 * time.Millisecond
	JumpSoundAttack   = 5 * time.Millisecond
	JumpSoundRelease  = 60 * time.Millisecond

	CrashSoundDuration = 300 * time.Millisecond
	CrashSoundAttack   = 5 * time.Millisecond
	CrashSoundRelease  = 200 * time.Millisecond

	StartSoundNote1Duration = 70 * time.Millisecond
	StartSoundNote2Duration = 140 * time.Millisecond
	StartSoundAttack        = 5 * time.Millisecond
	StartSoundRelease       = 60 * time.Millisecond
)

// Sound landscape mapping, per axis i: f = LandscapeBase[i] + (v+1)*LandscapeSpread
var LandscapeBase = [LandscapeVoices]float64{220, 440, 660}

const (
	LandscapeSpread    = 220.0
	LandscapeAmplitude = 0.5

	// LandscapeMaxFrequency keeps voices below Nyquist for AudioSampleRate
	LandscapeMaxFrequency = 20000.0
)
