package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/sensorloop/engine"
	"github.com/lixenwraith/sensorloop/parameter"
)

// Player owns the speaker: one mixer behind a pause control and master volume
// A Player that failed to start, or was never started, drops every sound
type Player struct {
	rate   beep.SampleRate
	volume float64
	log    *slog.Logger

	mu          sync.Mutex
	mixer       *beep.Mixer
	ctrl        *beep.Ctrl
	opened      bool
	initialized bool
}

// NewPlayer creates a stopped player; nil logger discards
func NewPlayer(log *slog.Logger) *Player {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	mixer := &beep.Mixer{}
	return &Player{
		rate:   beep.SampleRate(parameter.AudioSampleRate),
		volume: parameter.AudioMasterVolume,
		log:    log,
		mixer:  mixer,
		ctrl:   &beep.Ctrl{Streamer: mixer},
	}
}

// Name implements service.Service
func (p *Player) Name() string { return "audio" }

// SampleRate returns the output rate
func (p *Player) SampleRate() beep.SampleRate { return p.rate }

// Start opens the audio device
func (p *Player) Start(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}
	if p.opened {
		speaker.Lock()
		p.ctrl.Paused = false
		speaker.Unlock()
		p.initialized = true
		return nil
	}
	if err := speaker.Init(p.rate, p.rate.N(parameter.AudioBufferDuration)); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}
	speaker.Play(newVolume(p.ctrl, p.volume))
	p.opened = true
	p.initialized = true
	p.log.Info("audio started", "rate", int(p.rate))
	return nil
}

// Stop silences and removes every stream
// The speaker device stays open since beep cannot re-init it safely
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return nil
	}
	speaker.Lock()
	p.mixer.Clear()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.initialized = false
	return nil
}

// Play mixes s into the output
func (p *Player) Play(s beep.Streamer) {
	if s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// Cue plays the effect for a scheduler cue
func (p *Player) Cue(c engine.Cue) {
	p.Play(CueSound(c, p.rate))
}

// SetMuted pauses or resumes the whole mix
func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.opened {
		p.ctrl.Paused = muted
		return
	}
	speaker.Lock()
	p.ctrl.Paused = muted
	speaker.Unlock()
}
