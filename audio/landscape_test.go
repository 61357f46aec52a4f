package audio

import (
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/sensorloop/engine"
	"github.com/lixenwraith/sensorloop/synth"
)

type paramSlot struct {
	p atomic.Pointer[synth.Params]
}

func (s *paramSlot) set(p synth.Params) { s.p.Store(&p) }

func (s *paramSlot) get() synth.Params { return *s.p.Load() }

func TestLandscapeStaysInRange(t *testing.T) {
	var slot paramSlot
	slot.set(synth.FromVector(1, 1, 1, 1))
	rate := beep.SampleRate(44100)
	l := NewLandscape(slot.get, rate, 50*time.Millisecond)

	samples := make([][2]float64, 4410)
	for round := 0; round < 10; round++ {
		n, ok := l.Stream(samples)
		if !ok || n != len(samples) {
			t.Fatalf("landscape ended: n=%d ok=%v", n, ok)
		}
		for i := 0; i < n; i++ {
			if math.Abs(samples[i][0]) > 1 {
				t.Fatalf("sample %v outside [-1, 1]", samples[i][0])
			}
		}
	}
}

func TestLandscapeGlides(t *testing.T) {
	var slot paramSlot
	slot.set(synth.Idle())
	rate := beep.SampleRate(10000)
	l := NewLandscape(slot.get, rate, 50*time.Millisecond)

	target := synth.FromVector(1, 0, -1, 0.5)
	slot.set(target)

	// One sample in, the amplitude has barely moved: no step change
	one := make([][2]float64, 1)
	l.Stream(one)
	if l.Amplitude() > 0.05 {
		t.Fatalf("amplitude jumped to %v", l.Amplitude())
	}

	// After ten time constants the voices have converged
	buf := make([][2]float64, rate.N(500*time.Millisecond))
	l.Stream(buf)
	if math.Abs(l.Amplitude()-0.5) > 1e-3 {
		t.Errorf("amplitude %v, want 0.5", l.Amplitude())
	}
	for i, f := range l.Frequencies() {
		if math.Abs(f-target.Frequencies[i]) > 0.5 {
			t.Errorf("voice %d at %v, want %v", i, f, target.Frequencies[i])
		}
	}
}

func TestLandscapeSilentWhenIdle(t *testing.T) {
	l := NewLandscape(synth.Idle, beep.SampleRate(44100), 50*time.Millisecond)
	samples := make([][2]float64, 256)
	l.Stream(samples)
	for i := range samples {
		if samples[i][0] != 0 {
			t.Fatalf("idle landscape produced %v", samples[i][0])
		}
	}
}

func TestPlayerDropsBeforeStart(t *testing.T) {
	p := NewPlayer(nil)
	p.Cue(engine.CueJump)
	p.SetMuted(true)
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}
	if p.mixer.Len() != 0 {
		t.Fatalf("stopped player queued %d streams", p.mixer.Len())
	}
}

func TestCueSoundMapping(t *testing.T) {
	rate := beep.SampleRate(44100)
	for _, c := range []engine.Cue{engine.CueStart, engine.CueJump, engine.CueCrash} {
		if CueSound(c, rate) == nil {
			t.Errorf("cue %v has no sound", c)
		}
	}
	if CueSound(engine.Cue(99), rate) != nil {
		t.Error("unknown cue produced a sound")
	}
}
