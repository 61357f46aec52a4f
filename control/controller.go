// Package control derives the control signal from recent sensor readings and hands it to the simulation
package control

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/sensorloop/parameter"
	"github.com/lixenwraith/sensorloop/sensor"
)

// Mode selects how the trigger magnitude is derived from history
type Mode uint8

const (
	// ModeDelta compares the two most recent readings
	ModeDelta Mode = iota
	// ModeLevel uses the magnitude of the latest reading
	ModeLevel
	// ModeSigned uses the latest reading as is, so only positive values exceed the threshold
	ModeSigned
)

func (m Mode) String() string {
	switch m {
	case ModeDelta:
		return "delta"
	case ModeLevel:
		return "level"
	case ModeSigned:
		return "signed"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode converts a config string into a Mode
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "delta":
		return ModeDelta, nil
	case "level":
		return ModeLevel, nil
	case "signed":
		return ModeSigned, nil
	default:
		return 0, fmt.Errorf("unknown signal mode %q", s)
	}
}

// Config holds controller tunables
type Config struct {
	Window    int
	Threshold float64
	// StartThreshold arms a session start on |Delta|; zero means Threshold
	StartThreshold float64
	Mode           Mode
}

func (c Config) startThreshold() float64 {
	if c.StartThreshold == 0 {
		return c.Threshold
	}
	return c.StartThreshold
}

// DefaultConfig returns the light-sensor defaults
func DefaultConfig() Config {
	return Config{
		Window:    parameter.HistoryWindow,
		Threshold: parameter.LightThreshold,
		Mode:      ModeDelta,
	}
}

// Snapshot is one complete controller state, never mutated after publication
type Snapshot struct {
	Delta     float64
	HasDelta  bool
	Triggered bool
	// Armed is set when |Delta| exceeds the start threshold
	Armed bool

	// Generation counts updates since the last Reset; 0 means no reading yet
	Generation uint64

	Latest  sensor.Reading
	Samples int
}

// Controller owns the reading history and publishes snapshots through a single atomic slot
// Update serializes writers; Snapshot is lock-free and never blocks
type Controller struct {
	cfg Config

	mu      sync.Mutex
	history *Ring[sensor.Reading]
	gen     uint64

	current atomic.Pointer[Snapshot]
}

// New creates a controller with an empty history
func New(cfg Config) *Controller {
	c := &Controller{
		cfg:     cfg,
		history: NewRing[sensor.Reading](cfg.Window),
	}
	c.current.Store(&Snapshot{})
	return c
}

// Config returns the controller's tunables
func (c *Controller) Config() Config {
	return c.cfg
}

// Update records a reading and publishes the derived snapshot
func (c *Controller) Update(r sensor.Reading) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history.Push(r)
	c.gen++

	snap := Snapshot{
		Generation: c.gen,
		Latest:     r,
		Samples:    c.history.Len(),
	}

	switch c.cfg.Mode {
	case ModeLevel:
		snap.Delta = math.Abs(r.Control)
		snap.HasDelta = true
	case ModeSigned:
		snap.Delta = r.Control
		snap.HasDelta = true
	default:
		if prev, ok := c.history.Back(1); ok {
			snap.Delta = math.Abs(r.Control - prev.Control)
			snap.HasDelta = true
		}
	}
	snap.Triggered = snap.HasDelta && snap.Delta > c.cfg.Threshold
	snap.Armed = snap.HasDelta && math.Abs(snap.Delta) > c.cfg.startThreshold()

	c.current.Store(&snap)
	return snap
}

// Snapshot returns the latest published state
func (c *Controller) Snapshot() Snapshot {
	return *c.current.Load()
}

// Reset clears history so a stale delta cannot carry into a new session
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history.Clear()
	c.gen = 0
	c.current.Store(&Snapshot{})
}

// History copies the retained readings, oldest first
func (c *Controller) History() []sensor.Reading {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Slice()
}
