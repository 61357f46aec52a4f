// Package game implements the fixed-tick sensor-controlled simulation
package game

import (
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/lixenwraith/sensorloop/control"
	"github.com/lixenwraith/sensorloop/physics"
)

// SignalSource supplies the latest control snapshot; *control.Controller implements it
type SignalSource interface {
	Snapshot() control.Snapshot
}

// HistoryResetter clears control history on session reset
type HistoryResetter interface {
	Reset()
}

// Clock provides spawn timing
type Clock interface {
	Now() time.Time
}

// Option configures a Simulation
type Option func(*Simulation)

// WithHistory lets Reset clear controller history when the variant asks for it
func WithHistory(h HistoryResetter) Option {
	return func(s *Simulation) { s.history = h }
}

// WithLogger sets the lifecycle logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.log = l
		}
	}
}

// Simulation owns one game session. It is driven by a single goroutine and is not safe for concurrent use;
// other goroutines observe it through Frame copies
type Simulation struct {
	params  Params
	source  SignalSource
	clock   Clock
	history HistoryResetter
	rng     *rand.Rand
	log     *slog.Logger

	lifecycle Lifecycle
	entity    physics.Body
	obstacles ObstacleSet
	score     int
	tick      uint64
	jumps     int

	// consumed is the last snapshot generation acted upon, making triggers edge-sensitive
	consumed  uint64
	lastSpawn time.Time
}

// NewSimulation creates a session in NotStarted; params must pass Validate
func NewSimulation(p Params, source SignalSource, clock Clock, opts ...Option) *Simulation {
	s := &Simulation{
		params: p,
		source: source,
		clock:  clock,
		rng:    rand.New(rand.NewSource(p.Seed)),
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clearSession()
	s.consumed = source.Snapshot().Generation
	return s
}

// Params returns the simulation tuning
func (s *Simulation) Params() Params { return s.params }

// Lifecycle returns the current session state
func (s *Simulation) Lifecycle() Lifecycle { return s.lifecycle }

// Score returns the current score
func (s *Simulation) Score() int { return s.score }

// Step advances one tick
func (s *Simulation) Step() {
	snap := s.source.Snapshot()

	switch s.lifecycle {
	case NotStarted:
		if s.fresh(snap) && snap.Armed {
			s.start()
			if snap.Triggered {
				s.jump()
			}
		}
		return
	case Over:
		return
	}

	s.tick++
	s.entity.Integrate(s.params.Gravity)
	lethal := s.applyBounds()

	s.obstacles.Advance(s.params.ObstacleSpeed)
	s.obstacles.DropExited()
	s.spawn()
	s.updateScore()

	if lethal || s.collides() {
		s.lifecycle = Over
		s.log.Info("session over", "score", s.score, "tick", s.tick, "jumps", s.jumps)
		return
	}

	if s.fresh(snap) && snap.Triggered && s.canJump() {
		s.jump()
	}
}

// Reset returns the session to NotStarted; calling it repeatedly has no further effect
func (s *Simulation) Reset() {
	if s.params.ClearHistoryOnReset && s.history != nil {
		s.history.Reset()
	}
	s.clearSession()
	// Whatever the controller currently holds predates this session
	s.consumed = s.source.Snapshot().Generation
}

func (s *Simulation) clearSession() {
	s.lifecycle = NotStarted
	s.entity = physics.Body{Rect: s.params.Entity}
	s.obstacles.Clear()
	s.score = 0
	s.tick = 0
	s.jumps = 0
	s.lastSpawn = time.Time{}
}

// fresh consumes each snapshot generation once, triggered or not
func (s *Simulation) fresh(snap control.Snapshot) bool {
	if snap.Generation == s.consumed {
		return false
	}
	s.consumed = snap.Generation
	return true
}

func (s *Simulation) start() {
	s.lifecycle = Running
	s.lastSpawn = s.clock.Now().Add(s.params.SpawnDelay)
	s.log.Info("session started", "variant", s.params.Variant)
}

func (s *Simulation) jump() {
	s.entity.Impulse(s.params.JumpStrength, physics.ImpulseOverride)
	s.jumps++
}

func (s *Simulation) canJump() bool {
	if s.params.Variant == VariantFlappy {
		return s.entity.Within(0, s.params.Height)
	}
	return s.entity.RestingOn(s.params.Ground)
}

// applyBounds clamps the dino to floor and ceiling; for the flappy variant leaving the field is lethal
func (s *Simulation) applyBounds() (lethal bool) {
	if s.params.Variant == VariantFlappy {
		return !s.entity.Within(0, s.params.Height)
	}
	s.entity.ClampFloor(s.params.Ground)
	s.entity.ClampCeiling(0)
	return false
}

func (s *Simulation) spawn() {
	now := s.clock.Now()
	if now.Sub(s.lastSpawn) <= s.params.SpawnInterval {
		return
	}
	s.obstacles.Append(s.newObstacle())
	s.lastSpawn = now
}

func (s *Simulation) newObstacle() Obstacle {
	p := s.params
	o := Obstacle{X: p.Width, W: p.ObstacleWidth}

	switch p.Variant {
	case VariantFlappy:
		// Opening top is uniform over [margin, height-gap-margin]
		span := int(p.Height - p.Gap - 2*p.GapMargin)
		top := p.GapMargin + float64(s.rng.Intn(span+1))
		o.Spans = []Span{
			{Top: 0, Bottom: top},
			{Top: top + p.Gap, Bottom: p.Height},
		}
	default:
		o.Spans = []Span{{Top: p.Height - p.ObstacleHeight, Bottom: p.Height}}
	}
	return o
}

func (s *Simulation) updateScore() {
	if s.params.Variant != VariantFlappy {
		s.score++
		return
	}
	for i := range s.obstacles.items {
		o := &s.obstacles.items[i]
		if !o.Passed && o.Right() < s.entity.X {
			o.Passed = true
			s.score++
		}
	}
}

func (s *Simulation) collides() bool {
	for _, o := range s.obstacles.items {
		if s.entity.OverlapsAny(o.Rects()) {
			return true
		}
	}
	return false
}
