package game

import "github.com/lixenwraith/sensorloop/physics"

// Frame is the read-only per-tick view handed to renderers; it shares no memory with the simulation
type Frame struct {
	Variant   Variant
	Lifecycle Lifecycle
	Tick      uint64
	Score     int
	Jumps     int

	Entity    physics.Rect
	Velocity  float64
	Obstacles []physics.Rect

	Width, Height, Ground float64
}

// Frame builds the outbound snapshot of the current session
func (s *Simulation) Frame() Frame {
	f := Frame{
		Variant:   s.params.Variant,
		Lifecycle: s.lifecycle,
		Tick:      s.tick,
		Score:     s.score,
		Jumps:     s.jumps,
		Entity:    s.entity.Rect,
		Velocity:  s.entity.VY,
		Width:     s.params.Width,
		Height:    s.params.Height,
		Ground:    s.params.Ground,
	}
	for _, o := range s.obstacles.items {
		f.Obstacles = append(f.Obstacles, o.Rects()...)
	}
	return f
}

// Session is a deep copy of the mutable session state
type Session struct {
	Entity    physics.Body
	Obstacles []Obstacle
	Score     int
	Lifecycle Lifecycle
	Tick      uint64
	Jumps     int
}

// Session returns a copy of the session that does not alias simulation memory
func (s *Simulation) Session() Session {
	return Session{
		Entity:    s.entity,
		Obstacles: s.obstacles.Clone(),
		Score:     s.score,
		Lifecycle: s.lifecycle,
		Tick:      s.tick,
		Jumps:     s.jumps,
	}
}
