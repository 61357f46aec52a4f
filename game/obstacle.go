package game

import "github.com/lixenwraith/sensorloop/physics"

// Span is a solid vertical range of an obstacle column
type Span struct {
	Top, Bottom float64
}

// Obstacle is a column moving leftward; Spans are its solid parts
type Obstacle struct {
	X, W  float64
	Spans []Span

	// Passed is set once the entity has cleared the obstacle and it was scored
	Passed bool
}

// Right returns the trailing edge
func (o Obstacle) Right() float64 { return o.X + o.W }

// Rects expands the solid spans into boxes
func (o Obstacle) Rects() []physics.Rect {
	rects := make([]physics.Rect, 0, len(o.Spans))
	for _, s := range o.Spans {
		rects = append(rects, physics.Rect{X: o.X, Y: s.Top, W: o.W, H: s.Bottom - s.Top})
	}
	return rects
}

// ObstacleSet keeps obstacles in spawn order: appended at the tail, truncated at the head
type ObstacleSet struct {
	items []Obstacle
}

// Append adds a freshly spawned obstacle
func (s *ObstacleSet) Append(o Obstacle) {
	s.items = append(s.items, o)
}

// Advance moves every obstacle left by dx
func (s *ObstacleSet) Advance(dx float64) {
	for i := range s.items {
		s.items[i].X -= dx
	}
}

// DropExited removes head obstacles whose trailing edge reached the left boundary
// Survivors are shifted down so the backing array does not grow over a long session
func (s *ObstacleSet) DropExited() int {
	k := 0
	for k < len(s.items) && s.items[k].Right() <= 0 {
		k++
	}
	if k == 0 {
		return 0
	}
	n := copy(s.items, s.items[k:])
	clear(s.items[n:])
	s.items = s.items[:n]
	return k
}

// Len returns the number of tracked obstacles
func (s *ObstacleSet) Len() int { return len(s.items) }

// Clear removes every obstacle
func (s *ObstacleSet) Clear() {
	clear(s.items)
	s.items = s.items[:0]
}

// Clone deep-copies the obstacles
func (s *ObstacleSet) Clone() []Obstacle {
	out := make([]Obstacle, len(s.items))
	for i, o := range s.items {
		o.Spans = append([]Span(nil), o.Spans...)
		out[i] = o
	}
	return out
}
