package physics

import "math"

// Finite reports whether every value is neither NaN nor infinite
func Finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Rect is an axis-aligned box with its origin at the top-left corner; Y grows downward
type Rect struct {
	X, Y, W, H float64
}

// Right returns the x coordinate of the trailing edge
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the lower edge
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Empty reports whether the box has no area
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Overlaps reports whether two boxes share interior area
// Boxes that only touch along an edge do not overlap
func (r Rect) Overlaps(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.Right() && o.X < r.Right() &&
		r.Y < o.Bottom() && o.Y < r.Bottom()
}

// OverlapsAny reports whether r overlaps at least one of boxes
func (r Rect) OverlapsAny(boxes []Rect) bool {
	for _, b := range boxes {
		if r.Overlaps(b) {
			return true
		}
	}
	return false
}
