package physics

// ImpulseMode defines how an impulse combines with the current velocity
type ImpulseMode uint8

const (
	// ImpulseOverride replaces velocity, which makes a jump independent of the fall speed
	ImpulseOverride ImpulseMode = iota
	// ImpulseAdditive adds to the current velocity
	ImpulseAdditive
)

// Body is a box moving along the vertical axis under constant per-tick gravity
type Body struct {
	Rect
	VY float64
}

// Integrate advances one tick: gravity into velocity, then velocity into position
func (b *Body) Integrate(gravity float64) {
	b.VY += gravity
	b.Y += b.VY
}

// Impulse applies an instantaneous vertical velocity change
func (b *Body) Impulse(v float64, mode ImpulseMode) {
	switch mode {
	case ImpulseAdditive:
		b.VY += v
	default:
		b.VY = v
	}
}

// ClampFloor snaps the body onto a floor at y when it has sunk below it and stops vertical motion
// Returns true when a correction was applied
func (b *Body) ClampFloor(y float64) bool {
	if b.Bottom() <= y {
		return false
	}
	b.Y = y - b.H
	b.VY = 0
	return true
}

// ClampCeiling keeps the top edge at or below y, cancelling upward motion
func (b *Body) ClampCeiling(y float64) bool {
	if b.Y >= y {
		return false
	}
	b.Y = y
	if b.VY < 0 {
		b.VY = 0
	}
	return true
}

// RestingOn reports whether the body's lower edge is at or below a floor at y
func (b *Body) RestingOn(y float64) bool {
	return b.Bottom() >= y
}

// Within reports whether the body lies strictly inside the vertical band (top, bottom)
func (b *Body) Within(top, bottom float64) bool {
	return b.Y > top && b.Bottom() < bottom
}
