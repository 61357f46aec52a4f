package physics

import (
	"math"
	"testing"
)

func TestRectOverlaps(t *testing.T) {
	base := Rect{X: 10, Y: 10, W: 10, H: 10}

	tests := []struct {
		name string
		o    Rect
		want bool
	}{
		{"identical", base, true},
		{"inside", Rect{X: 12, Y: 12, W: 2, H: 2}, true},
		{"partial", Rect{X: 15, Y: 15, W: 10, H: 10}, true},
		{"touch right edge", Rect{X: 20, Y: 10, W: 5, H: 10}, false},
		{"touch bottom edge", Rect{X: 10, Y: 20, W: 10, H: 5}, false},
		{"disjoint", Rect{X: 40, Y: 40, W: 5, H: 5}, false},
		{"zero width", Rect{X: 12, Y: 12, W: 0, H: 5}, false},
		{"negative height", Rect{X: 12, Y: 12, W: 5, H: -5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Overlaps(tt.o); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := tt.o.Overlaps(base); got != tt.want {
				t.Errorf("reverse Overlaps = %v, want %v", got, tt.want)
			}
		})
	}

	if !base.OverlapsAny([]Rect{{X: 100}, {X: 11, Y: 11, W: 1, H: 1}}) {
		t.Error("OverlapsAny missed an overlapping box")
	}
	if base.OverlapsAny(nil) {
		t.Error("OverlapsAny(nil) = true")
	}
}

func TestBodyIntegrateAndClamp(t *testing.T) {
	b := Body{Rect: Rect{Y: 0, W: 10, H: 10}}

	b.Integrate(0.8)
	if b.VY != 0.8 || b.Y != 0.8 {
		t.Fatalf("after one tick VY=%v Y=%v", b.VY, b.Y)
	}

	// Large fall overshoots the floor and must be snapped back
	b.VY = 500
	b.Integrate(0)
	if !b.ClampFloor(100) {
		t.Fatal("ClampFloor did not correct an overshoot")
	}
	if b.Bottom() != 100 || b.VY != 0 {
		t.Errorf("after clamp Bottom=%v VY=%v", b.Bottom(), b.VY)
	}
	if !b.RestingOn(100) {
		t.Error("body should rest on floor after clamp")
	}
	if b.ClampFloor(100) {
		t.Error("second ClampFloor should be a no-op")
	}

	b.Impulse(-15, ImpulseOverride)
	if b.VY != -15 {
		t.Errorf("override impulse VY = %v", b.VY)
	}
	b.Impulse(2, ImpulseAdditive)
	if b.VY != -13 {
		t.Errorf("additive impulse VY = %v", b.VY)
	}

	b.Y = -3
	if !b.ClampCeiling(0) || b.Y != 0 || b.VY != 0 {
		t.Errorf("ceiling clamp Y=%v VY=%v", b.Y, b.VY)
	}
}

func TestBodyWithin(t *testing.T) {
	b := Body{Rect: Rect{Y: 10, W: 5, H: 5}}
	if !b.Within(0, 100) {
		t.Error("body inside band reported outside")
	}
	b.Y = 0
	if b.Within(0, 100) {
		t.Error("body touching top reported inside")
	}
	b.Y = 95
	if b.Within(0, 100) {
		t.Error("body touching bottom reported inside")
	}
}

func TestFinite(t *testing.T) {
	if !Finite() || !Finite(0, -1, 1e300) {
		t.Error("finite values rejected")
	}
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if Finite(1, v) {
			t.Errorf("Finite accepted %v", v)
		}
	}
}
