// Package sensor defines decoded sensor readings and the JSON decoder that produces them
package sensor

import "time"

// MaxAxes bounds the number of fields a single reading carries
const MaxAxes = 3

// Reading is one decoded sensor sample. Values are copied in, so a Reading is immutable once built
type Reading struct {
	// Seq is the arrival order assigned at ingestion, starting at 1
	Seq uint64
	At  time.Time

	// Control is the value of the schema's control field
	Control float64

	Values [MaxAxes]float64
	Axes   int
}

// Value returns the i-th decoded field in schema order, 0 when absent
func (r Reading) Value(i int) float64 {
	if i < 0 || i >= r.Axes {
		return 0
	}
	return r.Values[i]
}

// Vector returns the first three fields as x, y, z
func (r Reading) Vector() (x, y, z float64) {
	return r.Value(0), r.Value(1), r.Value(2)
}
