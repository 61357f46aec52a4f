package status

import (
	"math"
	"sync/atomic"
)

// Counter is a monotonically increasing integer metric
// Zero value is ready to use
type Counter struct {
	v atomic.Int64
}

// Inc adds one
func (c *Counter) Inc() { c.v.Add(1) }

// Add adds n and returns the new total
func (c *Counter) Add(n int64) int64 { return c.v.Add(n) }

// Load returns the current total
func (c *Counter) Load() int64 { return c.v.Load() }

// Gauge holds a float64 stored as bits
type Gauge struct {
	bits atomic.Uint64
}

// Set stores the value
func (g *Gauge) Set(val float64) {
	g.bits.Store(math.Float64bits(val))
}

// Load returns the stored value
func (g *Gauge) Load() float64 {
	return math.Float64frombits(g.bits.Load())
}

// Add adds delta with a CAS loop and returns the new value
func (g *Gauge) Add(delta float64) float64 {
	for {
		old := g.bits.Load()
		next := math.Float64frombits(old) + delta
		if g.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}

// MaxLabelLen bounds label values shown in the status line
const MaxLabelLen = 36

// Label holds a short string value
type Label struct {
	ptr atomic.Pointer[string]
}

// Store sets the value, truncating to MaxLabelLen bytes
func (l *Label) Store(val string) {
	if len(val) > MaxLabelLen {
		val = val[:MaxLabelLen]
	}
	l.ptr.Store(&val)
}

// Load returns the value or ""
func (l *Label) Load() string {
	if p := l.ptr.Load(); p != nil {
		return *p
	}
	return ""
}
