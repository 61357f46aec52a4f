// Package status is a lock-free metrics registry shared by the ingestion path, the tick loop and the status line
package status

import (
	"fmt"
	"slices"
	"strconv"
	"sync"
)

// Registry hands out named metrics
// Components resolve pointers once at construction; hot paths touch only atomics
type Registry struct {
	counters family[Counter]
	gauges   family[Gauge]
	labels   family[Label]
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Counter returns the counter for name, creating it on first use
func (r *Registry) Counter(name string) *Counter { return r.counters.get(name) }

// Gauge returns the gauge for name, creating it on first use
func (r *Registry) Gauge(name string) *Gauge { return r.gauges.get(name) }

// Label returns the label for name, creating it on first use
func (r *Registry) Label(name string) *Label { return r.labels.get(name) }

// Len returns the number of registered metrics
func (r *Registry) Len() int {
	return r.counters.len() + r.gauges.len() + r.labels.len()
}

// Sample is one rendered metric value
type Sample struct {
	Name  string
	Value string
}

// Snapshot renders every metric, sorted by name
func (r *Registry) Snapshot() []Sample {
	out := make([]Sample, 0, r.Len())
	r.counters.each(func(name string, c *Counter) {
		out = append(out, Sample{name, strconv.FormatInt(c.Load(), 10)})
	})
	r.gauges.each(func(name string, g *Gauge) {
		out = append(out, Sample{name, strconv.FormatFloat(g.Load(), 'f', 2, 64)})
	})
	r.labels.each(func(name string, l *Label) {
		out = append(out, Sample{name, l.Load()})
	})
	slices.SortFunc(out, func(a, b Sample) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}

// Format renders the named metrics as "name=value" pairs in the given order, skipping unknown names
func (r *Registry) Format(names ...string) string {
	var buf []byte
	for _, name := range names {
		v, ok := r.lookup(name)
		if !ok {
			continue
		}
		if len(buf) > 0 {
			buf = append(buf, ' ')
		}
		buf = fmt.Appendf(buf, "%s=%s", name, v)
	}
	return string(buf)
}

func (r *Registry) lookup(name string) (string, bool) {
	if c, ok := r.counters.find(name); ok {
		return strconv.FormatInt(c.Load(), 10), true
	}
	if g, ok := r.gauges.find(name); ok {
		return strconv.FormatFloat(g.Load(), 'f', 2, 64), true
	}
	if l, ok := r.labels.find(name); ok {
		return l.Load(), true
	}
	return "", false
}

// family is a name-to-pointer map; registration locks, cached pointers do not
type family[T any] struct {
	mu    sync.RWMutex
	items map[string]*T
}

func (f *family[T]) get(name string) *T {
	f.mu.RLock()
	if p, ok := f.items[name]; ok {
		f.mu.RUnlock()
		return p
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.items[name]; ok {
		return p
	}
	if f.items == nil {
		f.items = make(map[string]*T)
	}
	p := new(T)
	f.items[name] = p
	return p
}

func (f *family[T]) find(name string) (*T, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p, ok := f.items[name]
	return p, ok
}

func (f *family[T]) len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

func (f *family[T]) each(fn func(name string, p *T)) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for name, p := range f.items {
		fn(name, p)
	}
}
