package status

import (
	"sync"
	"testing"
)

func TestRegistryReturnsSamePointer(t *testing.T) {
	r := NewRegistry()
	a := r.Counter("ingest.accepted")
	b := r.Counter("ingest.accepted")
	if a != b {
		t.Fatalf("counter pointers differ")
	}
	if r.Gauge("x") != r.Gauge("x") || r.Label("y") != r.Label("y") {
		t.Fatalf("gauge or label pointers differ")
	}
	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}
}

func TestConcurrentCounter(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := r.Counter("ticks")
			g := r.Gauge("sum")
			for j := 0; j < 1000; j++ {
				c.Inc()
				g.Add(0.5)
			}
		}()
	}
	wg.Wait()
	if got := r.Counter("ticks").Load(); got != 8000 {
		t.Fatalf("counter = %d", got)
	}
	if got := r.Gauge("sum").Load(); got != 4000 {
		t.Fatalf("gauge = %v", got)
	}
}

func TestSnapshotSorted(t *testing.T) {
	r := NewRegistry()
	r.Label("source").Store("ws")
	r.Counter("accepted").Add(3)
	r.Gauge("delta").Set(1.25)

	got := r.Snapshot()
	want := []Sample{{"accepted", "3"}, {"delta", "1.25"}, {"source", "ws"}}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFormat(t *testing.T) {
	r := NewRegistry()
	r.Counter("b").Add(2)
	r.Label("a").Store("x")
	if got := r.Format("a", "missing", "b"); got != "a=x b=2" {
		t.Fatalf("Format = %q", got)
	}
}

func TestLabelTruncates(t *testing.T) {
	var l Label
	if l.Load() != "" {
		t.Fatalf("zero label not empty")
	}
	long := make([]byte, MaxLabelLen+10)
	for i := range long {
		long[i] = 'a'
	}
	l.Store(string(long))
	if len(l.Load()) != MaxLabelLen {
		t.Fatalf("label length %d", len(l.Load()))
	}
}
