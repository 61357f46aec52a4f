package control

import (
	"slices"
	"testing"
)

func TestRingFIFOEviction(t *testing.T) {
	r := NewRing[int](3)

	for i := 1; i <= 3; i++ {
		if _, evicted := r.Push(i); evicted {
			t.Fatalf("push %d evicted before capacity", i)
		}
	}
	if got := r.Slice(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Fatalf("Slice = %v, want [1 2 3]", got)
	}

	old, evicted := r.Push(4)
	if !evicted || old != 1 {
		t.Fatalf("Push(4) evicted (%d, %v), want (1, true)", old, evicted)
	}
	old, evicted = r.Push(5)
	if !evicted || old != 2 {
		t.Fatalf("Push(5) evicted (%d, %v), want (2, true)", old, evicted)
	}
	if got := r.Slice(); !slices.Equal(got, []int{3, 4, 5}) {
		t.Errorf("Slice = %v, want [3 4 5]", got)
	}

	if v, ok := r.Back(0); !ok || v != 5 {
		t.Errorf("Back(0) = %d, %v", v, ok)
	}
	if v, ok := r.Back(2); !ok || v != 3 {
		t.Errorf("Back(2) = %d, %v", v, ok)
	}
	if _, ok := r.Back(3); ok {
		t.Error("Back(3) should be out of range")
	}
	if _, ok := r.Back(-1); ok {
		t.Error("Back(-1) should be out of range")
	}
}

func TestRingNeverExceedsCapacity(t *testing.T) {
	for _, capacity := range []int{1, 2, 10} {
		r := NewRing[int](capacity)
		for i := 0; i < capacity*7+3; i++ {
			r.Push(i)
			if r.Len() > r.Cap() {
				t.Fatalf("cap %d: Len %d exceeds Cap after %d pushes", capacity, r.Len(), i+1)
			}
		}
		if r.Len() != capacity {
			t.Errorf("cap %d: Len = %d after filling", capacity, r.Len())
		}
		newest, _ := r.Back(0)
		oldest, _ := r.Back(capacity - 1)
		if newest-oldest != capacity-1 {
			t.Errorf("cap %d: retained window [%d..%d] is not the newest elements", capacity, oldest, newest)
		}
	}
}

func TestRingClearAndMinimumCapacity(t *testing.T) {
	r := NewRing[string](0)
	if r.Cap() != 1 {
		t.Fatalf("Cap = %d, want minimum 1", r.Cap())
	}
	r.Push("a")
	r.Push("b")
	if v, _ := r.Back(0); v != "b" {
		t.Errorf("Back(0) = %q", v)
	}
	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Len after Clear = %d", r.Len())
	}
	if _, ok := r.Back(0); ok {
		t.Error("Back(0) after Clear should be empty")
	}
	r.Push("c")
	if got := r.Slice(); !slices.Equal(got, []string{"c"}) {
		t.Errorf("Slice after reuse = %v", got)
	}
}
