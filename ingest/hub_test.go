package ingest

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/sensorloop/control"
	"github.com/lixenwraith/sensorloop/sensor"
	"github.com/lixenwraith/sensorloop/status"
)

type tapFunc func(Record) bool

func (f tapFunc) Offer(r Record) bool { return f(r) }

func newLightHub(t *testing.T, opts ...Option) (*Hub, *control.Controller) {
	t.Helper()
	dec, err := sensor.NewDecoder(sensor.LightSchema)
	if err != nil {
		t.Fatal(err)
	}
	ctrl := control.New(control.Config{Window: 10, Threshold: 5, Mode: control.ModeDelta})
	return NewHub(dec, ctrl, opts...), ctrl
}

func TestPushUpdatesController(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	reg := status.NewRegistry()
	hub, ctrl := newLightHub(t, WithClock(func() time.Time { return at }), WithRegistry(reg))
	in := hub.Attach("test")

	for _, msg := range []string{`{"illuminance": 10}`, `{"illuminance": "20"}`} {
		if err := in.Push([]byte(msg)); err != nil {
			t.Fatalf("push %s: %v", msg, err)
		}
	}

	snap := ctrl.Snapshot()
	if !snap.Triggered || snap.Delta != 10 || snap.Generation != 2 {
		t.Fatalf("snapshot %+v", snap)
	}
	if snap.Latest.Seq != 2 || !snap.Latest.At.Equal(at) {
		t.Fatalf("reading not stamped: %+v", snap.Latest)
	}
	if reg.Counter("ingest.accepted").Load() != 2 {
		t.Fatalf("accepted = %d", reg.Counter("ingest.accepted").Load())
	}
}

func TestPushBadPayloadKeepsSource(t *testing.T) {
	reg := status.NewRegistry()
	hub, ctrl := newLightHub(t, WithRegistry(reg))
	in := hub.Attach("test")

	for _, msg := range []string{`not json`, `{"lux": 3}`, `{"illuminance": "bright"}`} {
		err := in.Push([]byte(msg))
		if !errors.Is(err, sensor.ErrDecode) {
			t.Fatalf("push %q: got %v, want decode error", msg, err)
		}
	}
	if ctrl.Snapshot().Generation != 0 {
		t.Fatalf("bad payload reached controller")
	}
	if reg.Counter("ingest.dropped").Load() != 3 {
		t.Fatalf("dropped = %d", reg.Counter("ingest.dropped").Load())
	}

	if err := in.Push([]byte(`{"illuminance": 1}`)); err != nil {
		t.Fatalf("source unusable after bad payload: %v", err)
	}
}

func TestAttachSupersedes(t *testing.T) {
	hub, ctrl := newLightHub(t)
	first := hub.Attach("phone-a")
	if err := first.Push([]byte(`{"illuminance": 10}`)); err != nil {
		t.Fatal(err)
	}

	second := hub.Attach("phone-b")
	if first.Remote() != "phone-a" || second.Remote() != "phone-b" {
		t.Fatalf("remotes %q %q", first.Remote(), second.Remote())
	}
	select {
	case <-first.Done():
	default:
		t.Fatal("superseded ingestor not closed")
	}
	if err := first.Push([]byte(`{"illuminance": 99}`)); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("superseded push returned %v", err)
	}

	if err := second.Push([]byte(`{"illuminance": 30}`)); err != nil {
		t.Fatal(err)
	}
	// History carried across the source change
	snap := ctrl.Snapshot()
	if snap.Samples != 2 || snap.Delta != 20 {
		t.Fatalf("snapshot %+v", snap)
	}
	if id, ok := hub.Active(); !ok || id != second.ID() {
		t.Fatalf("active %q %v", id, ok)
	}
}

func TestDetachLeavesController(t *testing.T) {
	hub, ctrl := newLightHub(t)
	in := hub.Attach("x")
	_ = in.Push([]byte(`{"illuminance": 4}`))

	hub.Detach(in, errors.New("eof"))
	hub.Detach(in, errors.New("eof"))

	if _, ok := hub.Active(); ok {
		t.Fatal("detached source still active")
	}
	if ctrl.Snapshot().Generation != 1 {
		t.Fatal("detach changed controller")
	}

	// Detaching a stale ingestor never unseats the current one
	next := hub.Attach("y")
	hub.Detach(in, nil)
	if id, ok := hub.Active(); !ok || id != next.ID() {
		t.Fatal("stale detach removed active source")
	}
}

func TestTapNonBlocking(t *testing.T) {
	reg := status.NewRegistry()
	var mu sync.Mutex
	var got []Record
	full := false
	tap := tapFunc(func(r Record) bool {
		mu.Lock()
		defer mu.Unlock()
		if full {
			return false
		}
		got = append(got, r)
		full = true
		return true
	})

	hub, _ := newLightHub(t, WithTap(tap), WithRegistry(reg))
	in := hub.Attach("x")
	raw := []byte(`{"illuminance": 1}`)
	_ = in.Push(raw)
	_ = in.Push([]byte(`{"illuminance": 2}`))
	raw[2] = 'X'

	if len(got) != 1 || got[0].Seq != 1 || got[0].Source != in.ID() {
		t.Fatalf("tap records %+v", got)
	}
	if string(got[0].Payload) != `{"illuminance": 1}` {
		t.Fatalf("tap payload aliases caller buffer: %s", got[0].Payload)
	}
	if reg.Counter("ingest.tap_dropped").Load() != 1 {
		t.Fatalf("tap drop not counted")
	}
}

func TestConcurrentSourcesSequence(t *testing.T) {
	hub, ctrl := newLightHub(t)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := hub.Attach("racer")
			for j := 0; j < 200; j++ {
				if err := in.Push([]byte(`{"illuminance": 1}`)); errors.Is(err, ErrSuperseded) {
					return
				}
			}
		}()
	}
	wg.Wait()

	hist := ctrl.History()
	for i := 1; i < len(hist); i++ {
		if hist[i].Seq != hist[i-1].Seq+1 {
			t.Fatalf("sequence gap %d → %d", hist[i-1].Seq, hist[i].Seq)
		}
	}
}
