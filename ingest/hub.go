// Package ingest turns raw transport messages into controller updates and arbitrates between competing sources
package ingest

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lixenwraith/sensorloop/control"
	"github.com/lixenwraith/sensorloop/sensor"
	"github.com/lixenwraith/sensorloop/status"
)

// ErrSuperseded is returned by Push once a newer source has attached
var ErrSuperseded = errors.New("source superseded")

// Updater receives decoded readings; *control.Controller implements it
type Updater interface {
	Update(sensor.Reading) control.Snapshot
}

// Record is a raw accepted message handed to a Tap
type Record struct {
	Source  string
	Seq     uint64
	At      time.Time
	Payload []byte
}

// Tap observes accepted messages; Offer must not block
type Tap interface {
	Offer(Record) bool
}

// Option configures a Hub
type Option func(*Hub)

// WithTap mirrors accepted messages to t
func WithTap(t Tap) Option {
	return func(h *Hub) { h.tap = t }
}

// WithClock overrides the arrival timestamp source
func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// WithLogger sets the hub logger
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}

// WithRegistry publishes ingestion metrics into reg
func WithRegistry(reg *status.Registry) Option {
	return func(h *Hub) { h.reg = reg }
}

// Hub owns the single active source feeding the controller
type Hub struct {
	dec  *sensor.Decoder
	ctrl Updater
	tap  Tap
	now  func() time.Time
	log  *slog.Logger
	reg  *status.Registry

	// mu orders attach/detach against Update so a superseded source never lands a reading after Attach returns
	mu     sync.Mutex
	active *Ingestor
	seq    uint64

	statAccepted   *status.Counter
	statDropped    *status.Counter
	statSuperseded *status.Counter
	statTapDropped *status.Counter
	statDelta      *status.Gauge
	statSource     *status.Label
}

// NewHub creates a hub decoding with dec and feeding ctrl
func NewHub(dec *sensor.Decoder, ctrl Updater, opts ...Option) *Hub {
	h := &Hub{
		dec:  dec,
		ctrl: ctrl,
		now:  time.Now,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.reg == nil {
		h.reg = status.NewRegistry()
	}
	h.statAccepted = h.reg.Counter("ingest.accepted")
	h.statDropped = h.reg.Counter("ingest.dropped")
	h.statSuperseded = h.reg.Counter("ingest.superseded")
	h.statTapDropped = h.reg.Counter("ingest.tap_dropped")
	h.statDelta = h.reg.Gauge("control.delta")
	h.statSource = h.reg.Label("ingest.source")
	return h
}

// Schema returns the decoded schema
func (h *Hub) Schema() sensor.Schema { return h.dec.Schema() }

// Attach registers a new connection as the active source, superseding any previous one
// Controller history is kept across attach
func (h *Hub) Attach(remote string) *Ingestor {
	in := &Ingestor{
		hub:    h,
		id:     uuid.NewString(),
		remote: remote,
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	prev := h.active
	h.active = in
	h.mu.Unlock()

	if prev != nil {
		prev.close()
		h.statSuperseded.Inc()
		h.log.Info("source superseded", "source", prev.id, "remote", prev.remote, "by", in.id)
	}
	h.statSource.Store(remote)
	h.log.Info("source attached", "source", in.id, "remote", remote, "schema", h.dec.Schema().Name)
	return in
}

// Detach removes in after its connection ended; cause is logged, the controller is untouched
func (h *Hub) Detach(in *Ingestor, cause error) {
	h.mu.Lock()
	wasActive := h.active == in
	if wasActive {
		h.active = nil
	}
	h.mu.Unlock()

	in.close()
	if wasActive {
		h.statSource.Store("")
	}
	h.log.Info("connection closed", "source", in.id, "remote", in.remote, "cause", cause)
}

// Active returns the ID of the current source
func (h *Hub) Active() (id string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == nil {
		return "", false
	}
	return h.active.id, true
}

func (h *Hub) accept(in *Ingestor, r sensor.Reading, raw []byte) error {
	h.mu.Lock()
	if h.active != in {
		h.mu.Unlock()
		return ErrSuperseded
	}
	h.seq++
	r.Seq = h.seq
	r.At = h.now()
	snap := h.ctrl.Update(r)
	h.mu.Unlock()

	h.statAccepted.Inc()
	h.statDelta.Set(snap.Delta)

	if h.tap != nil {
		rec := Record{Source: in.id, Seq: r.Seq, At: r.At, Payload: bytes.Clone(raw)}
		if !h.tap.Offer(rec) {
			h.statTapDropped.Inc()
		}
	}
	return nil
}

// Ingestor is the per-connection push endpoint
type Ingestor struct {
	hub    *Hub
	id     string
	remote string

	done     chan struct{}
	doneOnce sync.Once
}

// ID returns the source ID
func (in *Ingestor) ID() string { return in.id }

// Remote returns the transport-supplied peer name
func (in *Ingestor) Remote() string { return in.remote }

// Done is closed when the ingestor is superseded or detached
func (in *Ingestor) Done() <-chan struct{} { return in.done }

// Push decodes one message and forwards it to the controller
// A *sensor.DecodeError is returned for bad payloads; the caller keeps reading
func (in *Ingestor) Push(raw []byte) error {
	select {
	case <-in.done:
		return ErrSuperseded
	default:
	}

	r, err := in.hub.dec.Decode(raw)
	if err != nil {
		in.hub.statDropped.Inc()
		in.hub.log.Warn("dropping reading", "source", in.id, "error", err)
		return err
	}
	return in.hub.accept(in, r, raw)
}

func (in *Ingestor) close() {
	in.doneOnce.Do(func() { close(in.done) })
}
