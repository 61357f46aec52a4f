package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/sensorloop/game"
	"github.com/lixenwraith/sensorloop/parameter"
	"github.com/lixenwraith/sensorloop/status"
)

// ErrAlreadyRunning is returned by a second concurrent Run
var ErrAlreadyRunning = errors.New("scheduler already running")

// Stepper is the simulation driven by the scheduler; all calls come from the scheduler goroutine
type Stepper interface {
	Step()
	Reset()
	Frame() game.Frame
	Lifecycle() game.Lifecycle
}

// Option configures a ClockScheduler
type Option func(*ClockScheduler)

// WithTimeProvider replaces the monotonic clock
func WithTimeProvider(tp TimeProvider) Option {
	return func(cs *ClockScheduler) { cs.clock = tp }
}

// WithLogger sets the scheduler logger
func WithLogger(l *slog.Logger) Option {
	return func(cs *ClockScheduler) {
		if l != nil {
			cs.log = l
		}
	}
}

// WithRegistry publishes tick metrics into reg
func WithRegistry(reg *status.Registry) Option {
	return func(cs *ClockScheduler) { cs.reg = reg }
}

// WithCueHandler receives session cues on the scheduler goroutine; fn must not block
func WithCueHandler(fn func(Cue)) Option {
	return func(cs *ClockScheduler) { cs.onCue = fn }
}

// WithPausableClock pauses gc together with the scheduler; pass the same clock the simulation reads
func WithPausableClock(gc *PausableClock) Option {
	return func(cs *ClockScheduler) { cs.gameClock = gc }
}

// ClockScheduler runs the simulation on a fixed tick and publishes one frame per tick
// Restart and Stop are safe from any goroutine and never block
type ClockScheduler struct {
	sim      Stepper
	clock    TimeProvider
	interval time.Duration
	log      *slog.Logger
	reg      *status.Registry
	onCue    func(Cue)

	gameClock *PausableClock
	paused    atomic.Bool

	frame      atomic.Pointer[game.Frame]
	frameReady chan struct{}
	restart    chan struct{}

	stop     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	tickCount atomic.Uint64
	cues      []Cue

	// Cached metric pointers
	statTicks    *status.Counter
	statSkips    *status.Counter
	statRestarts *status.Counter
	statScore    *status.Gauge
	statState    *status.Label
}

// NewClockScheduler creates a scheduler stepping sim tickRate times per second
func NewClockScheduler(sim Stepper, tickRate int, opts ...Option) (*ClockScheduler, error) {
	if tickRate <= 0 {
		return nil, fmt.Errorf("tick rate %d must be positive", tickRate)
	}
	cs := &ClockScheduler{
		sim:        sim,
		clock:      NewMonotonicTimeProvider(),
		interval:   time.Second / time.Duration(tickRate),
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		frameReady: make(chan struct{}, 1),
		restart:    make(chan struct{}, 1),
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(cs)
	}
	if cs.reg == nil {
		cs.reg = status.NewRegistry()
	}
	cs.statTicks = cs.reg.Counter("engine.ticks")
	cs.statSkips = cs.reg.Counter("engine.skips")
	cs.statRestarts = cs.reg.Counter("engine.restarts")
	cs.statScore = cs.reg.Gauge("game.score")
	cs.statState = cs.reg.Label("game.state")

	f := sim.Frame()
	cs.frame.Store(&f)
	cs.statState.Store(f.Lifecycle.String())
	return cs, nil
}

// Interval returns the tick period
func (cs *ClockScheduler) Interval() time.Duration { return cs.interval }

// Frame returns the most recently published frame
func (cs *ClockScheduler) Frame() game.Frame { return *cs.frame.Load() }

// FrameReady is signalled after each publish; a slow reader sees one pending signal, never a backlog
func (cs *ClockScheduler) FrameReady() <-chan struct{} { return cs.frameReady }

// Ticks returns the number of ticks processed
func (cs *ClockScheduler) Ticks() uint64 { return cs.tickCount.Load() }

// Restart asks for a session reset on the next tick; ignored unless the session is over
func (cs *ClockScheduler) Restart() {
	select {
	case cs.restart <- struct{}{}:
	default:
	}
}

// SetPaused suspends or resumes stepping; pending restarts wait for resume
func (cs *ClockScheduler) SetPaused(paused bool) {
	if cs.paused.Swap(paused) == paused {
		return
	}
	if cs.gameClock != nil {
		if paused {
			cs.gameClock.Pause()
		} else {
			cs.gameClock.Resume()
		}
	}
	cs.log.Info("scheduler paused", "paused", paused)
}

// Paused reports whether stepping is suspended
func (cs *ClockScheduler) Paused() bool { return cs.paused.Load() }

// Stop ends Run; safe to call more than once
func (cs *ClockScheduler) Stop() {
	cs.stopOnce.Do(func() { close(cs.stop) })
}

// Run ticks until ctx is cancelled or Stop is called
func (cs *ClockScheduler) Run(ctx context.Context) error {
	if !cs.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer cs.running.Store(false)

	cs.log.Info("scheduler started", "interval", cs.interval)
	defer cs.log.Info("scheduler stopped", "ticks", cs.Ticks())

	deadline := cs.clock.Now().Add(cs.interval)
	timer := time.NewTimer(cs.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-cs.stop:
			return nil
		case <-timer.C:
		}

		now := cs.clock.Now()
		if now.Before(deadline) {
			timer.Reset(deadline.Sub(now))
			continue
		}

		cs.processTick()
		deadline = cs.nextDeadline(deadline, now)

		wait := deadline.Sub(cs.clock.Now())
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)
	}
}

// nextDeadline advances by one interval; when far behind it falls forward instead of queueing catch-up ticks
func (cs *ClockScheduler) nextDeadline(deadline, now time.Time) time.Time {
	deadline = deadline.Add(cs.interval)
	if now.Sub(deadline) > cs.interval*parameter.MaxTicksBehind {
		cs.statSkips.Inc()
		return now.Add(cs.interval)
	}
	return deadline
}

// processTick executes one cycle: pending restart, step, publish
func (cs *ClockScheduler) processTick() {
	if cs.paused.Load() {
		return
	}

	select {
	case <-cs.restart:
		if cs.sim.Lifecycle() == game.Over {
			cs.sim.Reset()
			cs.statRestarts.Inc()
			cs.log.Info("session restarted")
		}
	default:
	}

	cs.sim.Step()

	prev := cs.frame.Load()
	f := cs.sim.Frame()
	cs.frame.Store(&f)

	if cs.onCue != nil {
		cs.cues = detectCues(cs.cues[:0], prev, &f)
		for _, c := range cs.cues {
			cs.onCue(c)
		}
	}

	cs.tickCount.Add(1)
	cs.statTicks.Inc()
	cs.statScore.Set(float64(f.Score))
	if prev == nil || prev.Lifecycle != f.Lifecycle {
		cs.statState.Store(f.Lifecycle.String())
	}

	select {
	case cs.frameReady <- struct{}{}:
	default:
	}
}
