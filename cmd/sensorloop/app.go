package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lixenwraith/sensorloop/audio"
	"github.com/lixenwraith/sensorloop/config"
	"github.com/lixenwraith/sensorloop/control"
	"github.com/lixenwraith/sensorloop/core"
	"github.com/lixenwraith/sensorloop/engine"
	"github.com/lixenwraith/sensorloop/game"
	"github.com/lixenwraith/sensorloop/ingest"
	"github.com/lixenwraith/sensorloop/network"
	"github.com/lixenwraith/sensorloop/record"
	"github.com/lixenwraith/sensorloop/render"
	"github.com/lixenwraith/sensorloop/sensor"
	"github.com/lixenwraith/sensorloop/service"
	"github.com/lixenwraith/sensorloop/status"
	"github.com/lixenwraith/sensorloop/synth"
)

// statusNames are the metrics shown on the terminal status line, in order
var statusNames = []string{
	"ingest.source",
	"ingest.accepted",
	"ingest.dropped",
	"control.delta",
	"engine.ticks",
	"engine.skips",
	"record.written",
}

type app struct {
	cfg      *config.Config
	log      *slog.Logger
	headless bool

	reg    *status.Registry
	ctrl   *control.Controller
	hub    *ingest.Hub
	player *audio.Player
}

// run wires the pipeline and blocks until ctx ends or the user quits
func (a *app) run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	a.reg = status.NewRegistry()
	a.ctrl = control.New(a.cfg.ControllerConfig())

	schema, err := a.cfg.SensorSchema()
	if err != nil {
		return err
	}
	dec, err := sensor.NewDecoder(schema)
	if err != nil {
		return fmt.Errorf("decoder: %w", err)
	}

	hubOpts := []ingest.Option{ingest.WithLogger(a.log), ingest.WithRegistry(a.reg)}
	if a.cfg.Record.Path != "" {
		store, err := record.Open(a.cfg.Record.Path, a.cfg.RecordOptions(a.log, a.reg))
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				a.log.Warn("recorder close failed", "err", err)
			}
		}()
		hubOpts = append(hubOpts, ingest.WithTap(store))
	}
	a.hub = ingest.NewHub(dec, a.ctrl, hubOpts...)

	// Audio is optional; a missing device only costs the sound
	a.player = audio.NewPlayer(a.log)
	a.player.SetMuted(a.cfg.Audio.Muted)
	if err := a.player.Start(ctx); err != nil {
		a.log.Warn("audio unavailable, continuing without sound", "err", err)
	} else {
		defer a.player.Stop()
	}

	group := service.NewGroup(a.log)
	group.Add(a.services()...)
	if err := group.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := group.Stop(); err != nil {
			a.log.Warn("shutdown", "err", err)
		}
	}()

	if a.cfg.Variant == config.VariantLandscape {
		return a.runLandscape(ctx)
	}
	return a.runGame(ctx, cancel)
}

func (a *app) services() []service.Service {
	netOpts := []network.Option{network.WithLogger(a.log), network.WithRegistry(a.reg)}

	var svcs []service.Service
	if a.cfg.MQTT.Embedded != "" {
		svcs = append(svcs, network.NewBroker(a.cfg.MQTT.Embedded, netOpts...))
	}
	if a.cfg.Network.Listen != "" {
		svcs = append(svcs, network.NewWebSocketServer(a.cfg.ListenerConfig(), a.hub, netOpts...))
	}
	if sub := a.cfg.SubscriberConfig(); sub.Broker != "" {
		svcs = append(svcs, network.NewMQTTSubscriber(sub, a.hub, netOpts...))
	}
	return svcs
}

func (a *app) runGame(ctx context.Context, cancel context.CancelFunc) error {
	params, err := a.cfg.GameParams()
	if err != nil {
		return err
	}
	gameClock := engine.NewPausableClock(nil)
	sim := game.NewSimulation(params, a.ctrl, gameClock,
		game.WithHistory(a.ctrl),
		game.WithLogger(a.log),
	)
	sched, err := engine.NewClockScheduler(sim, a.cfg.Engine.TickRate,
		engine.WithLogger(a.log),
		engine.WithRegistry(a.reg),
		engine.WithCueHandler(a.player.Cue),
		engine.WithPausableClock(gameClock),
	)
	if err != nil {
		return err
	}

	var schedErr error
	done := make(chan struct{})
	core.Go(func() {
		schedErr = sched.Run(ctx)
		close(done)
	})

	var loopErr error
	if a.headless {
		loopErr = a.reportFrames(ctx, sched, done)
	} else {
		loopErr = a.drawFrames(ctx, sched, done)
	}

	// The loop may have returned on user quit; wind the scheduler down before reporting
	cancel()
	sched.Stop()
	<-done
	if schedErr != nil {
		return schedErr
	}
	return loopErr
}

func (a *app) drawFrames(ctx context.Context, sched *engine.ClockScheduler, done <-chan struct{}) error {
	r, err := render.NewTerminal()
	if err != nil {
		return err
	}
	core.SetCrashCleanup(r.Close)
	defer func() {
		core.SetCrashCleanup(nil)
		r.Close()
	}()

	events := render.PollEvents(ctx, r.Screen())
	muted := a.cfg.Audio.Muted
	draw := func() {
		line := a.reg.Format(statusNames...)
		if sched.Paused() {
			line = "PAUSED " + line
		}
		r.DrawFrame(sched.Frame(), line)
	}
	draw()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			return nil
		case <-sched.FrameReady():
			draw()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch render.Translate(ev) {
			case render.ActionRestart:
				sched.Restart()
			case render.ActionQuit:
				return nil
			case render.ActionMute:
				muted = !muted
				a.player.SetMuted(muted)
			case render.ActionPause:
				sched.SetPaused(!sched.Paused())
				draw()
			case render.ActionRedraw:
				r.Screen().Sync()
				draw()
			}
		}
	}
}

func (a *app) reportFrames(ctx context.Context, sched *engine.ClockScheduler, done <-chan struct{}) error {
	ticker := time.NewTicker(a.cfg.Engine.HeadlessReport)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			return nil
		case <-ticker.C:
			f := sched.Frame()
			a.log.Info("frame",
				"variant", f.Variant,
				"state", f.Lifecycle,
				"tick", f.Tick,
				"score", f.Score,
				"jumps", f.Jumps,
				"obstacles", len(f.Obstacles),
				"status", a.reg.Format(statusNames...),
			)
		}
	}
}

func (a *app) runLandscape(ctx context.Context) error {
	params := func() synth.Params { return synth.FromSnapshot(a.ctrl.Snapshot()) }
	a.player.Play(audio.NewLandscape(params, a.player.SampleRate(), a.cfg.Audio.Glide))

	if a.headless {
		ticker := time.NewTicker(a.cfg.Engine.HeadlessReport)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				p := params()
				a.log.Info("landscape", "frequencies", p.Frequencies, "amplitude", p.Amplitude)
			}
		}
	}

	r, err := render.NewTerminal()
	if err != nil {
		return err
	}
	core.SetCrashCleanup(r.Close)
	defer func() {
		core.SetCrashCleanup(nil)
		r.Close()
	}()

	events := render.PollEvents(ctx, r.Screen())
	ticker := time.NewTicker(time.Second / time.Duration(a.cfg.Engine.TickRate))
	defer ticker.Stop()
	muted := a.cfg.Audio.Muted

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.DrawLandscape(params(), a.reg.Format(statusNames...))
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch render.Translate(ev) {
			case render.ActionQuit:
				return nil
			case render.ActionMute:
				muted = !muted
				a.player.SetMuted(muted)
			case render.ActionRedraw:
				r.Screen().Sync()
			}
		}
	}
}
