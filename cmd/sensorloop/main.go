package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lixenwraith/sensorloop/config"
	"github.com/lixenwraith/sensorloop/core"
)

type flags struct {
	configPath string
	variant    string
	listen     string
	mqtt       string
	embedded   string
	record     string
	tickRate   int
	headless   bool
	debug      bool
	mute       bool

	// set records which flags appeared on the command line
	set map[string]bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*flags, error) {
	f := &flags{set: make(map[string]bool)}
	fs.StringVar(&f.configPath, "config", "", "TOML configuration file")
	fs.StringVar(&f.variant, "variant", "", "dino, flappy or landscape")
	fs.StringVar(&f.listen, "listen", "", "WebSocket listen address, empty disables")
	fs.StringVar(&f.mqtt, "mqtt", "", "MQTT broker host:port to subscribe through")
	fs.StringVar(&f.embedded, "embedded-broker", "", "start an in-process MQTT broker on this address")
	fs.StringVar(&f.record, "record", "", "capture raw readings into this sqlite file")
	fs.IntVar(&f.tickRate, "tick-rate", 0, "simulation ticks per second")
	fs.BoolVar(&f.headless, "headless", false, "log frames instead of drawing the terminal UI")
	fs.BoolVar(&f.debug, "debug", false, "write logs/sensorloop.log in terminal mode")
	fs.BoolVar(&f.mute, "mute", false, "start with audio muted")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// apply overlays command line flags, the last configuration layer
func (f *flags) apply(cfg *config.Config) error {
	if f.set["listen"] {
		cfg.Network.Listen = f.listen
	}
	if f.set["mqtt"] {
		cfg.MQTT.Broker = f.mqtt
	}
	if f.set["embedded-broker"] {
		cfg.MQTT.Embedded = f.embedded
	}
	if f.set["record"] {
		cfg.Record.Path = f.record
	}
	if f.set["tick-rate"] {
		cfg.Engine.TickRate = f.tickRate
	}
	if f.mute {
		cfg.Audio.Muted = true
	}
	return cfg.Validate()
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()

	f, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(config.LoadOptions{
		Path:    f.configPath,
		Variant: f.variant,
		DotEnv:  ".env",
	})
	if err == nil {
		err = f.apply(cfg)
	}
	if err != nil {
		var cerr *config.ConfigurationError
		if errors.As(err, &cerr) {
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", cerr)
		} else {
			fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		}
		os.Exit(2)
	}

	level, _ := cfg.Level()
	log, logFile := setupLogging(f.headless, f.debug, level)
	if logFile != nil {
		defer logFile.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &app{cfg: cfg, log: log, headless: f.headless}
	if err := app.run(ctx); err != nil {
		log.Error("exit", "err", err)
		fmt.Fprintf(os.Stderr, "sensorloop: %v\n", err)
		stop()
		if logFile != nil {
			logFile.Close()
		}
		os.Exit(1)
	}
}
