// Package config assembles runtime settings from variant presets, a TOML file, .env and the environment
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/lixenwraith/sensorloop/control"
	"github.com/lixenwraith/sensorloop/game"
	"github.com/lixenwraith/sensorloop/network"
	"github.com/lixenwraith/sensorloop/parameter"
	"github.com/lixenwraith/sensorloop/physics"
	"github.com/lixenwraith/sensorloop/record"
	"github.com/lixenwraith/sensorloop/sensor"
	"github.com/lixenwraith/sensorloop/status"
)

// EnvPrefix is prepended to every environment override, e.g. SENSORLOOP_ENGINE_TICK_RATE
const EnvPrefix = "SENSORLOOP_"

// Variant names accepted by the binary
const (
	VariantDino      = "dino"
	VariantFlappy    = "flappy"
	VariantLandscape = "landscape"
)

// Config is the complete runtime configuration
type Config struct {
	Variant  string `toml:"variant" env:"VARIANT"`
	LogLevel string `toml:"log_level" env:"LOG_LEVEL"`

	Engine  EngineConfig  `toml:"engine" envPrefix:"ENGINE_"`
	Control ControlConfig `toml:"control" envPrefix:"CONTROL_"`
	Game    GameConfig    `toml:"game" envPrefix:"GAME_"`
	Network NetworkConfig `toml:"network" envPrefix:"NETWORK_"`
	MQTT    MQTTConfig    `toml:"mqtt" envPrefix:"MQTT_"`
	Record  RecordConfig  `toml:"record" envPrefix:"RECORD_"`
	Audio   AudioConfig   `toml:"audio" envPrefix:"AUDIO_"`
}

type EngineConfig struct {
	TickRate       int           `toml:"tick_rate" env:"TICK_RATE"`
	HeadlessReport time.Duration `toml:"headless_report" env:"HEADLESS_REPORT"`
}

type ControlConfig struct {
	// Schema is a built-in sensor stream name; Field optionally overrides its control field
	Schema    string  `toml:"schema" env:"SCHEMA"`
	Field     string  `toml:"field" env:"FIELD"`
	Window    int     `toml:"window" env:"WINDOW"`
	Threshold float64 `toml:"threshold" env:"THRESHOLD"`
	// StartThreshold arms a session start; zero uses Threshold
	StartThreshold float64 `toml:"start_threshold" env:"START_THRESHOLD"`
	Mode           string  `toml:"mode" env:"MODE"`
}

// GameConfig overrides the variant tuning; zero values keep the variant default
type GameConfig struct {
	Width         float64       `toml:"width" env:"WIDTH"`
	Height        float64       `toml:"height" env:"HEIGHT"`
	Gravity       float64       `toml:"gravity" env:"GRAVITY"`
	JumpStrength  float64       `toml:"jump_strength" env:"JUMP_STRENGTH"`
	ObstacleSpeed float64       `toml:"obstacle_speed" env:"OBSTACLE_SPEED"`
	SpawnInterval time.Duration `toml:"spawn_interval" env:"SPAWN_INTERVAL"`
	SpawnDelay    time.Duration `toml:"spawn_delay" env:"SPAWN_DELAY"`
	Seed          int64         `toml:"seed" env:"SEED"`
}

type NetworkConfig struct {
	// Listen is the WebSocket address; empty disables the server
	Listen       string        `toml:"listen" env:"LISTEN"`
	ReadLimit    int64         `toml:"read_limit" env:"READ_LIMIT"`
	ReadTimeout  time.Duration `toml:"read_timeout" env:"READ_TIMEOUT"`
	PingInterval time.Duration `toml:"ping_interval" env:"PING_INTERVAL"`
	WriteTimeout time.Duration `toml:"write_timeout" env:"WRITE_TIMEOUT"`
}

type MQTTConfig struct {
	// Broker is the host:port to subscribe through; empty disables the subscriber
	Broker    string `toml:"broker" env:"BROKER"`
	Topic     string `toml:"topic" env:"TOPIC"`
	ClientID  string `toml:"client_id" env:"CLIENT_ID"`
	QoS       uint8  `toml:"qos" env:"QOS"`
	KeepAlive uint16 `toml:"keep_alive" env:"KEEP_ALIVE"`
	// Embedded starts an in-process broker on this address
	Embedded string `toml:"embedded" env:"EMBEDDED"`
}

type RecordConfig struct {
	// Path of the sqlite capture file; empty disables recording
	Path          string        `toml:"path" env:"PATH"`
	Buffer        int           `toml:"buffer" env:"BUFFER"`
	BatchSize     int           `toml:"batch_size" env:"BATCH_SIZE"`
	FlushInterval time.Duration `toml:"flush_interval" env:"FLUSH_INTERVAL"`
}

type AudioConfig struct {
	Muted bool          `toml:"muted" env:"MUTED"`
	Glide time.Duration `toml:"glide" env:"GLIDE"`
}

// LoadOptions locate the configuration sources
type LoadOptions struct {
	// Path is an optional TOML file
	Path string
	// Variant selects the preset; empty falls back to the environment, then the file, then dino
	Variant string
	// DotEnv is loaded into the process environment when present; existing variables win
	DotEnv string
}

// Load builds a validated Config: preset, then file, then environment
func Load(opts LoadOptions) (*Config, error) {
	if opts.DotEnv != "" {
		if err := godotenv.Load(opts.DotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", opts.DotEnv, err)
		}
	}

	variant, err := resolveVariant(opts)
	if err != nil {
		return nil, err
	}
	cfg, err := Preset(variant)
	if err != nil {
		return nil, err
	}

	if opts.Path != "" {
		md, err := toml.DecodeFile(opts.Path, cfg)
		if err != nil {
			return nil, &ConfigurationError{Field: "file", Reason: opts.Path, Err: err}
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, invalid(undecoded[0].String(), "unknown key in %s", opts.Path)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, &ConfigurationError{Field: "env", Reason: "parse overrides", Err: err}
	}

	// The preset variant wins over a conflicting file or env value
	cfg.Variant = variant

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveVariant(opts LoadOptions) (string, error) {
	if opts.Variant != "" {
		return opts.Variant, nil
	}
	if v := os.Getenv(EnvPrefix + "VARIANT"); v != "" {
		return v, nil
	}
	if opts.Path != "" {
		var head struct {
			Variant string `toml:"variant"`
		}
		if _, err := toml.DecodeFile(opts.Path, &head); err != nil {
			return "", &ConfigurationError{Field: "file", Reason: opts.Path, Err: err}
		}
		if head.Variant != "" {
			return head.Variant, nil
		}
	}
	return VariantDino, nil
}

// Validate checks every tunable and reports the first offending field
func (c *Config) Validate() error {
	switch c.Variant {
	case VariantDino, VariantFlappy, VariantLandscape:
	default:
		return invalid("variant", "unknown variant %q", c.Variant)
	}
	if _, err := c.Level(); err != nil {
		return invalid("log_level", "%v", err)
	}

	if c.Engine.TickRate <= 0 || c.Engine.TickRate > parameter.MaxTickRate {
		return invalid("engine.tick_rate", "must be in 1..%d, got %d", parameter.MaxTickRate, c.Engine.TickRate)
	}
	if c.Engine.HeadlessReport <= 0 {
		return invalid("engine.headless_report", "must be positive")
	}

	if _, err := c.SensorSchema(); err != nil {
		return invalid("control.schema", "%v", err)
	}
	mode, err := control.ParseMode(c.Control.Mode)
	if err != nil {
		return invalid("control.mode", "%v", err)
	}
	minWindow := 2
	if mode != control.ModeDelta {
		minWindow = 1
	}
	if c.Control.Window < minWindow {
		return invalid("control.window", "%s mode needs at least %d readings, got %d", mode, minWindow, c.Control.Window)
	}
	if !physics.Finite(c.Control.Threshold) || c.Control.Threshold < 0 {
		return invalid("control.threshold", "must be a finite non-negative number, got %v", c.Control.Threshold)
	}
	if !physics.Finite(c.Control.StartThreshold) || c.Control.StartThreshold < 0 {
		return invalid("control.start_threshold", "must be a finite non-negative number, got %v", c.Control.StartThreshold)
	}

	if c.Variant != VariantLandscape {
		if err := c.Game.validateFinite(); err != nil {
			return err
		}
		p, err := c.GameParams()
		if err != nil {
			return invalid("game", "%v", err)
		}
		if err := p.Validate(); err != nil {
			return invalid("game", "%v", err)
		}
	}

	if c.Network.Listen != "" {
		if c.Network.ReadLimit <= 0 {
			return invalid("network.read_limit", "must be positive")
		}
		if c.Network.ReadTimeout <= 0 || c.Network.PingInterval <= 0 || c.Network.PingInterval >= c.Network.ReadTimeout {
			return invalid("network.ping_interval", "must be positive and shorter than read_timeout")
		}
		if c.Network.WriteTimeout <= 0 {
			return invalid("network.write_timeout", "must be positive")
		}
	}

	if c.MQTT.Broker != "" || c.MQTT.Embedded != "" {
		if c.MQTT.Topic == "" {
			return invalid("mqtt.topic", "must not be empty")
		}
		if c.MQTT.QoS > 2 {
			return invalid("mqtt.qos", "must be 0, 1 or 2")
		}
	}

	if c.Record.Path != "" {
		if c.Record.Buffer <= 0 || c.Record.BatchSize <= 0 || c.Record.FlushInterval <= 0 {
			return invalid("record", "buffer, batch_size and flush_interval must be positive")
		}
	}

	if c.Audio.Glide < 0 {
		return invalid("audio.glide", "must not be negative")
	}
	return nil
}

// validateFinite rejects NaN and Inf overrides before they reach the simulation
func (g GameConfig) validateFinite() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"game.width", g.Width},
		{"game.height", g.Height},
		{"game.gravity", g.Gravity},
		{"game.jump_strength", g.JumpStrength},
		{"game.obstacle_speed", g.ObstacleSpeed},
	} {
		if !physics.Finite(f.v) {
			return invalid(f.name, "must be finite, got %v", f.v)
		}
	}
	return nil
}

// Level parses LogLevel; empty means info
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel)))
	return l, err
}

// SensorSchema resolves the configured stream
func (c *Config) SensorSchema() (sensor.Schema, error) {
	s, ok := sensor.SchemaByName(c.Control.Schema)
	if !ok {
		return sensor.Schema{}, fmt.Errorf("unknown schema %q, want one of %v", c.Control.Schema, sensor.Names())
	}
	if c.Control.Field != "" {
		s = s.WithControl(c.Control.Field)
	}
	return s, s.Validate()
}

// ControllerConfig converts the control section; call after Validate
func (c *Config) ControllerConfig() control.Config {
	mode, _ := control.ParseMode(c.Control.Mode)
	return control.Config{
		Window:         c.Control.Window,
		Threshold:      c.Control.Threshold,
		StartThreshold: c.Control.StartThreshold,
		Mode:           mode,
	}
}

// GameParams resolves the variant tuning with overrides applied
func (c *Config) GameParams() (game.Params, error) {
	v, err := game.ParseVariant(c.Variant)
	if err != nil {
		return game.Params{}, err
	}
	p := game.ParamsFor(v)
	g := c.Game

	if g.Width > 0 {
		p.Width = g.Width
	}
	if g.Height > 0 {
		p.Height = g.Height
		// Entity placement follows the world height
		switch v {
		case game.VariantDino:
			p.Ground = g.Height - parameter.DinoGroundOffset
			p.Entity.Y = p.Ground - p.Entity.H
		case game.VariantFlappy:
			p.Ground = g.Height
			p.Entity.Y = g.Height / 2
		}
	}
	if g.Gravity != 0 {
		p.Gravity = g.Gravity
	}
	if g.JumpStrength != 0 {
		p.JumpStrength = g.JumpStrength
	}
	if g.ObstacleSpeed != 0 {
		p.ObstacleSpeed = g.ObstacleSpeed
	}
	if g.SpawnInterval != 0 {
		p.SpawnInterval = g.SpawnInterval
	}
	if g.SpawnDelay != 0 {
		p.SpawnDelay = g.SpawnDelay
	}
	p.Seed = g.Seed
	return p, nil
}

// ListenerConfig converts the network section
func (c *Config) ListenerConfig() network.Config {
	return network.Config{
		Address:      c.Network.Listen,
		ReadLimit:    c.Network.ReadLimit,
		ReadTimeout:  c.Network.ReadTimeout,
		PingInterval: c.Network.PingInterval,
		WriteTimeout: c.Network.WriteTimeout,
	}
}

// SubscriberConfig converts the mqtt section; an embedded broker is used when no external one is set
func (c *Config) SubscriberConfig() network.MQTTConfig {
	broker := c.MQTT.Broker
	if broker == "" {
		broker = c.MQTT.Embedded
	}
	return network.MQTTConfig{
		Broker:    broker,
		Topic:     c.MQTT.Topic,
		ClientID:  c.MQTT.ClientID,
		QoS:       c.MQTT.QoS,
		KeepAlive: c.MQTT.KeepAlive,
	}
}

// RecordOptions converts the record section
func (c *Config) RecordOptions(log *slog.Logger, reg *status.Registry) record.Options {
	return record.Options{
		Buffer:        c.Record.Buffer,
		BatchSize:     c.Record.BatchSize,
		FlushInterval: c.Record.FlushInterval,
		Logger:        log,
		Registry:      reg,
	}
}
