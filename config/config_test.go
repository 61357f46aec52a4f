package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/sensorloop/control"
	"github.com/lixenwraith/sensorloop/game"
	"github.com/lixenwraith/sensorloop/parameter"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPresets(t *testing.T) {
	dino, err := Load(LoadOptions{Variant: VariantDino})
	require.NoError(t, err)
	assert.Equal(t, "lightsensor", dino.Control.Schema)
	assert.Equal(t, control.ModeDelta, dino.ControllerConfig().Mode)
	assert.Equal(t, parameter.TickRate, dino.Engine.TickRate)

	flappy, err := Load(LoadOptions{Variant: VariantFlappy})
	require.NoError(t, err)
	assert.Equal(t, "accelerometer", flappy.Control.Schema)
	assert.Equal(t, control.ModeSigned, flappy.ControllerConfig().Mode)
	assert.Equal(t, parameter.TiltStartThreshold, flappy.ControllerConfig().StartThreshold)
	p, err := flappy.GameParams()
	require.NoError(t, err)
	assert.Equal(t, game.VariantFlappy, p.Variant)

	landscape, err := Load(LoadOptions{Variant: VariantLandscape})
	require.NoError(t, err)
	s, err := landscape.SensorSchema()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, s.Fields)
}

func TestDefaultVariantIsDino(t *testing.T) {
	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, VariantDino, cfg.Variant)
}

func TestUnknownVariant(t *testing.T) {
	_, err := Load(LoadOptions{Variant: "pong"})
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "variant", cerr.Field)
}

func TestInvalidTickRate(t *testing.T) {
	for _, rate := range []int{0, -5, parameter.MaxTickRate + 1} {
		cfg, err := Preset(VariantDino)
		require.NoError(t, err)
		cfg.Engine.TickRate = rate

		err = cfg.Validate()
		var cerr *ConfigurationError
		require.True(t, errors.As(err, &cerr), "rate %d", rate)
		assert.Equal(t, "engine.tick_rate", cerr.Field)
	}
}

func TestFileOverrides(t *testing.T) {
	path := writeFile(t, "sensorloop.toml", `
variant = "flappy"
log_level = "debug"

[engine]
tick_rate = 30

[game]
gravity = 0.5
spawn_interval = "2s"
height = 800.0

[record]
path = "capture.db"
`)
	cfg, err := Load(LoadOptions{Path: path})
	require.NoError(t, err)

	assert.Equal(t, VariantFlappy, cfg.Variant)
	assert.Equal(t, 30, cfg.Engine.TickRate)
	assert.Equal(t, "capture.db", cfg.Record.Path)

	p, err := cfg.GameParams()
	require.NoError(t, err)
	assert.Equal(t, 0.5, p.Gravity)
	assert.Equal(t, 2*time.Second, p.SpawnInterval)
	assert.Equal(t, 800.0, p.Height)
	assert.Equal(t, 400.0, p.Entity.Y)
}

func TestFileUnknownKey(t *testing.T) {
	path := writeFile(t, "bad.toml", "[engine]\ntick_rte = 30\n")
	_, err := Load(LoadOptions{Path: path})
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "engine.tick_rte", cerr.Field)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SENSORLOOP_ENGINE_TICK_RATE", "120")
	t.Setenv("SENSORLOOP_CONTROL_THRESHOLD", "7.5")
	t.Setenv("SENSORLOOP_NETWORK_LISTEN", "127.0.0.1:9000")
	t.Setenv("SENSORLOOP_GAME_SPAWN_DELAY", "500ms")

	path := writeFile(t, "file.toml", "[engine]\ntick_rate = 30\n")
	cfg, err := Load(LoadOptions{Path: path, Variant: VariantDino})
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.Engine.TickRate, "env wins over file")
	assert.Equal(t, 7.5, cfg.ControllerConfig().Threshold)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenerConfig().Address)
	p, err := cfg.GameParams()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, p.SpawnDelay)
}

func TestEnvVariant(t *testing.T) {
	t.Setenv("SENSORLOOP_VARIANT", "flappy")
	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, VariantFlappy, cfg.Variant)
	assert.Equal(t, "accelerometer", cfg.Control.Schema)
}

func TestDotEnv(t *testing.T) {
	// Registered first so the variable loaded from the file is removed afterwards
	t.Setenv("SENSORLOOP_CONTROL_WINDOW", "")
	os.Unsetenv("SENSORLOOP_CONTROL_WINDOW")

	path := writeFile(t, ".env", "SENSORLOOP_CONTROL_WINDOW=4\n")
	cfg, err := Load(LoadOptions{DotEnv: path})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Control.Window)

	_, err = Load(LoadOptions{DotEnv: filepath.Join(t.TempDir(), "missing.env")})
	assert.NoError(t, err, "missing .env is not an error")
}

func TestValidateFields(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"window", func(c *Config) { c.Control.Window = 1 }, "control.window"},
		{"mode", func(c *Config) { c.Control.Mode = "peak" }, "control.mode"},
		{"schema", func(c *Config) { c.Control.Schema = "barometer" }, "control.schema"},
		{"field", func(c *Config) { c.Control.Field = "w" }, "control.schema"},
		{"threshold", func(c *Config) { c.Control.Threshold = -1 }, "control.threshold"},
		{"threshold nan", func(c *Config) { c.Control.Threshold = math.NaN() }, "control.threshold"},
		{"threshold inf", func(c *Config) { c.Control.Threshold = math.Inf(1) }, "control.threshold"},
		{"start threshold nan", func(c *Config) { c.Control.StartThreshold = math.NaN() }, "control.start_threshold"},
		{"speed nan", func(c *Config) { c.Game.ObstacleSpeed = math.NaN() }, "game.obstacle_speed"},
		{"gravity inf", func(c *Config) { c.Game.Gravity = math.Inf(1) }, "game.gravity"},
		{"jump nan", func(c *Config) { c.Game.JumpStrength = math.NaN() }, "game.jump_strength"},
		{"width inf", func(c *Config) { c.Game.Width = math.Inf(1) }, "game.width"},
		{"height nan", func(c *Config) { c.Game.Height = math.NaN() }, "game.height"},
		{"jump", func(c *Config) { c.Game.JumpStrength = 3 }, "game"},
		{"ping", func(c *Config) { c.Network.PingInterval = time.Hour }, "network.ping_interval"},
		{"qos", func(c *Config) { c.MQTT.Broker = "localhost:1883"; c.MQTT.QoS = 3 }, "mqtt.qos"},
		{"record", func(c *Config) { c.Record.Path = "x.db"; c.Record.BatchSize = 0 }, "record"},
		{"level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Preset(VariantDino)
			require.NoError(t, err)
			tt.edit(cfg)

			var cerr *ConfigurationError
			require.True(t, errors.As(cfg.Validate(), &cerr))
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestFileNonFiniteRejected(t *testing.T) {
	path := writeFile(t, "nan.toml", "[game]\nobstacle_speed = nan\n\n[control]\nthreshold = nan\n")
	_, err := Load(LoadOptions{Path: path, Variant: VariantDino})
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	assert.Equal(t, "control.threshold", cerr.Field)

	path = writeFile(t, "inf.toml", "[game]\nobstacle_speed = inf\n")
	_, err = Load(LoadOptions{Path: path, Variant: VariantDino})
	require.True(t, errors.As(err, &cerr), "got %v", err)
	assert.Equal(t, "game.obstacle_speed", cerr.Field)
}

func TestLandscapeSkipsGameValidation(t *testing.T) {
	cfg, err := Preset(VariantLandscape)
	require.NoError(t, err)
	cfg.Game.JumpStrength = 3
	assert.NoError(t, cfg.Validate())
}

func TestSubscriberUsesEmbeddedBroker(t *testing.T) {
	cfg, err := Preset(VariantFlappy)
	require.NoError(t, err)
	cfg.MQTT.Embedded = "127.0.0.1:1883"
	assert.Equal(t, "127.0.0.1:1883", cfg.SubscriberConfig().Broker)

	cfg.MQTT.Broker = "broker:1883"
	assert.Equal(t, "broker:1883", cfg.SubscriberConfig().Broker)
}
