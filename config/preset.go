package config

import (
	"github.com/lixenwraith/sensorloop/parameter"
	"github.com/lixenwraith/sensorloop/sensor"
)

// Preset returns the defaults of a variant
func Preset(variant string) (*Config, error) {
	cfg := base()
	cfg.Variant = variant

	switch variant {
	case VariantDino:
		cfg.Control = ControlConfig{
			Schema:    sensor.LightSchema.Name,
			Window:    parameter.HistoryWindow,
			Threshold: parameter.LightThreshold,
			Mode:      "delta",
		}
	case VariantFlappy:
		// Start on a tilt either way, jump only on a positive z tilt
		cfg.Control = ControlConfig{
			Schema:         sensor.AccelerometerSchema.Name,
			Window:         parameter.HistoryWindow,
			Threshold:      parameter.TiltThreshold,
			StartThreshold: parameter.TiltStartThreshold,
			Mode:           "signed",
		}
	case VariantLandscape:
		cfg.Control = ControlConfig{
			Schema:    sensor.AccelerometerSchema.Name,
			Window:    parameter.HistoryWindow,
			Threshold: parameter.TiltThreshold,
			Mode:      "level",
		}
	default:
		return nil, invalid("variant", "unknown variant %q", variant)
	}
	return cfg, nil
}

func base() *Config {
	return &Config{
		LogLevel: "info",
		Engine: EngineConfig{
			TickRate:       parameter.TickRate,
			HeadlessReport: parameter.HeadlessReportInterval,
		},
		Network: NetworkConfig{
			Listen:       parameter.ListenAddress,
			ReadLimit:    parameter.ReadLimit,
			ReadTimeout:  parameter.ReadTimeout,
			PingInterval: parameter.PingInterval,
			WriteTimeout: parameter.WriteTimeout,
		},
		MQTT: MQTTConfig{
			Topic:     parameter.MQTTTopic,
			ClientID:  parameter.MQTTClientID,
			KeepAlive: parameter.MQTTKeepAlive,
		},
		Record: RecordConfig{
			Buffer:        parameter.RecordBuffer,
			BatchSize:     parameter.RecordBatchSize,
			FlushInterval: parameter.RecordFlushInterval,
		},
		Audio: AudioConfig{
			Glide: parameter.LandscapeGlide,
		},
	}
}
