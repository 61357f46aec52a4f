package network

import (
	"time"

	"github.com/lixenwraith/sensorloop/parameter"
)

// Config holds WebSocket listener settings
type Config struct {
	// Address to bind
	Address string

	// Limits and timing
	ReadLimit    int64
	ReadTimeout  time.Duration
	PingInterval time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the listener defaults
func DefaultConfig() Config {
	return Config{
		Address:      parameter.ListenAddress,
		ReadLimit:    parameter.ReadLimit,
		ReadTimeout:  parameter.ReadTimeout,
		PingInterval: parameter.PingInterval,
		WriteTimeout: parameter.WriteTimeout,
	}
}

// MQTTConfig holds subscriber settings
type MQTTConfig struct {
	// Broker is a host:port TCP address
	Broker    string
	Topic     string
	ClientID  string
	QoS       byte
	KeepAlive uint16 // seconds
}

// DefaultMQTTConfig returns subscriber defaults with no broker set
func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{
		Topic:     parameter.MQTTTopic,
		ClientID:  parameter.MQTTClientID,
		KeepAlive: parameter.MQTTKeepAlive,
	}
}
