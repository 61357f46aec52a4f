package parameter

import "time"

// Sensor transport defaults
const (
	ListenAddress = ":8989"

	// ReadLimit caps a single inbound message; sensor payloads are a few dozen bytes
	ReadLimit = 1 << 20

	ReadTimeout  = 60 * time.Second
	PingInterval = 25 * time.Second
	WriteTimeout = 10 * time.Second

	MQTTTopic     = "sensors/#"
	MQTTKeepAlive = 30 // seconds
	MQTTClientID  = "sensorloop"
)

// Recorder defaults
const (
	RecordBuffer        = 1024
	RecordBatchSize     = 64
	RecordFlushInterval = 250 * time.Millisecond
)
