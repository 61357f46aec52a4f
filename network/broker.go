package network

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
)

// Broker is an in-process MQTT broker for setups without an external one
// Sensor clients are not authenticated
type Broker struct {
	addr    string
	log     *slog.Logger
	server  *mochi.Server
	running atomic.Bool
}

// NewBroker creates a broker that will listen on addr
func NewBroker(addr string, opts ...Option) *Broker {
	o := buildOptions(opts)
	return &Broker{addr: addr, log: o.log}
}

// Name implements service.Service
func (b *Broker) Name() string { return "mqtt-broker" }

// Addr returns the listen address
func (b *Broker) Addr() string { return b.addr }

// Start adds the TCP listener and serves
func (b *Broker) Start(context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return nil
	}
	server := mochi.New(&mochi.Options{
		Logger: b.log.With("component", "mqtt-broker"),
	})
	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		b.running.Store(false)
		return fmt.Errorf("broker auth hook: %w", err)
	}
	if err := server.AddListener(listeners.NewTCP(listeners.Config{
		ID:      "tcp",
		Type:    "tcp",
		Address: b.addr,
	})); err != nil {
		b.running.Store(false)
		return fmt.Errorf("broker listener %s: %w", b.addr, err)
	}
	if err := server.Serve(); err != nil {
		b.running.Store(false)
		return fmt.Errorf("broker serve: %w", err)
	}
	b.server = server
	b.log.Info("mqtt broker listening", "addr", b.addr)
	return nil
}

// Stop closes the broker and its listeners
func (b *Broker) Stop() error {
	if !b.running.CompareAndSwap(true, false) {
		return nil
	}
	return b.server.Close()
}
