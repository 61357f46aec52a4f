package network

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/sensorloop/sensor"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func startBroker(t *testing.T) *Broker {
	t.Helper()
	b := NewBroker(freeAddr(t))
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { _ = b.Stop() })
	return b
}

func newPublisher(ctx context.Context, t *testing.T, addr string) *paho.Client {
	t.Helper()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	require.NoError(t, err)

	c := paho.NewClient(paho.ClientConfig{ClientID: "phone", Conn: conn})
	_, err = c.Connect(ctx, &paho.Connect{ClientID: "phone", KeepAlive: 5, CleanStart: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Disconnect(&paho.Disconnect{ReasonCode: 0}) })
	return c
}

func TestMQTTReadingReachesController(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	broker := startBroker(t)
	hub, ctrl, reg := newTestHub(t, sensor.LightSchema)

	cfg := DefaultMQTTConfig()
	cfg.Broker = broker.Addr()
	sub := NewMQTTSubscriber(cfg, hub, WithRegistry(reg))
	require.NoError(t, sub.Start(ctx))
	t.Cleanup(func() { _ = sub.Stop() })

	pub := newPublisher(ctx, t, broker.Addr())
	for _, payload := range []string{`{"illuminance": 10}`, `{broken`, `{"illuminance": 20}`} {
		_, err := pub.Publish(ctx, &paho.Publish{Topic: "sensors/light", QoS: 0, Payload: []byte(payload)})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return ctrl.Snapshot().Generation == 2 }, 3*time.Second, 10*time.Millisecond)
	assert.True(t, ctrl.Snapshot().Triggered)
	assert.EqualValues(t, 3, reg.Counter("network.mqtt_messages").Load())
	assert.EqualValues(t, 1, reg.Counter("ingest.dropped").Load())
}

func TestMQTTStopDetaches(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	broker := startBroker(t)
	hub, _, _ := newTestHub(t, sensor.LightSchema)

	cfg := DefaultMQTTConfig()
	cfg.Broker = broker.Addr()
	sub := NewMQTTSubscriber(cfg, hub)
	require.NoError(t, sub.Start(ctx))

	_, ok := hub.Active()
	require.True(t, ok)

	require.NoError(t, sub.Stop())
	select {
	case <-sub.Lost():
	case <-time.After(time.Second):
		t.Fatal("session not ended")
	}
	_, ok = hub.Active()
	assert.False(t, ok)
	assert.True(t, errors.Is(sub.Err(), ErrConnectionClosed))
}

func TestMQTTSupersededByWebSocket(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	broker := startBroker(t)
	hub, _, _ := newTestHub(t, sensor.LightSchema)

	cfg := DefaultMQTTConfig()
	cfg.Broker = broker.Addr()
	sub := NewMQTTSubscriber(cfg, hub)
	require.NoError(t, sub.Start(ctx))

	hub.Attach("ws-peer")
	select {
	case <-sub.Lost():
	case <-time.After(2 * time.Second):
		t.Fatal("superseded subscriber still running")
	}
	assert.ErrorIs(t, sub.Err(), ErrConnectionClosed)
}

func TestMQTTStartWithoutBroker(t *testing.T) {
	hub, _, _ := newTestHub(t, sensor.LightSchema)
	sub := NewMQTTSubscriber(DefaultMQTTConfig(), hub)
	assert.Error(t, sub.Start(context.Background()))

	cfg := DefaultMQTTConfig()
	cfg.Broker = freeAddr(t)
	sub = NewMQTTSubscriber(cfg, hub)
	assert.Error(t, sub.Start(context.Background()))
	_, ok := hub.Active()
	assert.False(t, ok)
}
