package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/eclipse/paho.golang/paho"

	"github.com/lixenwraith/sensorloop/ingest"
	"github.com/lixenwraith/sensorloop/status"
)

// MQTTSubscriber pushes every publish on a topic filter into the hub as one source
type MQTTSubscriber struct {
	cfg MQTTConfig
	hub *ingest.Hub
	log *slog.Logger

	mu        sync.Mutex
	client    *paho.Client
	connected bool
	in        *ingest.Ingestor

	// lost is closed once the session ends for any reason
	lost     chan struct{}
	lostOnce sync.Once
	cause    error

	statMessages *status.Counter
}

// NewMQTTSubscriber creates a subscriber; Start connects
func NewMQTTSubscriber(cfg MQTTConfig, hub *ingest.Hub, opts ...Option) *MQTTSubscriber {
	o := buildOptions(opts)
	return &MQTTSubscriber{
		cfg:          cfg,
		hub:          hub,
		log:          o.log,
		lost:         make(chan struct{}),
		statMessages: o.reg.Counter("network.mqtt_messages"),
	}
}

// Name implements service.Service
func (m *MQTTSubscriber) Name() string { return "mqtt" }

// Lost is closed when the broker session ends
func (m *MQTTSubscriber) Lost() <-chan struct{} { return m.lost }

// Start dials the broker, connects and subscribes
func (m *MQTTSubscriber) Start(ctx context.Context) error {
	if m.cfg.Broker == "" {
		return errors.New("mqtt broker address is empty")
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", m.cfg.Broker)
	if err != nil {
		return fmt.Errorf("dial mqtt broker %s: %w", m.cfg.Broker, err)
	}

	in := m.hub.Attach("mqtt://" + m.cfg.Broker + "/" + m.cfg.Topic)

	client := paho.NewClient(paho.ClientConfig{
		ClientID: m.cfg.ClientID,
		Conn:     conn,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			func(pr paho.PublishReceived) (bool, error) {
				m.statMessages.Inc()
				if err := in.Push(pr.Packet.Payload); errors.Is(err, ingest.ErrSuperseded) {
					m.end(fmt.Errorf("%w: %w", ErrConnectionClosed, err))
				}
				return true, nil
			},
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			m.end(fmt.Errorf("%w: server disconnect reason %d", ErrConnectionClosed, d.ReasonCode))
		},
		OnClientError: func(err error) {
			m.end(fmt.Errorf("%w: %w", ErrConnectionClosed, err))
		},
	})

	m.mu.Lock()
	m.client, m.in = client, in
	m.mu.Unlock()

	if _, err := client.Connect(ctx, &paho.Connect{
		ClientID:   m.cfg.ClientID,
		KeepAlive:  m.cfg.KeepAlive,
		CleanStart: true,
	}); err != nil {
		_ = conn.Close()
		m.end(fmt.Errorf("%w: %w", ErrConnectionClosed, err))
		return fmt.Errorf("mqtt connect: %w", err)
	}
	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()

	if _, err := client.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: m.cfg.Topic, QoS: m.cfg.QoS}},
	}); err != nil {
		m.end(fmt.Errorf("%w: %w", ErrConnectionClosed, err))
		return fmt.Errorf("mqtt subscribe %s: %w", m.cfg.Topic, err)
	}

	go func() {
		select {
		case <-in.Done():
			m.end(fmt.Errorf("%w: %w", ErrConnectionClosed, ingest.ErrSuperseded))
		case <-m.lost:
		}
	}()

	m.log.Info("mqtt subscribed", "broker", m.cfg.Broker, "topic", m.cfg.Topic)
	return nil
}

// Stop disconnects from the broker
func (m *MQTTSubscriber) Stop() error {
	m.end(ErrConnectionClosed)
	return nil
}

// end tears the session down once and detaches the source with cause
func (m *MQTTSubscriber) end(cause error) {
	m.lostOnce.Do(func() {
		m.mu.Lock()
		client, connected, in := m.client, m.connected, m.in
		m.cause = cause
		m.mu.Unlock()

		if connected {
			// Disconnect blocks on the connection; callbacks may run on paho's goroutines
			go func() { _ = client.Disconnect(&paho.Disconnect{ReasonCode: 0}) }()
		}
		if in != nil {
			m.hub.Detach(in, cause)
		}
		close(m.lost)
	})
}

// Err returns why the session ended, nil while it is active
func (m *MQTTSubscriber) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cause
}
