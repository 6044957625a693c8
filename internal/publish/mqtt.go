// Package publish hands finished operation records to an MQTT broker so
// field devices and back-office consumers can pick them up.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/joeblew999/plat-talhao/internal/service"
)

// Config selects the broker and topic prefix.
type Config struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
	Prefix   string // topic prefix, "talhao" when empty
}

// tokenPublisher is the part of mqtt.Client used to publish.
type tokenPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher implements operation.Recorder over MQTT, QoS 1.
type Publisher struct {
	client mqtt.Client
	pub    tokenPublisher
	prefix string
	logger *slog.Logger

	mu        sync.RWMutex
	connected bool
}

// NewPublisher configures the client. Call Connect before Record.
func NewPublisher(cfg Config, logger *slog.Logger) *Publisher {
	p := newPublisher(nil, cfg.Prefix, logger)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		p.logger.Info("mqtt connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		p.logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	p.pub = p.client
	return p
}

func newPublisher(pub tokenPublisher, prefix string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "talhao"
	}
	return &Publisher{pub: pub, prefix: prefix, logger: logger}
}

// Topic returns the topic a record for talhaoID is published on.
func (p *Publisher) Topic(talhaoID string) string {
	return p.prefix + "/operations/" + talhaoID
}

// Connect starts the connection and waits for it, honouring ctx.
func (p *Publisher) Connect(ctx context.Context) error {
	if p.client == nil {
		return errors.New("mqtt client not configured")
	}
	if p.IsConnected() {
		return nil
	}
	if err := wait(ctx, p.client.Connect()); err != nil {
		p.client.Disconnect(0)
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Record publishes rec as JSON and waits for the broker acknowledgement.
func (p *Publisher) Record(ctx context.Context, rec service.OperationRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding operation: %w", err)
	}
	topic := p.Topic(rec.TalhaoID)
	if err := wait(ctx, p.pub.Publish(topic, 1, false, payload)); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	p.logger.Debug("operation published", "topic", topic, "id", rec.ID, "size", len(payload))
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client != nil && p.client.IsConnected()
}

// Disconnect closes the broker connection. Safe to call more than once.
func (p *Publisher) Disconnect() {
	if p.client != nil {
		p.client.Disconnect(250)
	}
	p.setConnected(false)
	p.logger.Info("mqtt publisher disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

// wait blocks on tok in short slices so ctx cancellation is observed.
func wait(ctx context.Context, tok mqtt.Token) error {
	const poll = 200 * time.Millisecond
	for !tok.WaitTimeout(poll) {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return tok.Error()
}
