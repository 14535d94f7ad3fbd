// Package mqtt publishes dock status updates to a broker so yard display
// boards can follow the pool without polling the HTTP API. Publishing is
// best-effort; broker trouble never touches the allocation engine.
package mqtt

import (
	"context"
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/dockyard/core/model"
	"github.com/kilianp07/dockyard/infra/logger"
)

// Config defines the connection parameters for the status publisher.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "dockyard"
	}
	if c.Topic == "" {
		c.Topic = "dockyard/status"
	}
}

// statusMessage is the payload published per update.
type statusMessage struct {
	EventID   string         `json:"event_id"`
	Event     string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Data      model.Snapshot `json:"data"`
}

// StatusPublisher pushes snapshots to an MQTT topic.
type StatusPublisher struct {
	cli   paho.Client
	topic string
	qos   byte
	log   logger.Logger
}

var newMQTTClient = func(opts *paho.ClientOptions) paho.Client {
	return paho.NewClient(opts)
}

// NewStatusPublisher connects to the broker.
func NewStatusPublisher(cfg Config) (*StatusPublisher, error) {
	cfg.SetDefaults()
	log := logger.New("mqtt-status")
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected") }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }
	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &StatusPublisher{cli: cli, topic: cfg.Topic, qos: cfg.QoS, log: log}, nil
}

// Run forwards snapshots from the channel until it closes or the context is
// canceled. Publish failures are logged and dropped.
func (p *StatusPublisher) Run(ctx context.Context, updates <-chan model.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := p.Publish(snap); err != nil {
				p.log.Errorf("status publish: %v", err)
			}
		}
	}
}

// Publish sends one snapshot to the status topic.
func (p *StatusPublisher) Publish(snap model.Snapshot) error {
	payload, err := marshalStatus(snap, time.Now())
	if err != nil {
		return err
	}
	token := p.cli.Publish(p.topic, p.qos, false, payload)
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker.
func (p *StatusPublisher) Close() {
	p.cli.Disconnect(250)
}

func marshalStatus(snap model.Snapshot, at time.Time) ([]byte, error) {
	return json.Marshal(statusMessage{
		EventID:   uuid.NewString(),
		Event:     "dockStatusUpdate",
		Timestamp: at,
		Data:      snap,
	})
}
