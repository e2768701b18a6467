package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eleven-am/careflow/internal/monitor"
)

const (
	publishQoS     byte = 1
	connectTimeout      = 5 * time.Second
	publishTimeout      = 2 * time.Second
	defaultPrefix       = "careflow/monitor"
)

var ErrNotConnected = errors.New("mqtt not connected")

type mqttClient interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// Publisher forwards session statuses to an MQTT broker. Without a broker
// configured it accepts and drops everything.
type Publisher struct {
	client mqttClient
	prefix string
	logger *slog.Logger
}

func NewPublisher(cfg MQTTConfig, logger *slog.Logger) (*Publisher, error) {
	p := &Publisher{
		prefix: strings.TrimSuffix(cfg.TopicPrefix, "/"),
		logger: logger.With("component", "mqtt_publisher"),
	}
	if p.prefix == "" {
		p.prefix = defaultPrefix
	}
	if cfg.Broker == "" {
		p.logger.Info("mqtt broker not configured, status publishing disabled")
		return p, nil
	}

	broker := cfg.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetCleanSession(true)
	opts.OnConnect = func(mqtt.Client) {
		p.logger.Info("mqtt connection established", "broker", broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		p.logger.Warn("mqtt connection lost, will auto-reconnect", "error", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		p.logger.Warn("mqtt connect still pending, continuing in background", "broker", broker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	p.client = client
	return p, nil
}

func newPublisherWithClient(client mqttClient, prefix string, logger *slog.Logger) *Publisher {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Publisher{client: client, prefix: prefix, logger: logger}
}

func (p *Publisher) Enabled() bool {
	return p.client != nil
}

func (p *Publisher) Connected() bool {
	return p.client != nil && p.client.IsConnected()
}

func (p *Publisher) Topic(sessionID string) string {
	return p.prefix + "/" + sessionID + "/status"
}

func (p *Publisher) Publish(ctx context.Context, sessionID string, st monitor.Status) error {
	if p.client == nil {
		return nil
	}
	if !p.client.IsConnected() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(FromStatus(sessionID, st))
	if err != nil {
		return err
	}

	timeout := publishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	topic := p.Topic(sessionID)
	token := p.client.Publish(topic, publishQoS, false, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	p.logger.Debug("status published", "topic", topic, "kind", st.Kind)
	return nil
}

// Close disconnects, which also stops a connect still being retried.
func (p *Publisher) Close() {
	if p.client != nil {
		p.client.Disconnect(250)
	}
}
