// internal/sink/mqtt.go
package sink

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MQTTConfig is the broker and topic to publish to.
type MQTTConfig struct {
	Broker   string // host:port or full URL
	Topic    string
	ClientID string // empty: insight-<uuid>
	QoS      byte
	Timeout  time.Duration
}

// MQTT publishes every message (header, frame, end marker) as one MQTT
// message, so a subscriber receives whole frames without reassembly.
type MQTT struct {
	client  mqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
}

// NewMQTT connects to the broker; auto-reconnect is left to paho.
func NewMQTT(c MQTTConfig, log zerolog.Logger) (*MQTT, error) {
	if c.Broker == "" {
		return nil, errors.New("sink mqtt: broker required")
	}
	if c.Topic == "" {
		return nil, errors.New("sink mqtt: topic required")
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.ClientID == "" {
		c.ClientID = "insight-" + uuid.NewString()
	}

	broker := c.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}

	l := log.With().Str("sink", "mqtt").Str("broker", broker).Str("client_id", c.ClientID).Logger()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(c.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		l.Info().Msg("mqtt connection established")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		l.Warn().Err(err).Msg("mqtt connection lost, will auto-reconnect")
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(c.Timeout) {
		return nil, fmt.Errorf("sink mqtt: connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("sink mqtt: connect: %w", err)
	}

	return &MQTT{client: client, topic: c.Topic, qos: c.QoS, timeout: c.Timeout}, nil
}

func (m *MQTT) Write(p []byte) (int, error) {
	if !m.client.IsConnectionOpen() {
		return 0, errors.New("sink mqtt: not connected")
	}
	payload := append([]byte(nil), p...)
	token := m.client.Publish(m.topic, m.qos, false, payload)
	if !token.WaitTimeout(m.timeout) {
		return 0, errors.New("sink mqtt: publish timeout")
	}
	if err := token.Error(); err != nil {
		return 0, fmt.Errorf("sink mqtt: publish: %w", err)
	}
	return len(p), nil
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
