package mqtt

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ErrNotConnected is returned by Publish when the broker link is down.
var ErrNotConnected = errors.New("mqtt: client not connected")

// MQTTConfig holds the configuration for the MQTT client.
type MQTTConfig struct {
	BrokerURL     string
	ClientID      string
	Username      string
	Password      string
	QoS           byte
	Retained      bool
	AutoReconnect bool
	KeepAlive     time.Duration
	MaxRetries    int
	RetryInterval time.Duration
}

// Client wraps a paho client and remembers its subscriptions so they can be
// restored every time the connection comes back.
type Client struct {
	client mqtt.Client
	config MQTTConfig
	logger *slog.Logger

	mu   sync.Mutex
	subs map[string]mqtt.MessageHandler
}

// NewClient creates a new MQTT client and connects, retrying up to
// config.MaxRetries times.
func NewClient(config MQTTConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = 5 * time.Second
	}
	c := &Client{
		config: config,
		logger: logger,
		subs:   make(map[string]mqtt.MessageHandler),
	}

	opts := mqtt.NewClientOptions().AddBroker(config.BrokerURL)
	opts.SetClientID(config.ClientID)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	opts.SetAutoReconnect(config.AutoReconnect)
	if config.KeepAlive > 0 {
		opts.SetKeepAlive(config.KeepAlive)
	}
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	maxRetries := max(config.MaxRetries, 1)
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		c.client = mqtt.NewClient(opts)
		token := c.client.Connect()
		if token.WaitTimeout(config.RetryInterval) && token.Error() == nil {
			logger.Info("connected to mqtt broker", "broker", config.BrokerURL)
			return c, nil
		}
		lastErr = token.Error()
		if lastErr == nil {
			lastErr = fmt.Errorf("timed out after %s", config.RetryInterval)
		}
		logger.Warn("failed to connect to mqtt broker",
			"attempt", attempt, "max", maxRetries, "error", lastErr, "retry_in", config.RetryInterval)
		if attempt < maxRetries {
			time.Sleep(config.RetryInterval)
		}
	}
	return nil, fmt.Errorf("connect to %s after %d attempts: %w", config.BrokerURL, maxRetries, lastErr)
}

// onConnect re-subscribes every registered topic; paho drops subscriptions
// with a clean session.
func (c *Client) onConnect(client mqtt.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for topic, handler := range c.subs {
		token := client.Subscribe(topic, c.config.QoS, handler)
		if token.Wait() && token.Error() != nil {
			c.logger.Error("mqtt subscribe failed", "topic", topic, "error", token.Error())
			continue
		}
		c.logger.Info("subscribed", "topic", topic)
	}
}

// Subscribe registers handler for topic and subscribes right away when the
// client is already connected.
func (c *Client) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	h := func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	}

	c.mu.Lock()
	c.subs[topic] = h
	c.mu.Unlock()

	if c.client == nil || !c.client.IsConnected() {
		return nil
	}
	token := c.client.Subscribe(topic, c.config.QoS, h)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	c.logger.Info("subscribed", "topic", topic)
	return nil
}

// Publish publishes a message to a specific MQTT topic and waits for the
// broker to acknowledge it.
func (c *Client) Publish(topic string, payload string) error {
	if c.client == nil || !c.client.IsConnected() {
		return ErrNotConnected
	}
	token := c.client.Publish(topic, c.config.QoS, c.config.Retained, payload)
	if !token.WaitTimeout(c.config.RetryInterval) {
		return fmt.Errorf("publish %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	c.logger.Info("published", "topic", topic, "payload", payload)
	return nil
}

// IsConnected reports whether the broker link is up.
func (c *Client) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

// Close disconnects the MQTT client.
func (c *Client) Close() {
	if c.client != nil && c.client.IsConnected() {
		c.logger.Info("disconnecting from mqtt broker")
		c.client.Disconnect(250) // Wait up to 250 milliseconds for inflight messages to be delivered
	}
}
