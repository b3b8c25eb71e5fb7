package mqtt

import (
	"fmt"
	"strings"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/rfxcom2mqtt/backend/internal/infrastructure/config"
)

// Message is an inbound MQTT message delivered to listeners.
type Message struct {
	Topic   string
	Payload []byte
}

// EventListener receives inbound messages for the topic filters it declares.
// SubscribeTopic is called once when the client connects; OnMQTTMessage is
// called for every message whose topic matches one of the filters.
type EventListener interface {
	SubscribeTopic() []string
	OnMQTTMessage(msg Message)
}

// Logger is the logging interface used by the Client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Client wraps paho.mqtt.golang with rfxcom2mqtt-specific functionality.
//
// It owns the Last Will and Testament on the bridge status topic, publishes
// relative to the configured base topic, and routes inbound messages to
// registered listeners. Subscriptions are restored on reconnect by paho's
// resume logic plus the OnConnect handler.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	topics Topics

	listeners  []EventListener
	listenerMu sync.RWMutex

	connected bool
	connMu    sync.RWMutex

	logger Logger
}

// New creates a Client for the given configuration. Connect must be called
// before publishing. Listeners added before Connect are subscribed during
// the initial connection.
func New(cfg config.MQTTConfig, baseTopic string, logger Logger) *Client {
	return &Client{
		cfg:    cfg,
		topics: Topics{Base: baseTopic},
		logger: logger,
	}
}

// Topics returns the topic builder bound to the configured base prefix.
func (c *Client) Topics() Topics {
	return c.topics
}

// AddListener registers a listener. Listeners added after Connect are
// subscribed immediately.
func (c *Client) AddListener(listener EventListener) {
	c.listenerMu.Lock()
	c.listeners = append(c.listeners, listener)
	c.listenerMu.Unlock()

	if c.IsConnected() {
		c.subscribeListener(listener)
	}
}

// Connect establishes a connection to the MQTT broker.
//
// It performs the following setup:
//  1. Builds connection options from config (broker URL, auth, TLS)
//  2. Configures Last Will and Testament on <base>/bridge/status
//  3. Attempts the initial connection with timeout
//  4. Subscribes every registered listener's topic filters
//  5. Publishes "online" to the status topic (retained)
//
// Connection failure here is fatal per the error-handling policy: the caller
// is expected to shut the process down.
func (c *Client) Connect() error {
	opts, err := buildClientOptions(c.cfg, c.topics)
	if err != nil {
		return err
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.connMu.Lock()
		c.connected = false
		c.connMu.Unlock()
		c.logger.Warn("MQTT connection lost", "error", err)
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnectHandler runs asynchronously; mark connected here so
	// IsConnected is true as soon as Connect returns.
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	return nil
}

// handleConnect runs on initial connect and every reconnect.
func (c *Client) handleConnect() {
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	c.logger.Info("connected to MQTT", "server", c.cfg.Server)

	c.listenerMu.RLock()
	listeners := append([]EventListener(nil), c.listeners...)
	c.listenerMu.RUnlock()
	for _, listener := range listeners {
		c.subscribeListener(listener)
	}

	c.PublishState("online")
}

// subscribeListener subscribes a listener's topic filters and wires dispatch.
// Filters are independent: a failed filter is reported and the remaining
// filters are still subscribed.
func (c *Client) subscribeListener(listener EventListener) {
	for _, filter := range listener.SubscribeTopic() {
		if err := c.subscribe(listener, filter); err != nil {
			c.logger.Error("MQTT subscribe failed", "filter", filter, "error", err)
			continue
		}
		c.logger.Info("subscribed to topic", "filter", filter)
	}
}

// subscribe registers one topic filter for a listener.
func (c *Client) subscribe(listener EventListener, filter string) error {
	token := c.client.Subscribe(filter, 0, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.dispatch(listener, msg)
	})
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

// dispatch delivers one message to one listener, recovering handler panics.
func (c *Client) dispatch(listener EventListener, msg pahomqtt.Message) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("MQTT handler panic recovered", "topic", msg.Topic(), "panic", r)
		}
	}()

	c.logger.Debug("received MQTT message", "topic", msg.Topic(), "payload", string(msg.Payload()))
	listener.OnMQTTMessage(Message{Topic: msg.Topic(), Payload: msg.Payload()})
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client != nil && c.client.IsConnected()
}

// Disconnect publishes the offline status and closes the connection.
func (c *Client) Disconnect() {
	if c.client == nil {
		return
	}
	if c.IsConnected() {
		c.PublishState("offline")
	}
	c.logger.Info("disconnecting from MQTT")
	c.client.Disconnect(defaultDisconnectQuiesce)

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()
}

// MatchesFilter reports whether topic matches a subscription filter with an
// optional trailing multi-level wildcard. Single-level wildcards are not used
// in this codebase.
func MatchesFilter(topic, filter string) bool {
	if prefix, ok := strings.CutSuffix(filter, "#"); ok {
		return strings.HasPrefix(topic, prefix)
	}
	return topic == filter
}
