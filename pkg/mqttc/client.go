// Package mqttc wraps the paho MQTT client: connection lifecycle, full
// re-subscription on every connect, single-attempt publishing, and the
// retained availability topic.
package mqttc

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/grvsrs/mqttgram/pkg/bridge"
)

// MessageHandler receives one inbound broker message. It runs on the
// client's dispatch goroutine and must not block forever.
type MessageHandler func(topic string, payload []byte)

const (
	keepAlive      = 60 * time.Second
	publishTimeout = 10 * time.Second
	// At-most-once everywhere: the bridge makes no delivery promises
	// beyond best effort.
	qosAtMostOnce byte = 0

	availabilityOnline  = "online"
	availabilityOffline = "offline"
)

// Options configures the broker connection.
type Options struct {
	URL          string // e.g. "tcp://localhost:1883"
	ClientID     string
	Username     string
	Password     string
	OutputTopics []string // filters re-subscribed on every connect
	StatusTopic  string   // availability topic; "" disables it
}

// Client owns the broker connection. paho serializes its own I/O, so
// Publish is safe from any goroutine, including the chat relay's.
type Client struct {
	opts    Options
	client  mqtt.Client
	handler MessageHandler
	log     zerolog.Logger

	mu     sync.Mutex
	status bridge.ConnStatus
}

var _ bridge.Publisher = (*Client)(nil)

// New builds the client. Reconnect policy is delegated to paho: indefinite
// retry with its own backoff, both for the first connect and after drops.
func New(opts Options, handler MessageHandler, log zerolog.Logger) *Client {
	c := &Client{
		opts:    opts,
		handler: handler,
		log:     log.With().Str("component", "mqtt").Logger(),
		status:  bridge.StatusDisconnected,
	}

	co := mqtt.NewClientOptions().
		AddBroker(opts.URL).
		SetClientID(opts.ClientID).
		SetKeepAlive(keepAlive).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost).
		SetReconnectingHandler(c.onReconnecting)

	if opts.Username != "" {
		co.SetUsername(opts.Username)
		co.SetPassword(opts.Password)
		c.log.Info().Msg("broker authentication enabled")
	}
	if opts.StatusTopic != "" {
		co.SetWill(opts.StatusTopic, availabilityOffline, qosAtMostOnce, true)
	}

	c.client = mqtt.NewClient(co)
	return c
}

// Connect dials the broker and blocks until the connection is established.
// With connect-retry enabled an error here means the options are invalid,
// not that the broker happened to be down.
func (c *Client) Connect() error {
	c.setStatus(bridge.StatusConnecting)
	c.log.Info().Str("url", c.opts.URL).Msg("connecting to broker")

	token := c.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		c.setStatus(bridge.StatusDisconnected)
		return fmt.Errorf("connect %s: %w", c.opts.URL, err)
	}
	return nil
}

// onConnect runs on every successful connect, including reconnects. The
// full configured filter set is re-applied so the active subscriptions
// always equal the configuration; one failed filter does not stop the rest.
func (c *Client) onConnect(client mqtt.Client) {
	c.setStatus(bridge.StatusConnected)
	c.log.Info().Msg("connected to broker")

	for _, filter := range c.opts.OutputTopics {
		token := client.Subscribe(filter, qosAtMostOnce, c.dispatch)
		token.Wait()
		if err := token.Error(); err != nil {
			c.log.Error().Err(err).Str("filter", filter).Msg("subscribe failed")
			continue
		}
		c.log.Info().Str("filter", filter).Msg("subscribed")
	}

	if c.opts.StatusTopic != "" {
		if err := c.publish(c.opts.StatusTopic, []byte(availabilityOnline), true); err != nil {
			c.log.Error().Err(err).Msg("availability publish failed")
		}
	}
}

func (c *Client) dispatch(_ mqtt.Client, msg mqtt.Message) {
	c.handler(msg.Topic(), msg.Payload())
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.setStatus(bridge.StatusDisconnected)
	c.log.Warn().Err(err).Msg("broker connection lost")
}

func (c *Client) onReconnecting(_ mqtt.Client, _ *mqtt.ClientOptions) {
	c.setStatus(bridge.StatusConnecting)
	c.log.Info().Msg("reconnecting to broker")
}

// Publish sends one payload, single attempt, and reports the transport's
// verdict. Implements bridge.Publisher.
func (c *Client) Publish(topic string, payload []byte) error {
	return c.publish(topic, payload, false)
}

func (c *Client) publish(topic string, payload []byte, retained bool) error {
	token := c.client.Publish(topic, qosAtMostOnce, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: no ack within %s", topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close marks the bridge offline on the availability topic and disconnects.
func (c *Client) Close() {
	if c.opts.StatusTopic != "" && c.client.IsConnected() {
		if err := c.publish(c.opts.StatusTopic, []byte(availabilityOffline), true); err != nil {
			c.log.Warn().Err(err).Msg("offline publish failed")
		}
	}
	c.client.Disconnect(250)
	c.setStatus(bridge.StatusDisconnected)
	c.log.Info().Msg("disconnected from broker")
}

// Status reports the tracked connection state.
func (c *Client) Status() bridge.ConnStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Client) setStatus(s bridge.ConnStatus) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}
