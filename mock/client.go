// Package mock provides an in-memory [mqtt.Client] that records
// publishes and dispatches subscriptions, for exercising the bridge and
// discovery protocol in tests without a broker.
package mock

import (
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publish is one recorded call to [Client.Publish].
type Publish struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// Client implements [mqtt.Client] in memory. The zero value is not
// usable; use [NewClient].
type Client struct {
	mu        sync.Mutex
	connected bool
	opts      *mqtt.ClientOptions
	routes    map[string]mqtt.MessageHandler
	published []Publish
}

func NewClient(o *mqtt.ClientOptions) *Client {
	return &Client{
		opts:   o,
		routes: make(map[string]mqtt.MessageHandler),
	}
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connected
}

func (c *Client) IsConnectionOpen() bool {
	return c.IsConnected()
}

// Connect marks the client connected and fires the OnConnect handler of
// the client options, mirroring the backing client's behavior on both
// the initial connect and reconnects.
func (c *Client) Connect() mqtt.Token {
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	if c.opts != nil && c.opts.OnConnect != nil {
		c.opts.OnConnect(c)
	}

	return &mqtt.DummyToken{}
}

func (c *Client) Disconnect(_ uint) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

func (c *Client) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	var p []byte

	switch v := payload.(type) {
	case []byte:
		p = v
	case string:
		p = []byte(v)
	}

	c.mu.Lock()
	c.published = append(c.published, Publish{topic, p, retained})
	c.mu.Unlock()

	return &mqtt.DummyToken{}
}

func (c *Client) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	c.routes[topic] = callback
	c.mu.Unlock()

	return &mqtt.DummyToken{}
}

func (c *Client) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	for topic := range filters {
		c.routes[topic] = callback
	}
	c.mu.Unlock()

	return &mqtt.DummyToken{}
}

func (c *Client) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	for _, topic := range topics {
		delete(c.routes, topic)
	}
	c.mu.Unlock()

	return &mqtt.DummyToken{}
}

func (c *Client) AddRoute(topic string, callback mqtt.MessageHandler) {
	c.mu.Lock()
	c.routes[topic] = callback
	c.mu.Unlock()
}

func (c *Client) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.NewOptionsReader(c.opts)
}

// Receive delivers a message to the handler subscribed to topic, as if
// it arrived from the broker. It reports whether a handler was found.
func (c *Client) Receive(topic string, payload []byte) bool {
	c.mu.Lock()
	callback, ok := c.routes[topic]
	c.mu.Unlock()

	if ok {
		callback(c, &message{topic: topic, payload: payload})
	}

	return ok
}

// Published returns a snapshot of every recorded publish.
func (c *Client) Published() []Publish {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Publish(nil), c.published...)
}

// Reset discards the recorded publishes.
func (c *Client) Reset() {
	c.mu.Lock()
	c.published = nil
	c.mu.Unlock()
}

type message struct {
	topic   string
	payload []byte
}

func (m *message) Duplicate() bool   { return false }
func (m *message) Qos() byte         { return 0 }
func (m *message) Retained() bool    { return false }
func (m *message) MessageID() uint16 { return 0 }
func (m *message) Ack()              {}
func (m *message) Topic() string     { return m.topic }
func (m *message) Payload() []byte   { return m.payload }
