// Package bridge owns the MQTT session and the sampling schedule: it
// connects with a last will, announces discovery on every (re)connect
// and on every hub status message, and periodically publishes the
// current value of every metric in the catalog.
package bridge

import (
	"context"
	"fmt"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/lone-faerie/ps2mqtt/config"
	"github.com/lone-faerie/ps2mqtt/discovery"
	"github.com/lone-faerie/ps2mqtt/log"
	"github.com/lone-faerie/ps2mqtt/metrics"
)

// Bridge is the mqtt client that bridges host metrics to the mqtt broker.
//
// The backing client runs its network I/O on its own goroutines, so the
// connect and message callbacks execute concurrently with the sampling
// tick. The only mutable state, the rate tracker inside the catalog's
// samplers, is touched solely from the tick; the callbacks only publish
// discovery payloads.
type Bridge struct {
	client    mqtt.Client
	cfg       *config.Config
	catalog   metrics.Catalog
	rates     *metrics.RateTracker
	discovery *discovery.Discovery

	newClient func(*mqtt.ClientOptions) mqtt.Client
}

// New returns a new Bridge with the given config and options. The
// returned bridge must have [Bridge.Connect] called on it before
// [Bridge.Run]. New fails only if the metric catalog cannot be built,
// since no metrics can be safely assumed in that case.
func New(cfg *config.Config, opts ...Option) (*Bridge, error) {
	b := &Bridge{
		cfg:       cfg,
		rates:     metrics.NewRateTracker(),
		newClient: func(o *mqtt.ClientOptions) mqtt.Client { return mqtt.NewClient(o) },
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.catalog == nil {
		c, err := metrics.Build(cfg, b.rates)
		if err != nil {
			return nil, err
		}

		b.catalog = c
	}

	if b.discovery == nil && cfg.Discovery.Enabled {
		d, err := discovery.New(cfg)
		if err != nil {
			log.Error("Unable to get discovery", err)
		} else {
			b.discovery = d
		}
	}

	if cfg.MQTT.LogLevel < log.LevelDisabled {
		setClientLoggers(cfg.MQTT.LogLevel)
	}

	o := cfg.MQTT.ClientOptions(cfg.StatusTopic())
	o.SetOnConnectHandler(b.onConnect)
	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.WarnError("Connection lost", err)
	})

	b.client = b.newClient(o)

	return b, nil
}

// Connect opens the connection to the broker, returning the initial
// connection error if the broker is unreachable.
func (b *Bridge) Connect(ctx context.Context) error {
	log.Info("Connecting to broker", "host", b.cfg.MQTT.Host, "port", b.cfg.MQTT.Port)

	return waitToken(ctx, b.client.Connect())
}

// Disconnect publishes the offline status and closes the connection.
func (b *Bridge) Disconnect() {
	if !b.client.IsConnected() && !b.client.IsConnectionOpen() {
		return
	}

	t := b.client.Publish(b.cfg.StatusTopic(), 1, true, discovery.NotAvailable)
	t.WaitTimeout(time.Second)

	b.client.Disconnect(500)
}

// Catalog returns the bridge's metric catalog.
func (b *Bridge) Catalog() metrics.Catalog {
	return b.catalog
}

// Run samples and publishes every metric once immediately and then once
// per configured period, republishing availability after each tick. Run
// blocks until ctx is canceled. Ticks are strictly sequential; each
// re-arm is relative to the tick's nominal fire time so the cost of
// sampling does not accumulate as schedule drift.
func (b *Bridge) Run(ctx context.Context) error {
	period := b.cfg.Period.Duration()

	next := time.Now()
	timer := time.NewTimer(0)

	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			b.tick()

			next = next.Add(period)
			timer.Reset(time.Until(next))
		}
	}
}

// tick publishes the current value of every metric, then the
// availability beacon. A metric that fails to sample is logged and
// skipped for this tick; it never prevents the others from publishing.
func (b *Bridge) tick() {
	for _, m := range b.catalog {
		v, err := sample(m)
		if err != nil {
			log.WarnError("Unable to sample "+m.Name, err)
			continue
		}

		b.client.Publish(b.cfg.StateTopic(m.Name), 0, false, formatValue(v))
	}

	b.client.Publish(b.cfg.StatusTopic(), 0, false, discovery.Available)
}

// sample calls the metric's sampler, converting a panic into an error
// so one misbehaving sampler cannot take down the scheduler.
func sample(m *metrics.Descriptor) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sampler panic: %v", p)
		}
	}()

	return m.Sample()
}

// onConnect runs on every successful (re)connect: it subscribes to the
// hub's status topic and announces discovery, making announcement
// resilient to the broker or hub restarting independently of the daemon.
func (b *Bridge) onConnect(c mqtt.Client) {
	log.Info("Connected to broker")

	if b.discovery == nil {
		return
	}

	t := c.Subscribe(b.cfg.Discovery.StatusTopic, 0, b.onHubStatus)

	go func() {
		if t.Wait(); t.Error() != nil {
			log.WarnError("Unable to subscribe to "+b.cfg.Discovery.StatusTopic, t.Error())
		}

		b.announce()
	}()
}

// onHubStatus re-announces discovery whenever the hub reports a status
// change, so a hub that restarts recovers every sensor definition.
func (b *Bridge) onHubStatus(_ mqtt.Client, msg mqtt.Message) {
	log.Debug("Hub status", "topic", msg.Topic(), "payload", string(msg.Payload()))

	go b.announce()
}

func (b *Bridge) announce() {
	if b.discovery == nil {
		return
	}

	if err := b.discovery.Publish(b.client, b.catalog); err != nil {
		log.WarnError("Unable to publish discovery", err)
	}
}

// waitToken waits for the first of ctx.Done() or t.Done() and returns
// t.Error(), or ctx.Err() if the context finished first.
func waitToken(ctx context.Context, t mqtt.Token) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Done():
	}

	return t.Error()
}

// formatValue renders a sampled value as a state payload: numbers in
// their shortest decimal form, strings verbatim.
func formatValue(v any) []byte {
	switch v := v.(type) {
	case float64:
		return strconv.AppendFloat(nil, v, 'g', -1, 64)
	case float32:
		return strconv.AppendFloat(nil, float64(v), 'g', -1, 32)
	case int:
		return strconv.AppendInt(nil, int64(v), 10)
	case int64:
		return strconv.AppendInt(nil, v, 10)
	case uint64:
		return strconv.AppendUint(nil, v, 10)
	case string:
		return []byte(v)
	default:
		return fmt.Appendf(nil, "%v", v)
	}
}

func setClientLoggers(level log.Level) {
	mqtt.ERROR = log.LevelLogger(log.LevelError)
	mqtt.CRITICAL = log.LevelLogger(log.LevelError)

	if level <= log.LevelWarn {
		mqtt.WARN = log.LevelLogger(log.LevelWarn)
	}

	if level <= log.LevelDebug {
		mqtt.DEBUG = log.LevelLogger(log.LevelDebug)
	}
}
