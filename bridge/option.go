package bridge

import (
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/lone-faerie/ps2mqtt/discovery"
	"github.com/lone-faerie/ps2mqtt/metrics"
)

type Option func(*Bridge)

// WithClientFunc replaces the constructor used to build the MQTT client
// from its resolved options. Tests use this to substitute a mock client
// while keeping the bridge's connect handlers wired.
func WithClientFunc(f func(*mqtt.ClientOptions) mqtt.Client) Option {
	return func(b *Bridge) {
		b.newClient = f
	}
}

// WithCatalog replaces the metric catalog built from the config.
func WithCatalog(c metrics.Catalog) Option {
	return func(b *Bridge) {
		b.catalog = c
	}
}

// WithDiscovery replaces the discovery publisher built from the config.
func WithDiscovery(d *discovery.Discovery) Option {
	return func(b *Bridge) {
		b.discovery = d
	}
}
