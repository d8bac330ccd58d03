package config

import (
	"strconv"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/lone-faerie/ps2mqtt/log"
)

// MQTTConfig is the configuration for the MQTT client.
//
// See [mqtt.ClientOptions]
type MQTTConfig struct {
	// Host is the ip-address (or hostname) of the broker.
	Host string `yaml:"host"`
	// Port is the port on which the broker is accepting connections.
	// The default is 1883, or $PS2MQTT_MQTT_PORT if set.
	Port int `yaml:"port"`
	// Username is the (optional) username used when connecting to the
	// broker. If blank, the connection is unauthenticated.
	Username string `yaml:"username,omitempty"`
	// Password is the (optional) password used when connecting to the broker.
	Password string `yaml:"password,omitempty"`
	// ClientID is the client ID used when connecting to the broker. The
	// default is "ps2mqtt-<host slug>".
	ClientID string `yaml:"client_id,omitempty"`
	// KeepAlive is the duration that the client should wait before pinging
	// the broker, to know the connection hasn't been lost.
	KeepAlive Duration `yaml:"keep_alive,omitempty"`
	// ConnectTimeout is the duration that the client will wait when
	// attempting to open a connection to the broker before timing out.
	ConnectTimeout Duration `yaml:"connect_timeout,omitempty"`
	// ReconnectInterval is the maximum duration that the client will wait
	// between reconnection attempts.
	ReconnectInterval Duration `yaml:"reconnect_interval,omitempty"`
	// LogLevel is the log level to provide to the backing MQTT client
	// package. See [mqtt.Logger]
	LogLevel log.Level `yaml:"log_level,omitempty"`
}

// DiscoveryConfig is the configuration for performing MQTT discovery.
//
// See https://www.home-assistant.io/integrations/mqtt/#mqtt-discovery
type DiscoveryConfig struct {
	Enabled bool `yaml:"enabled"`
	// Prefix is the discovery_prefix part of the discovery topic in the
	// form <discovery_prefix>/sensor/<node_id>/<object_id>/config.
	// The default value is "homeassistant"
	Prefix string `yaml:"prefix"`
	// StatusTopic is the birth/status topic of the hub. Any message
	// received on it triggers a re-announcement of the discovery
	// payloads. The default value is "homeassistant/status"
	StatusTopic string `yaml:"status_topic"`
}

var DefaultMQTT = MQTTConfig{
	Host:     "$PS2MQTT_MQTT_SERVER",
	Username: "$PS2MQTT_MQTT_USERNAME",
	Password: "$PS2MQTT_MQTT_PASSWORD",
	LogLevel: log.LevelDisabled,
}

var DefaultDiscovery = DiscoveryConfig{
	Enabled:     true,
	Prefix:      "homeassistant",
	StatusTopic: "homeassistant/status",
}

// ClientOptions returns cfg formatted as [mqtt.ClientOptions] to provide
// to the backing MQTT client when calling [mqtt.NewClient]. The last
// will is registered on willTopic so the broker reports the daemon
// offline after an unclean disconnect.
func (cfg *MQTTConfig) ClientOptions(willTopic string) *mqtt.ClientOptions {
	o := mqtt.NewClientOptions()
	o.AddBroker("tcp://" + cfg.Host + ":" + strconv.Itoa(cfg.Port))
	o.SetClientID(cfg.ClientID)
	o.SetAutoReconnect(true)
	o.SetResumeSubs(true)

	if cfg.Username != "" {
		o.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	if cfg.KeepAlive > 0 {
		o.SetKeepAlive(cfg.KeepAlive.Duration())
	}

	if cfg.ConnectTimeout > 0 {
		o.SetConnectTimeout(cfg.ConnectTimeout.Duration())
	}

	if cfg.ReconnectInterval > 0 {
		o.SetMaxReconnectInterval(cfg.ReconnectInterval.Duration())
	}

	if willTopic != "" {
		o.SetWill(willTopic, "offline", 1, true)
	}

	return o
}

// IsZero indicates whether cfg is the default value.
func (cfg MQTTConfig) IsZero() bool {
	return cfg == DefaultMQTT
}

// IsZero indicates whether cfg is the default value.
func (cfg DiscoveryConfig) IsZero() bool {
	return cfg == DefaultDiscovery
}
