// Package config provides the structures used for configuration.
package config

import (
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"github.com/lone-faerie/ps2mqtt/config/secrets"
	"github.com/lone-faerie/ps2mqtt/log"
)

// Config is the resolved configuration of the daemon. Config should be
// created with a call to [Default], [Read], or [Load], which apply
// environment expansion and fill in host-derived defaults.
type Config struct {
	// Period is the delay between two sampling ticks. Must be positive.
	Period Duration `yaml:"period"`
	// BaseTopic is the topic prefix state and availability are published
	// under. The default is "ps2mqtt/<host slug>", which keeps two hosts
	// publishing to the same broker from colliding.
	BaseTopic string `yaml:"base_topic"`
	// StoragePaths is a comma-separated list of mount points to monitor
	// for disk usage.
	StoragePaths string `yaml:"storage_paths"`

	MQTT      MQTTConfig      `yaml:"mqtt,omitempty"`
	Discovery DiscoveryConfig `yaml:"discovery,omitempty"`
	Log       LogConfig       `yaml:"log,omitempty"`
}

func defaults() *Config {
	return &Config{
		Period:       Duration(60 * time.Second),
		BaseTopic:    "$PS2MQTT_BASE_TOPIC",
		StoragePaths: "$PS2MQTT_STORAGE_PATHS",
		MQTT:         DefaultMQTT,
		Discovery:    DefaultDiscovery,
	}
}

// Default returns the default Config when no config file is provided.
func Default() *Config {
	cfg := defaults()
	if err := cfg.load(); err != nil {
		log.Error("Invalid default config", err)
	}

	return cfg
}

// Read returns the Config parsed from the yaml encoded config from r.
func Read(r io.Reader) (*Config, error) {
	cfg := defaults()
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}

	return cfg, cfg.load()
}

// Load returns the Config parsed from the given yaml file. A missing or
// empty path yields the default config rather than an error, matching
// the behavior of running without --config.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info("Config file not found, using defaults", "path", path)
		return Default(), nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	log.Info("Loading config", "path", path)

	return Read(f)
}

// load expands environment and secret references and fills in
// host-derived defaults. It is called once per Config construction.
func (cfg *Config) load() error {
	for _, s := range []*string{
		&cfg.BaseTopic, &cfg.StoragePaths,
		&cfg.MQTT.Host, &cfg.MQTT.Username, &cfg.MQTT.Password, &cfg.MQTT.ClientID,
		&cfg.Discovery.Prefix, &cfg.Discovery.StatusTopic,
	} {
		*s = Expand(*s)
	}

	if cfg.Period <= 0 {
		return errors.New("period must be positive")
	}

	host, err := os.Hostname()
	if err != nil {
		return err
	}

	if cfg.BaseTopic == "" {
		cfg.BaseTopic = "ps2mqtt/" + slug.Make(host)
	}

	cfg.BaseTopic = strings.TrimSuffix(cfg.BaseTopic, "/")

	if cfg.StoragePaths == "" {
		cfg.StoragePaths = "/"
	}

	if cfg.MQTT.Host == "" {
		cfg.MQTT.Host = "localhost"
	}

	if cfg.MQTT.Port == 0 {
		if p, err := strconv.Atoi(os.Getenv("PS2MQTT_MQTT_PORT")); err == nil && p > 0 {
			cfg.MQTT.Port = p
		} else {
			cfg.MQTT.Port = 1883
		}
	}

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = slug.Make("ps2mqtt " + host)
	}

	if cfg.Discovery.Prefix == "" {
		cfg.Discovery.Prefix = DefaultDiscovery.Prefix
	}

	if cfg.Discovery.StatusTopic == "" {
		cfg.Discovery.StatusTopic = DefaultDiscovery.StatusTopic
	}

	return nil
}

// Paths returns the storage paths to monitor, split from the
// comma-separated StoragePaths value.
func (cfg *Config) Paths() []string {
	var paths []string

	for _, p := range strings.Split(cfg.StoragePaths, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}

	return paths
}

// StatusTopic returns the availability topic, "<base_topic>/status".
func (cfg *Config) StatusTopic() string {
	return cfg.BaseTopic + "/status"
}

// StateTopic returns the state topic for the named metric.
func (cfg *Config) StateTopic(metric string) string {
	return cfg.BaseTopic + "/" + metric
}

// Write writes the yaml encoding of cfg to w.
func (cfg *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()

	enc.SetIndent(2)

	return enc.Encode(cfg)
}

// WriteFile writes the yaml encoding of cfg to the file at path,
// creating it if necessary.
func (cfg *Config) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return cfg.Write(f)
}

// Expand replaces ${var} or $var in s according to the values of the
// current environment variables, and replaces !secret var according to
// the file at /run/secrets/<var>.
func Expand(s string) string {
	if secret, ok := secrets.CutPrefix(s); ok {
		return secrets.MustRead(secret, "")
	}

	return os.ExpandEnv(s)
}
