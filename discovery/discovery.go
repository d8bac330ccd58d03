// Package discovery builds and publishes the MQTT discovery payloads
// that let a Home Assistant style hub auto-register each metric as a
// sensor entity.
package discovery

import (
	"encoding/json"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gosimple/slug"

	"github.com/lone-faerie/ps2mqtt/config"
	"github.com/lone-faerie/ps2mqtt/log"
	"github.com/lone-faerie/ps2mqtt/metrics"
)

// Availability payloads shared by the status topic, the last will, and
// every discovery payload.
const (
	Available    = "online"
	NotAvailable = "offline"
)

// Discovery publishes sensor discovery payloads for a host. All of the
// host identity is resolved once in [New]; publishing the same catalog
// twice produces byte-identical payloads.
type Discovery struct {
	prefix            string
	nodeID            string
	baseTopic         string
	availabilityTopic string
	device            Device
}

// New returns a Discovery publishing under the given config's discovery
// prefix, with the node id "ps2mqtt_<host slug>".
func New(cfg *config.Config) (*Discovery, error) {
	dev, err := NewDevice()
	if err != nil {
		return nil, err
	}

	return &Discovery{
		prefix:            cfg.Discovery.Prefix,
		nodeID:            "ps2mqtt_" + slug.Make(dev.Name),
		baseTopic:         cfg.BaseTopic,
		availabilityTopic: cfg.StatusTopic(),
		device:            dev,
	}, nil
}

// ConfigTopic returns the discovery topic for the named metric, of the
// form <prefix>/sensor/ps2mqtt_<host slug>/<metric>/config.
func (d *Discovery) ConfigTopic(metric string) string {
	return strings.Join([]string{d.prefix, "sensor", d.nodeID, metric, "config"}, "/")
}

// AvailabilityTopic returns the topic availability is reported on.
func (d *Discovery) AvailabilityTopic() string {
	return d.availabilityTopic
}

// sensorConfig is the discovery payload of a single sensor. The
// optional metadata fields are omitted when empty rather than announced
// with false defaults.
type sensorConfig struct {
	Name                string  `json:"name"`
	UniqueID            string  `json:"unique_id"`
	ObjectID            string  `json:"object_id"`
	StateTopic          string  `json:"state_topic"`
	AvailabilityTopic   string  `json:"availability_topic"`
	PayloadAvailable    string  `json:"payload_available"`
	PayloadNotAvailable string  `json:"payload_not_available"`
	Device              *Device `json:"device"`
	DeviceClass         string  `json:"device_class,omitempty"`
	Icon                string  `json:"icon,omitempty"`
	Unit                string  `json:"unit_of_measurement,omitempty"`
}

// Config returns the discovery payload for the given metric.
func (d *Discovery) Config(m *metrics.Descriptor) ([]byte, error) {
	id := slug.Make(d.device.Name + " " + m.Name)

	return json.Marshal(&sensorConfig{
		Name:                m.Name,
		UniqueID:            id,
		ObjectID:            id,
		StateTopic:          d.baseTopic + "/" + m.Name,
		AvailabilityTopic:   d.availabilityTopic,
		PayloadAvailable:    Available,
		PayloadNotAvailable: NotAvailable,
		Device:              &d.device,
		DeviceClass:         m.DeviceClass,
		Icon:                m.Icon,
		Unit:                m.Unit,
	})
}

// Publish announces availability followed by the retained discovery
// payload of every metric in the catalog. Publishing is idempotent; it
// is safe to call on every (re)connect and on every hub status message.
func (d *Discovery) Publish(c mqtt.Client, catalog metrics.Catalog) error {
	t := c.Publish(d.availabilityTopic, 0, false, Available)
	if t.Wait(); t.Error() != nil {
		return t.Error()
	}

	for _, m := range catalog {
		payload, err := d.Config(m)
		if err != nil {
			return err
		}

		log.Debug("Publishing discovery config", "metric", m.Name)

		t := c.Publish(d.ConfigTopic(m.Name), 0, true, payload)
		if t.Wait(); t.Error() != nil {
			return t.Error()
		}
	}

	return nil
}
