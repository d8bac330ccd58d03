package discovery

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/lone-faerie/ps2mqtt/metrics"
	"github.com/lone-faerie/ps2mqtt/mock"
)

func testDiscovery() *Discovery {
	return &Discovery{
		prefix:            "homeassistant",
		nodeID:            "ps2mqtt_myhost",
		baseTopic:         "ps2mqtt/myhost",
		availabilityTopic: "ps2mqtt/myhost/status",
		device: Device{
			Identifiers:  "myhost_ps2mqtt",
			Name:         "myhost",
			SWVersion:    "debian 12",
			Model:        "Linux",
			Manufacturer: "ps2mqtt 1.0.0",
		},
	}
}

func TestConfigTopic(t *testing.T) {
	d := testDiscovery()

	want := "homeassistant/sensor/ps2mqtt_myhost/cpu_percent/config"
	if got := d.ConfigTopic("cpu_percent"); got != want {
		t.Errorf("ConfigTopic: wanted %q, got %q", want, got)
	}
}

func TestConfig(t *testing.T) {
	d := testDiscovery()

	payload, err := d.Config(&metrics.Descriptor{
		Name: "cpu_percent",
		Unit: "%",
		Icon: "mdi:chip",
	})
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatal(err)
	}

	var tests = []struct {
		key  string
		want any
	}{
		{"name", "cpu_percent"},
		{"unique_id", "myhost-cpu_percent"},
		{"object_id", "myhost-cpu_percent"},
		{"state_topic", "ps2mqtt/myhost/cpu_percent"},
		{"availability_topic", "ps2mqtt/myhost/status"},
		{"payload_available", "online"},
		{"payload_not_available", "offline"},
		{"unit_of_measurement", "%"},
		{"icon", "mdi:chip"},
	}
	for _, tt := range tests {
		if got[tt.key] != tt.want {
			t.Errorf("%s: wanted %v, got %v", tt.key, tt.want, got[tt.key])
		}
	}

	dev, ok := got["device"].(map[string]any)
	if !ok {
		t.Fatal("payload missing device block")
	}

	if dev["identifiers"] != "myhost_ps2mqtt" {
		t.Errorf("device identifiers: got %v", dev["identifiers"])
	}

	if dev["manufacturer"] != "ps2mqtt 1.0.0" {
		t.Errorf("device manufacturer: got %v", dev["manufacturer"])
	}
}

func TestConfigOmitsAbsentAttributes(t *testing.T) {
	d := testDiscovery()

	payload, err := d.Config(&metrics.Descriptor{Name: "uptime", DeviceClass: "timestamp"})
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"unit_of_measurement", "icon"} {
		if _, ok := got[key]; ok {
			t.Errorf("payload should omit %q, got %v", key, got[key])
		}
	}

	if got["device_class"] != "timestamp" {
		t.Errorf("device_class: wanted timestamp, got %v", got["device_class"])
	}
}

func TestConfigIdempotent(t *testing.T) {
	d := testDiscovery()
	m := &metrics.Descriptor{Name: "virtual_memory", Unit: "%", Icon: "mdi:memory"}

	first, err := d.Config(m)
	if err != nil {
		t.Fatal(err)
	}

	second, err := d.Config(m)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("payloads differ:\n%s\n%s", first, second)
	}
}

func TestPublish(t *testing.T) {
	d := testDiscovery()
	catalog := metrics.Catalog{
		{Name: "cpu_percent", Unit: "%"},
		{Name: "uptime", DeviceClass: "timestamp"},
	}

	c := mock.NewClient(mqtt.NewClientOptions())

	if err := d.Publish(c, catalog); err != nil {
		t.Fatal(err)
	}

	published := c.Published()
	if len(published) != len(catalog)+1 {
		t.Fatalf("wanted %d publishes, got %d", len(catalog)+1, len(published))
	}

	if published[0].Topic != "ps2mqtt/myhost/status" {
		t.Errorf("first publish topic: got %q", published[0].Topic)
	}

	if string(published[0].Payload) != Available {
		t.Errorf("availability payload: got %q", published[0].Payload)
	}

	if published[0].Retained {
		t.Error("availability beacon should not be retained")
	}

	for i, m := range catalog {
		p := published[i+1]

		if !strings.HasSuffix(p.Topic, "/"+m.Name+"/config") {
			t.Errorf("config topic: got %q", p.Topic)
		}

		if !p.Retained {
			t.Errorf("%s: discovery config should be retained", m.Name)
		}
	}
}

func TestPublishIdempotent(t *testing.T) {
	d := testDiscovery()
	catalog := metrics.Catalog{
		{Name: "cpu_percent", Unit: "%", Icon: "mdi:chip"},
		{Name: "download", Unit: "kbps", Icon: "mdi:download-network"},
	}

	c := mock.NewClient(mqtt.NewClientOptions())

	if err := d.Publish(c, catalog); err != nil {
		t.Fatal(err)
	}

	first := c.Published()
	c.Reset()

	if err := d.Publish(c, catalog); err != nil {
		t.Fatal(err)
	}

	second := c.Published()

	if len(first) != len(second) {
		t.Fatalf("publish counts differ: %d vs %d", len(first), len(second))
	}

	for i := range first {
		if first[i].Topic != second[i].Topic {
			t.Errorf("topic %d differs: %q vs %q", i, first[i].Topic, second[i].Topic)
		}

		if !bytes.Equal(first[i].Payload, second[i].Payload) {
			t.Errorf("payload %d differs:\n%s\n%s", i, first[i].Payload, second[i].Payload)
		}
	}
}
