package config_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/lone-faerie/ps2mqtt/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	if !strings.HasPrefix(cfg.BaseTopic, "ps2mqtt/") {
		t.Errorf("BaseTopic: wanted ps2mqtt/<host> default, got %q", cfg.BaseTopic)
	}

	if cfg.Period.Duration() != time.Minute {
		t.Errorf("Period: wanted 1m, got %v", cfg.Period)
	}

	if got := cfg.Paths(); len(got) != 1 || got[0] != "/" {
		t.Errorf("Paths: wanted [/], got %v", got)
	}

	if cfg.Discovery.Prefix != "homeassistant" {
		t.Errorf("Discovery.Prefix: got %q", cfg.Discovery.Prefix)
	}

	if cfg.Discovery.StatusTopic != "homeassistant/status" {
		t.Errorf("Discovery.StatusTopic: got %q", cfg.Discovery.StatusTopic)
	}

	if !strings.HasSuffix(cfg.StatusTopic(), "/status") {
		t.Errorf("StatusTopic: got %q", cfg.StatusTopic())
	}
}

func TestRead(t *testing.T) {
	cfg, err := config.Read(strings.NewReader(`
period: 90s
base_topic: ps2mqtt/myhost
storage_paths: /,/mnt/data
mqtt:
  host: broker.local
  port: 8883
  username: metrics
  password: hunter2
discovery:
  enabled: true
  prefix: ha
  status_topic: ha/status
`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Period.Duration() != 90*time.Second {
		t.Errorf("Period: wanted 90s, got %v", cfg.Period)
	}

	if cfg.BaseTopic != "ps2mqtt/myhost" {
		t.Errorf("BaseTopic: got %q", cfg.BaseTopic)
	}

	if cfg.MQTT.Host != "broker.local" || cfg.MQTT.Port != 8883 {
		t.Errorf("MQTT broker: got %s:%d", cfg.MQTT.Host, cfg.MQTT.Port)
	}

	if cfg.MQTT.Username != "metrics" || cfg.MQTT.Password != "hunter2" {
		t.Error("MQTT credentials not parsed")
	}

	if cfg.Discovery.Prefix != "ha" || cfg.Discovery.StatusTopic != "ha/status" {
		t.Errorf("Discovery: got %+v", cfg.Discovery)
	}

	want := []string{"/", "/mnt/data"}
	got := cfg.Paths()

	if len(got) != len(want) {
		t.Fatalf("Paths: wanted %v, got %v", want, got)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Paths[%d]: wanted %q, got %q", i, want[i], got[i])
		}
	}
}

func TestReadPeriodSeconds(t *testing.T) {
	cfg, err := config.Read(strings.NewReader("period: 30\n"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Period.Duration() != 30*time.Second {
		t.Errorf("Period: wanted 30s, got %v", cfg.Period)
	}
}

func TestReadInvalidPeriod(t *testing.T) {
	if _, err := config.Read(strings.NewReader("period: 0\n")); err == nil {
		t.Error("zero period: wanted error, got nil")
	}

	if _, err := config.Read(strings.NewReader("period: -5s\n")); err == nil {
		t.Error("negative period: wanted error, got nil")
	}
}

func TestExpand(t *testing.T) {
	t.Setenv("PS2MQTT_TEST_BROKER", "broker.example")

	cfg, err := config.Read(strings.NewReader(`
mqtt:
  host: $PS2MQTT_TEST_BROKER
`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.MQTT.Host != "broker.example" {
		t.Errorf("MQTT.Host: wanted broker.example, got %q", cfg.MQTT.Host)
	}
}

func TestPaths(t *testing.T) {
	var tests = []struct {
		paths string
		want  []string
	}{
		{"/", []string{"/"}},
		{"/,/mnt/data", []string{"/", "/mnt/data"}},
		{"/, /mnt/data ", []string{"/", "/mnt/data"}},
		{"/,,", []string{"/"}},
	}

	for _, tt := range tests {
		cfg := config.Default()
		cfg.StoragePaths = tt.paths

		got := cfg.Paths()
		if len(got) != len(tt.want) {
			t.Errorf("%q: wanted %v, got %v", tt.paths, tt.want, got)
			continue
		}

		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("%q: wanted %v, got %v", tt.paths, tt.want, got)
			}
		}
	}
}

func TestStateTopic(t *testing.T) {
	cfg := config.Default()
	cfg.BaseTopic = "ps2mqtt/myhost"

	if got := cfg.StateTopic("cpu_percent"); got != "ps2mqtt/myhost/cpu_percent" {
		t.Errorf("StateTopic: got %q", got)
	}

	if got := cfg.StatusTopic(); got != "ps2mqtt/myhost/status" {
		t.Errorf("StatusTopic: got %q", got)
	}
}

func TestWriteRead(t *testing.T) {
	cfg := config.Default()
	cfg.BaseTopic = "ps2mqtt/myhost"
	cfg.StoragePaths = "/,/mnt/data"
	cfg.MQTT.Host = "broker.local"
	cfg.MQTT.Port = 1884
	cfg.Period = config.Duration(2 * time.Minute)

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatal(err)
	}

	got, err := config.Read(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if got.BaseTopic != cfg.BaseTopic {
		t.Errorf("BaseTopic: wanted %q, got %q", cfg.BaseTopic, got.BaseTopic)
	}

	if got.StoragePaths != cfg.StoragePaths {
		t.Errorf("StoragePaths: wanted %q, got %q", cfg.StoragePaths, got.StoragePaths)
	}

	if got.MQTT.Host != cfg.MQTT.Host || got.MQTT.Port != cfg.MQTT.Port {
		t.Errorf("MQTT broker: wanted %s:%d, got %s:%d", cfg.MQTT.Host, cfg.MQTT.Port, got.MQTT.Host, got.MQTT.Port)
	}

	if got.Period != cfg.Period {
		t.Errorf("Period: wanted %v, got %v", cfg.Period, got.Period)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &config.MQTTConfig{
		Host:     "broker.local",
		Port:     1883,
		Username: "metrics",
		Password: "hunter2",
		ClientID: "ps2mqtt-myhost",
	}

	o := cfg.ClientOptions("ps2mqtt/myhost/status")

	if got := o.Servers[0].String(); got != "tcp://broker.local:1883" {
		t.Errorf("broker url: got %q", got)
	}

	if o.Username != "metrics" || o.Password != "hunter2" {
		t.Error("credentials not set")
	}

	if o.WillTopic != "ps2mqtt/myhost/status" {
		t.Errorf("will topic: got %q", o.WillTopic)
	}

	if string(o.WillPayload) != "offline" {
		t.Errorf("will payload: got %q", o.WillPayload)
	}

	if !o.WillRetained {
		t.Error("will must be retained")
	}

	if !o.AutoReconnect {
		t.Error("auto reconnect must be enabled")
	}
}

func TestClientOptionsNoCredentials(t *testing.T) {
	cfg := &config.MQTTConfig{Host: "broker.local", Port: 1883}

	o := cfg.ClientOptions("ps2mqtt/myhost/status")

	if o.Username != "" || o.Password != "" {
		t.Error("credentials should be absent when no username is configured")
	}
}
