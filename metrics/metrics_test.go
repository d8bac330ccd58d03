package metrics

import (
	"slices"
	"testing"

	"github.com/lone-faerie/ps2mqtt/config"
)

func TestDiskName(t *testing.T) {
	var tests = []struct {
		path string
		want string
	}{
		{"/", "root"},
		{"/mnt/data", "mnt-data"},
		{"/var/lib/docker", "var-lib-docker"},
		{"/Media Drive", "media-drive"},
	}

	for _, tt := range tests {
		if got := DiskName(tt.path); got != tt.want {
			t.Errorf("DiskName(%q): wanted %q, got %q", tt.path, tt.want, got)
		}

		// Stable across calls.
		if got := DiskName(tt.path); got != tt.want {
			t.Errorf("DiskName(%q) second call: wanted %q, got %q", tt.path, tt.want, got)
		}
	}
}

func TestBuild(t *testing.T) {
	cfg := config.Default()
	cfg.StoragePaths = "/"

	catalog, err := Build(cfg, NewRateTracker())
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, m := range catalog {
		if m.Sample == nil {
			t.Errorf("%s: nil sampler", m.Name)
		}

		names = append(names, m.Name)
	}

	fixed := []string{
		"cpu_percent", "virtual_memory", "uptime",
		"bytes_sent", "bytes_recv", "upload", "download",
		"root_disk_usage",
	}
	for _, want := range fixed {
		if !slices.Contains(names, want) {
			t.Errorf("catalog missing %q, got %v", want, names)
		}
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			t.Errorf("duplicate metric name %q", name)
		}

		seen[name] = true
	}
}

func TestBuildStoragePaths(t *testing.T) {
	cfg := config.Default()
	cfg.StoragePaths = "/,/mnt/data"

	catalog, err := Build(cfg, NewRateTracker())
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, m := range catalog {
		names = append(names, m.Name)
	}

	if !slices.Contains(names, "root_disk_usage") {
		t.Error("catalog missing root_disk_usage")
	}

	if !slices.Contains(names, "mnt-data_disk_usage") {
		t.Error("catalog missing mnt-data_disk_usage")
	}
}

func TestBuildNilRates(t *testing.T) {
	if _, err := Build(config.Default(), nil); err == nil {
		t.Error("Build with nil rate tracker: wanted error, got nil")
	}
}

func TestDescriptorMetadata(t *testing.T) {
	catalog, err := Build(config.Default(), NewRateTracker())
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]struct{ unit, deviceClass string }{
		"cpu_percent":    {"%", ""},
		"virtual_memory": {"%", ""},
		"uptime":         {"", "timestamp"},
		"bytes_sent":     {"MiB", ""},
		"upload":         {"kbps", ""},
	}

	for _, m := range catalog {
		w, ok := want[m.Name]
		if !ok {
			continue
		}

		if m.Unit != w.unit {
			t.Errorf("%s: wanted unit %q, got %q", m.Name, w.unit, m.Unit)
		}

		if m.DeviceClass != w.deviceClass {
			t.Errorf("%s: wanted device class %q, got %q", m.Name, w.deviceClass, m.DeviceClass)
		}
	}
}
