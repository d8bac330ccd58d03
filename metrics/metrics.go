// Package metrics provides the catalog of host metrics published by the
// daemon, sampled with gopsutil.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	gopsnet "github.com/shirou/gopsutil/v3/net"

	"github.com/lone-faerie/ps2mqtt/config"
	"github.com/lone-faerie/ps2mqtt/log"
)

// Descriptor describes a single metric: its name, the optional metadata
// announced during discovery, and the function that samples its current
// value. Descriptors are built once at startup and never mutated.
type Descriptor struct {
	// Name is the metric name, unique within a catalog and safe for use
	// as a topic segment.
	Name string
	// Unit is the (optional) unit of measurement.
	Unit string
	// Icon is the (optional) display icon.
	Icon string
	// DeviceClass is the (optional) device class.
	DeviceClass string
	// Sample returns the current value of the metric, either a number or
	// a string. It must be safe to call repeatedly.
	Sample func() (any, error)
}

// Catalog is an ordered collection of metric descriptors.
type Catalog []*Descriptor

// Build returns the catalog of metrics for the host: the fixed CPU,
// memory, uptime, and network metrics, one disk usage metric per
// configured storage path, and one metric per temperature sensor the
// host exposes. Build fails only if baseline host introspection fails;
// a host without temperature sensors simply has no temperature metrics.
func Build(cfg *config.Config, rates *RateTracker) (Catalog, error) {
	if rates == nil {
		return nil, errors.New("metrics: nil rate tracker")
	}

	if _, err := netCounters(); err != nil {
		return nil, fmt.Errorf("metrics: probing host counters: %w", err)
	}

	c := Catalog{
		{
			Name:   "cpu_percent",
			Unit:   "%",
			Icon:   "mdi:chip",
			Sample: cpuPercent,
		},
		{
			Name:   "virtual_memory",
			Unit:   "%",
			Icon:   "mdi:memory",
			Sample: virtualMemory,
		},
		{
			Name:        "uptime",
			DeviceClass: "timestamp",
			Sample:      bootTime,
		},
		{
			Name:   "bytes_sent",
			Unit:   "MiB",
			Icon:   "mdi:upload-network",
			Sample: bytesSent,
		},
		{
			Name:   "bytes_recv",
			Unit:   "MiB",
			Icon:   "mdi:download-network",
			Sample: bytesRecv,
		},
		{
			Name:   "upload",
			Unit:   "kbps",
			Icon:   "mdi:upload-network",
			Sample: netRate(rates, "upload", sent),
		},
		{
			Name:   "download",
			Unit:   "kbps",
			Icon:   "mdi:download-network",
			Sample: netRate(rates, "download", received),
		},
	}

	for _, path := range cfg.Paths() {
		c = append(c, &Descriptor{
			Name:   DiskName(path) + "_disk_usage",
			Unit:   "%",
			Icon:   "mdi:harddisk",
			Sample: diskUsage(path),
		})
	}

	return append(c, temperatures()...), nil
}

// DiskName returns the metric name prefix for a storage path. The root
// path maps to the literal name "root".
func DiskName(path string) string {
	if path == "/" {
		return "root"
	}

	return slug.Make(path)
}

func cpuPercent() (any, error) {
	pct, err := cpu.Percent(0, false)
	if err != nil {
		return nil, err
	}

	if len(pct) == 0 {
		return nil, errors.New("no cpu percent reported")
	}

	return pct[0], nil
}

func virtualMemory() (any, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}

	return vm.UsedPercent, nil
}

func bootTime() (any, error) {
	t, err := host.BootTime()
	if err != nil {
		return nil, err
	}

	return time.Unix(int64(t), 0).Format(time.RFC3339), nil
}

func netCounters() (gopsnet.IOCountersStat, error) {
	counters, err := gopsnet.IOCounters(false)
	if err != nil {
		return gopsnet.IOCountersStat{}, err
	}

	if len(counters) == 0 {
		return gopsnet.IOCountersStat{}, errors.New("no network counters reported")
	}

	return counters[0], nil
}

func bytesSent() (any, error) {
	c, err := netCounters()
	if err != nil {
		return nil, err
	}

	return c.BytesSent / 1_000_000, nil
}

func bytesRecv() (any, error) {
	c, err := netCounters()
	if err != nil {
		return nil, err
	}

	return c.BytesRecv / 1_000_000, nil
}

type direction func(gopsnet.IOCountersStat) uint64

func sent(c gopsnet.IOCountersStat) uint64     { return c.BytesSent }
func received(c gopsnet.IOCountersStat) uint64 { return c.BytesRecv }

// netRate returns a sampler reporting the per-second rate of change of
// a cumulative byte counter, in kbps.
func netRate(rates *RateTracker, key string, dir direction) func() (any, error) {
	return func() (any, error) {
		c, err := netCounters()
		if err != nil {
			return nil, err
		}

		return rates.Rate(key, float64(dir(c))/1000), nil
	}
}

// diskUsage returns a sampler for the usage of the filesystem mounted
// at path. The path is owned by the returned sampler.
func diskUsage(path string) func() (any, error) {
	return func() (any, error) {
		usage, err := disk.Usage(path)
		if err != nil {
			return nil, err
		}

		return usage.UsedPercent, nil
	}
}

// temperatures enumerates the host's temperature sensors and returns
// one descriptor per distinct sensor key. Hosts without a temperature
// sensing capability contribute nothing.
func temperatures() []*Descriptor {
	sensors, err := host.SensorsTemperatures()
	if err != nil && len(sensors) == 0 {
		log.Warn("No temperature sensors", "cause", err)
		return nil
	}

	var (
		seen = make(map[string]bool, len(sensors))
		d    []*Descriptor
	)

	for _, s := range sensors {
		if s.SensorKey == "" || seen[s.SensorKey] {
			continue
		}

		seen[s.SensorKey] = true

		d = append(d, &Descriptor{
			Name:        slug.Make(s.SensorKey),
			Unit:        "°C",
			DeviceClass: "temperature",
			Sample:      sensorTemperature(s.SensorKey),
		})
	}

	return d
}

// sensorTemperature returns a sampler for the named sensor. The key is
// owned by the returned sampler.
func sensorTemperature(key string) func() (any, error) {
	return func() (any, error) {
		sensors, err := host.SensorsTemperatures()
		if err != nil && len(sensors) == 0 {
			return nil, err
		}

		for _, s := range sensors {
			if s.SensorKey == key {
				return s.Temperature, nil
			}
		}

		return nil, fmt.Errorf("sensor %q not reported", key)
	}
}
