package discovery

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lone-faerie/ps2mqtt/internal/build"
)

// Device implements the device mapping of the discovery payload. This
// ties all of one host's sensors together in the hub's device registry.
type Device struct {
	Identifiers  string `json:"identifiers"`
	Name         string `json:"name"`
	SWVersion    string `json:"sw_version,omitempty"`
	Model        string `json:"model,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
}

// NewDevice returns the Device describing this host, identified by its
// hostname.
func NewDevice() (Device, error) {
	name, err := os.Hostname()
	if err != nil {
		return Device{}, err
	}

	d := Device{
		Identifiers:  name + "_ps2mqtt",
		Name:         name,
		Model:        cases.Title(language.English).String(runtime.GOOS),
		Manufacturer: "ps2mqtt " + build.Version(),
	}

	if platform, _, version, err := host.PlatformInformation(); err == nil && platform != "" {
		d.SWVersion = platform + " " + version
	} else {
		d.SWVersion = runtime.GOOS + "/" + runtime.GOARCH
	}

	return d, nil
}
