package devices

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alexballas/go-ssdp"
	"github.com/pkg/errors"
	"tvcast.app/tvcast/dial"
)

// DIALSearchTarget is the SSDP search target DIAL receivers answer to.
const DIALSearchTarget = "urn:dial-multiscreen-org:service:dial:1"

const (
	DeviceTypeDIAL       = "DIAL"
	DeviceTypeChromecast = "Chromecast"
)

const descriptorTimeout = 3 * time.Second

var (
	ErrNoDeviceAvailable  = errors.New("loadSSDPservices: No available DIAL receivers")
	ErrDeviceNotAvailable = errors.New("devicePicker: Requested device not available")
)

var (
	ssdpSearch             = ssdp.Search
	loadDeviceFromLocation = func(ctx context.Context, location string) (*dial.Device, error) {
		return dial.NewClient(0, nil).GetDevice(ctx, location)
	}
)

// Device is a receiver found on the local network. Addr is the DIAL
// descriptor URL for DIAL receivers and host:port for cast devices.
type Device struct {
	Name           string
	Addr           string
	Type           string
	ApplicationURL string
	IsAudioOnly    bool
}

// LoadSSDPservices searches for DIAL receivers for delay seconds and
// returns the ones whose descriptor resolves, sorted by name.
func LoadSSDPservices(delay int) ([]Device, error) {
	list, err := ssdpSearch(DIALSearchTarget, delay, "")
	if err != nil {
		return nil, fmt.Errorf("LoadSSDPservices search error: %w", err)
	}

	seen := make(map[string]struct{})
	var out []Device

	for _, srv := range list {
		if srv.Type != DIALSearchTarget || srv.Location == "" {
			continue
		}

		if _, ok := seen[srv.Location]; ok {
			continue
		}
		seen[srv.Location] = struct{}{}

		ctx, cancel := context.WithTimeout(context.Background(), descriptorTimeout)
		d, err := loadDeviceFromLocation(ctx, srv.Location)
		cancel()
		if err != nil {
			continue
		}

		out = append(out, Device{
			Name:           d.Name(),
			Addr:           srv.Location,
			Type:           DeviceTypeDIAL,
			ApplicationURL: d.ApplicationURL,
		})
	}

	if len(out) == 0 {
		return nil, ErrNoDeviceAvailable
	}

	sortDevices(out)

	return out, nil
}

// DevicePicker returns the address of the nth device, counting from 1.
func DevicePicker(devices []Device, n int) (string, error) {
	if n > len(devices) || len(devices) == 0 || n <= 0 {
		return "", ErrDeviceNotAvailable
	}

	return devices[n-1].Addr, nil
}

func sortDevices(devs []Device) {
	sort.Slice(devs, func(i, j int) bool {
		if devs[i].Name != devs[j].Name {
			return devs[i].Name < devs[j].Name
		}
		return devs[i].Addr < devs[j].Addr
	})
}
