package devices

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
	"tvcast.app/tvcast/utils"
)

const (
	// CapabilityVideoOut is the bitmask for video output capability (bit 0)
	CapabilityVideoOut = 1

	googlecastService = "_googlecast._tcp"
	// DefaultCastTimeout is the mDNS query timeout per interface.
	DefaultCastTimeout = 750 * time.Millisecond
)

var mdnsQuery = mdns.QueryContext

// castDeviceFromEntry turns an mDNS answer into a Device. Entries that are
// not Google Cast services or carry no IPv4 address are rejected.
func castDeviceFromEntry(entry *mdns.ServiceEntry) (Device, bool) {
	if entry == nil || entry.AddrV4 == nil {
		return Device{}, false
	}
	if !strings.Contains(entry.Name, "_googlecast") {
		return Device{}, false
	}

	friendlyName := entry.Name
	isAudioOnly := false

	for _, txt := range entry.InfoFields {
		if after, ok := strings.CutPrefix(txt, "fn="); ok {
			friendlyName = after
		}
		if after, ok := strings.CutPrefix(txt, "ca="); ok {
			isAudioOnly = isChromecastAudioOnly(after)
		}
	}

	if idx := strings.Index(friendlyName, "._googlecast"); idx > 0 {
		friendlyName = friendlyName[:idx]
	}

	return Device{
		Name:        friendlyName,
		Addr:        net.JoinHostPort(entry.AddrV4.String(), strconv.Itoa(entry.Port)),
		Type:        DeviceTypeChromecast,
		IsAudioOnly: isAudioOnly,
	}, true
}

// LoadCastDevices browses for Google Cast receivers on every active
// interface and returns what answered within timeout, sorted by name.
func LoadCastDevices(ctx context.Context, timeout time.Duration) ([]Device, error) {
	if timeout <= 0 {
		timeout = DefaultCastTimeout
	}

	entriesCh := make(chan *mdns.ServiceEntry, 256)
	found := make(map[string]Device)
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		for entry := range entriesCh {
			if d, ok := castDeviceFromEntry(entry); ok {
				found[d.Addr] = d
			}
		}
	}()

	queryIface := func(iface *net.Interface) {
		params := mdns.DefaultParams(googlecastService)
		params.Entries = entriesCh
		params.Timeout = timeout
		params.DisableIPv6 = true
		params.WantUnicastResponse = true
		params.Logger = log.New(io.Discard, "", 0)
		params.Interface = iface
		_ = mdnsQuery(ctx, params)
	}

	interfaces := utils.ActiveInterfaces()
	if len(interfaces) > 0 {
		var wg sync.WaitGroup
		for _, iface := range interfaces {
			wg.Add(1)
			go func(iface net.Interface) {
				defer wg.Done()
				queryIface(&iface)
			}(iface)
		}
		wg.Wait()
	} else {
		queryIface(nil)
	}

	close(entriesCh)
	<-doneCh

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("LoadCastDevices: %w", err)
	}

	out := make([]Device, 0, len(found))
	for _, d := range found {
		out = append(out, d)
	}

	if len(out) == 0 {
		return nil, ErrNoDeviceAvailable
	}

	sortDevices(out)

	return out, nil
}

// FirstVideoDevice picks the first cast device able to show video.
func FirstVideoDevice(devs []Device) (Device, error) {
	for _, d := range devs {
		if d.Type == DeviceTypeChromecast && !d.IsAudioOnly {
			return d, nil
		}
	}

	return Device{}, ErrDeviceNotAvailable
}

// isChromecastAudioOnly checks the "ca" capability bitmask. A device without
// bit 0 (video out) is audio-only; unparsable values count as video devices.
func isChromecastAudioOnly(caField string) bool {
	ca, err := strconv.Atoi(caField)
	if err != nil {
		return false
	}
	return (ca & CapabilityVideoOut) == 0
}
