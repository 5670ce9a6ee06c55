package dial

import (
	"encoding/xml"
	"fmt"
	"strings"
)

type rootNode struct {
	XMLName xml.Name `xml:"root"`
	Device  struct {
		DeviceType   string `xml:"deviceType"`
		FriendlyName string `xml:"friendlyName"`
		Manufacturer string `xml:"manufacturer"`
		ModelName    string `xml:"modelName"`
		UDN          string `xml:"UDN"`
	} `xml:"device"`
}

type serviceNode struct {
	XMLName xml.Name `xml:"service"`
	DialVer string   `xml:"dialVer,attr"`
	Name    string   `xml:"name"`
	Options struct {
		AllowStop string `xml:"allowStop,attr"`
	} `xml:"options"`
	State string `xml:"state"`
	Link  struct {
		Rel  string `xml:"rel,attr"`
		Href string `xml:"href,attr"`
	} `xml:"link"`
}

// AppInfo is the application status document a DIAL server returns.
type AppInfo struct {
	Name      string
	State     string
	AllowStop bool
	RunHref   string
	DialVer   string
}

// Running reports whether the application currently has an instance.
func (a *AppInfo) Running() bool {
	return strings.EqualFold(a.State, "running")
}

func parseDeviceDescriptor(body []byte, d *Device) error {
	var root rootNode
	if err := xml.Unmarshal(body, &root); err != nil {
		return fmt.Errorf("parseDeviceDescriptor unmarshal error: %w", err)
	}

	d.DeviceType = strings.TrimSpace(root.Device.DeviceType)
	d.FriendlyName = strings.TrimSpace(root.Device.FriendlyName)
	d.Manufacturer = strings.TrimSpace(root.Device.Manufacturer)
	d.ModelName = strings.TrimSpace(root.Device.ModelName)
	d.UDN = strings.TrimSpace(root.Device.UDN)

	return nil
}

func parseAppInfo(body []byte) (*AppInfo, error) {
	var s serviceNode
	if err := xml.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("parseAppInfo unmarshal error: %w", err)
	}

	info := &AppInfo{
		Name:      strings.TrimSpace(s.Name),
		State:     strings.TrimSpace(s.State),
		AllowStop: strings.EqualFold(s.Options.AllowStop, "true"),
		DialVer:   s.DialVer,
	}

	if s.Link.Rel == "run" {
		info.RunHref = s.Link.Href
	}

	return info, nil
}
