package utils

import (
	"fmt"
	"net"
	"net/url"
	"time"
)

// GetOutboundIP gets the preferred outbound IP of this machine
func GetOutboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)

	return localAddr.IP.String()
}

// HostFromURL returns the bare host of u, without scheme or port.
func HostFromURL(u string) (string, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return "", fmt.Errorf("HostFromURL parse error: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		return "", fmt.Errorf("HostFromURL: no host in %q", u)
	}

	return host, nil
}

// HostPortIsAlive reports whether a TCP connection to h succeeds
// within two seconds.
func HostPortIsAlive(h string) bool {
	conn, err := net.DialTimeout("tcp", h, time.Duration(2*time.Second))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// ActiveInterfaces returns the interfaces that are up, multicast-capable,
// not loopback, and have an IPv4 address.
func ActiveInterfaces() []net.Interface {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var active []net.Interface
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 ||
			iface.Flags&net.FlagLoopback != 0 ||
			iface.Flags&net.FlagMulticast == 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil && !ipnet.IP.IsLoopback() {
				active = append(active, iface)
				break
			}
		}
	}

	return active
}
