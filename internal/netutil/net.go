// Package netutil provides small network helpers: local address lookup and
// Wake-on-LAN magic packets.
package netutil

import (
	"fmt"
	"net"
)

// FirstUsableIPv4 returns the first non-loopback, non-link-local IPv4
// address of this host. Useful for logging which interface discovery
// traffic leaves from.
func FirstUsableIPv4() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipn.IP.To4()
		if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		return ip.String(), nil
	}
	return "", fmt.Errorf("no usable IPv4 address")
}
