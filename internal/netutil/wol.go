package netutil

import (
	"bytes"
	"fmt"
	"net"
)

// MagicPacket builds a Wake-on-LAN payload: six 0xFF bytes followed by the
// target MAC repeated sixteen times.
func MagicPacket(hw net.HardwareAddr) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	for i := 0; i < 16; i++ {
		b.Write(hw)
	}
	return b.Bytes()
}

// WakeOnLAN broadcasts a magic packet for mac on UDP port 9, waking a
// sleeping media server before discovery.
func WakeOnLAN(mac string) error {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return fmt.Errorf("bad MAC %q: %w", mac, err)
	}
	conn, err := net.Dial("udp4", "255.255.255.255:9")
	if err != nil {
		return fmt.Errorf("wol dial: %w", err)
	}
	defer conn.Close()
	if _, err := conn.Write(MagicPacket(hw)); err != nil {
		return fmt.Errorf("wol send: %w", err)
	}
	return nil
}
