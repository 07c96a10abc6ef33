package netutil

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagicPacket(t *testing.T) {
	hw, err := net.ParseMAC("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)

	p := MagicPacket(hw)
	require.Len(t, p, 6+16*6)
	for i := 0; i < 6; i++ {
		assert.Equal(t, byte(0xFF), p[i])
	}
	for i := 0; i < 16; i++ {
		assert.Equal(t, []byte(hw), p[6+i*6:6+(i+1)*6], "repetition %d", i)
	}
}

func TestWakeOnLANBadMAC(t *testing.T) {
	assert.Error(t, WakeOnLAN("not-a-mac"))
}
