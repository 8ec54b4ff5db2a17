package serial

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	require.Equal(t, "/dev/ttyUSB0", cfg.Device)
	require.Equal(t, 115200, cfg.BaudRate)
	require.Equal(t, DefaultReadTimeout, cfg.ReadTimeout)
}

func TestPortInfoString(t *testing.T) {
	require.Equal(t, "/dev/ttyS0", PortInfo{Name: "/dev/ttyS0"}.String())
	info := PortInfo{Name: "/dev/ttyACM0", USB: true, VID: "2341", PID: "0043", SerialNumber: "7533", Product: "Arduino Uno"}
	require.Equal(t, "/dev/ttyACM0 2341:0043 7533 Arduino Uno", info.String())
}
