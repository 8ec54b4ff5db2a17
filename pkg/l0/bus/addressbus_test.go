package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/robko.go/pkg/l0/gpio"
)

func newFakeBus(t *testing.T) (*AddressBus, *gpio.Fake, *[]time.Duration) {
	fake := gpio.NewFake()
	b := NewAddressBus(fake, gpio.DefaultPinMap)
	var sleeps []time.Duration
	b.Sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	require.NoError(t, b.Setup())
	fake.Writes()
	return b, fake, &sleeps
}

func TestSetupConfiguresPins(t *testing.T) {
	fake := gpio.NewFake()
	b := NewAddressBus(fake, gpio.DefaultPinMap)
	require.NoError(t, b.Setup())
	for _, pin := range gpio.DefaultPinMap.Outputs() {
		mode, ok := fake.Mode(pin)
		require.True(t, ok, "pin %s", pin)
		require.Equal(t, gpio.Output, mode, "pin %s", pin)
	}
	for _, pin := range gpio.DefaultPinMap.Inputs() {
		mode, ok := fake.Mode(pin)
		require.True(t, ok, "pin %s", pin)
		require.Equal(t, gpio.Input, mode, "pin %s", pin)
	}
	require.Equal(t, gpio.High, fake.Level(gpio.DefaultPinMap.IOW))
	require.Equal(t, gpio.High, fake.Level(gpio.DefaultPinMap.IOR))
}

func TestSelect(t *testing.T) {
	b, fake, _ := newFakeBus(t)
	pins := gpio.DefaultPinMap.AO
	for addr := Address(0); addr < AddressCount; addr++ {
		require.NoError(t, b.Select(addr))
		require.Equal(t, []gpio.Write{
			{Pin: pins[0], Level: gpio.LevelOf(byte(addr) & 1)},
			{Pin: pins[1], Level: gpio.LevelOf(byte(addr) >> 1 & 1)},
			{Pin: pins[2], Level: gpio.LevelOf(byte(addr) >> 2 & 1)},
		}, fake.Writes(), "address %d", addr)
	}
	require.Error(t, b.Select(AddressCount))
}

func TestStrobes(t *testing.T) {
	b, fake, sleeps := newFakeBus(t)
	require.NoError(t, b.StrobeWrite())
	require.NoError(t, b.StrobeRead())
	iow, ior := gpio.DefaultPinMap.IOW, gpio.DefaultPinMap.IOR
	require.Equal(t, []gpio.Write{
		{Pin: iow, Level: gpio.Low},
		{Pin: iow, Level: gpio.High},
		{Pin: ior, Level: gpio.Low},
		{Pin: ior, Level: gpio.High},
	}, fake.Writes())
	require.Equal(t, []time.Duration{DefaultSettle, DefaultSettle}, *sleeps)
}

func TestNibbles(t *testing.T) {
	b, fake, _ := newFakeBus(t)
	require.NoError(t, b.WriteOutputNibble(0xf5))
	di := gpio.DefaultPinMap.DI
	require.Equal(t, []gpio.Write{
		{Pin: di[0], Level: gpio.High},
		{Pin: di[1], Level: gpio.Low},
		{Pin: di[2], Level: gpio.High},
		{Pin: di[3], Level: gpio.Low},
	}, fake.Writes())

	do := gpio.DefaultPinMap.DO
	fake.Analog[do[0]] = 1023
	fake.Analog[do[1]] = 512 // not above the threshold
	fake.Analog[do[2]] = 0
	fake.Analog[do[3]] = 513
	v, err := b.ReadInputNibble()
	require.NoError(t, err)
	require.Equal(t, byte(0x09), v)
}
