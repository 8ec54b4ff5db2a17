package bus

import (
	"fmt"
	"time"

	"github.com/robotalks/robko.go/pkg/l0/gpio"
)

const (
	// DefaultSettle is how long a strobe is held asserted.
	DefaultSettle = 500 * time.Microsecond

	// inputThreshold is the analog midpoint separating low from high.
	inputThreshold = 512
)

// AddressBus signals the bus lines. It has no knowledge about what
// is behind an address.
type AddressBus struct {
	Backend gpio.Backend
	Pins    gpio.PinMap
	// Settle is the time a strobe is held low. Shortening it risks
	// missed latches on the real hardware.
	Settle time.Duration
	// Sleep waits for Settle, replaceable in tests.
	Sleep func(time.Duration)
}

// NewAddressBus creates an AddressBus.
func NewAddressBus(backend gpio.Backend, pins gpio.PinMap) *AddressBus {
	return &AddressBus{
		Backend: backend,
		Pins:    pins,
		Settle:  DefaultSettle,
		Sleep:   time.Sleep,
	}
}

// Setup configures the pin directions and releases both strobes.
func (b *AddressBus) Setup() error {
	for _, pin := range b.Pins.Outputs() {
		if err := b.Backend.Configure(pin, gpio.Output); err != nil {
			return err
		}
	}
	for _, pin := range b.Pins.Inputs() {
		if err := b.Backend.Configure(pin, gpio.Input); err != nil {
			return err
		}
	}
	if err := b.Backend.SetPin(b.Pins.IOW, gpio.High); err != nil {
		return err
	}
	return b.Backend.SetPin(b.Pins.IOR, gpio.High)
}

// Select drives the address lines.
func (b *AddressBus) Select(addr Address) error {
	if !addr.IsValid() {
		return fmt.Errorf("invalid bus address %d", byte(addr))
	}
	for n, pin := range b.Pins.AO {
		if err := b.Backend.SetPin(pin, gpio.LevelOf(byte(addr)>>uint(n)&1)); err != nil {
			return err
		}
	}
	return nil
}

// StrobeWrite pulses IO-Write, latching the output nibble into the
// selected address.
func (b *AddressBus) StrobeWrite() error {
	return b.strobe(b.Pins.IOW)
}

// StrobeRead pulses IO-Read.
func (b *AddressBus) StrobeRead() error {
	return b.strobe(b.Pins.IOR)
}

// ReadInputNibble samples the 4 input lines.
func (b *AddressBus) ReadInputNibble() (byte, error) {
	var v byte
	for n, pin := range b.Pins.DO {
		val, err := b.Backend.ReadAnalog(pin)
		if err != nil {
			return 0, err
		}
		if val > inputThreshold {
			v |= 1 << uint(n)
		}
	}
	return v, nil
}

// WriteOutputNibble drives the 4 output lines from the low 4 bits of v.
func (b *AddressBus) WriteOutputNibble(v byte) error {
	for n, pin := range b.Pins.DI {
		if err := b.Backend.SetPin(pin, gpio.LevelOf(v>>uint(n)&1)); err != nil {
			return err
		}
	}
	return nil
}

func (b *AddressBus) strobe(pin gpio.Pin) error {
	if err := b.Backend.SetPin(pin, gpio.Low); err != nil {
		return err
	}
	if b.Settle > 0 && b.Sleep != nil {
		b.Sleep(b.Settle)
	}
	return b.Backend.SetPin(pin, gpio.High)
}
