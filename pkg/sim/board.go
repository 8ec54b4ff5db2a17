// Package sim simulates the Robko01 interface board behind the bus.
package sim

import (
	"fmt"
	"sync"

	"github.com/robotalks/robko.go/pkg/l0/gpio"
	"github.com/robotalks/robko.go/pkg/stepper"
)

const (
	addressCount = 8
	axisCount    = 6
	portALow     = 6
	portAHigh    = 7
)

// Latch records one IO-Write strobe.
type Latch struct {
	Address byte
	Value   byte
}

// Board is a gpio.Backend behaving like the Robko01 interface board:
// on the rising edge of IO-Write the output nibble is latched into the
// addressed register. Axis registers drive the motor coils, so coil
// phase transitions are counted as physical steps. Port A inputs are
// either injected or looped back from the Port A outputs.
type Board struct {
	Pins gpio.PinMap
	// Loopback wires Port A outputs to Port A inputs.
	Loopback bool

	lock    sync.Mutex
	modes   map[gpio.Pin]gpio.Mode
	levels  map[gpio.Pin]gpio.Level
	latches [addressCount]byte
	phases  [axisCount]int
	steps   [axisCount]int32
	missed  [axisCount]int
	portAIn [2]byte
	history []Latch
	reads   int
}

// NewBoard creates a Board wired with the pin map.
// All motors are assumed at rest on phase 0.
func NewBoard(pins gpio.PinMap) *Board {
	return &Board{
		Pins:   pins,
		modes:  make(map[gpio.Pin]gpio.Mode),
		levels: make(map[gpio.Pin]gpio.Level),
	}
}

// Configure implements gpio.Backend.
func (b *Board) Configure(pin gpio.Pin, mode gpio.Mode) error {
	if !b.known(pin) {
		return &gpio.PinError{Pin: pin, Err: gpio.ErrUnknownPin}
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	b.modes[pin] = mode
	if mode == gpio.Output {
		b.levels[pin] = gpio.Low
	}
	return nil
}

// SetPin implements gpio.Backend.
func (b *Board) SetPin(pin gpio.Pin, level gpio.Level) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if mode, ok := b.modes[pin]; !ok || mode != gpio.Output {
		return &gpio.PinError{Pin: pin, Err: fmt.Errorf("not an output")}
	}
	prev := b.levels[pin]
	b.levels[pin] = level
	if prev == gpio.Low && level == gpio.High {
		switch pin {
		case b.Pins.IOW:
			b.latch(b.address(), b.nibble(b.Pins.DI))
		case b.Pins.IOR:
			b.reads++
		}
	}
	return nil
}

// ReadAnalog implements gpio.Backend.
func (b *Board) ReadAnalog(pin gpio.Pin) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if mode, ok := b.modes[pin]; !ok || mode != gpio.Input {
		return 0, &gpio.PinError{Pin: pin, Err: fmt.Errorf("not an input")}
	}
	var in byte
	switch addr := b.address(); addr {
	case portALow, portAHigh:
		if b.Loopback {
			in = b.latches[addr]
		} else {
			in = b.portAIn[addr-portALow]
		}
	}
	for n, p := range b.Pins.DO {
		if p == pin && in&(1<<uint(n)) != 0 {
			return gpio.AnalogMax, nil
		}
	}
	return 0, nil
}

// SetPortAInput injects the byte presented on Port A inputs.
func (b *Board) SetPortAInput(v byte) {
	b.lock.Lock()
	b.portAIn[0], b.portAIn[1] = v&0x0f, v>>4
	b.lock.Unlock()
}

// PortAOutput combines the latched Port A nibbles.
func (b *Board) PortAOutput() byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.latches[portALow]&0x0f | b.latches[portAHigh]<<4
}

// Address returns the address currently selected.
func (b *Board) Address() byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.address()
}

// Latched returns the last value latched at an address.
func (b *Board) Latched(addr byte) byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.latches[addr%addressCount]
}

// Steps returns the physical steps counted on an axis.
func (b *Board) Steps(axis int) int32 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.steps[axis]
}

// MissedSteps counts coil transitions skipping a phase,
// which a real motor can't follow.
func (b *Board) MissedSteps(axis int) int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.missed[axis]
}

// Reads counts IO-Read strobes.
func (b *Board) Reads() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.reads
}

// History returns and clears the IO-Write latch history.
func (b *Board) History() []Latch {
	b.lock.Lock()
	defer b.lock.Unlock()
	h := b.history
	b.history = nil
	return h
}

func (b *Board) known(pin gpio.Pin) bool {
	for _, p := range append(b.Pins.Outputs(), b.Pins.Inputs()...) {
		if p == pin {
			return true
		}
	}
	return false
}

func (b *Board) address() byte {
	var addr byte
	for n, pin := range b.Pins.AO {
		if b.levels[pin] == gpio.High {
			addr |= 1 << uint(n)
		}
	}
	return addr
}

func (b *Board) nibble(pins [4]gpio.Pin) byte {
	var v byte
	for n, pin := range pins {
		if b.levels[pin] == gpio.High {
			v |= 1 << uint(n)
		}
	}
	return v
}

func (b *Board) latch(addr, v byte) {
	b.latches[addr] = v
	b.history = append(b.history, Latch{Address: addr, Value: v})
	if addr >= axisCount {
		return
	}
	phase := stepper.PatternPhase(v)
	if phase < 0 {
		// coils released, the rotor holds its phase.
		return
	}
	switch (phase - b.phases[addr] + 4) % 4 {
	case 1:
		b.steps[addr]++
	case 3:
		b.steps[addr]--
	case 2:
		b.missed[addr]++
	}
	b.phases[addr] = phase
}
