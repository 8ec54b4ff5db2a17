// Package gpio abstracts the GPIO lines driving the Robko01 bus.
package gpio

import (
	"errors"
	"fmt"
)

// AnalogMax is the full scale value returned by ReadAnalog.
const AnalogMax = 1023

// Pin names a GPIO line, e.g. "GPIO17" on a Raspberry Pi.
type Pin string

// Level is the logic level of a line.
type Level bool

// Logic levels.
const (
	Low  Level = false
	High Level = true
)

// LevelOf converts a bit to a Level.
func LevelOf(bit byte) Level {
	return bit != 0
}

// Mode is the direction of a line.
type Mode int

// Directions.
const (
	Output Mode = iota
	Input
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case Output:
		return "output"
	case Input:
		return "input"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ErrUnknownPin indicates the backend doesn't know the pin.
var ErrUnknownPin = errors.New("unknown pin")

// Backend drives the GPIO lines.
type Backend interface {
	// Configure sets the direction of a pin.
	Configure(pin Pin, mode Mode) error
	// SetPin drives an output pin.
	SetPin(pin Pin, level Level) error
	// ReadAnalog samples an input pin, scaled to 0..AnalogMax.
	ReadAnalog(pin Pin) (int, error)
}

// PinError wraps an error with the pin.
type PinError struct {
	Pin Pin
	Err error
}

// Error implements error.
func (e *PinError) Error() string {
	return fmt.Sprintf("pin %s: %v", e.Pin, e.Err)
}
