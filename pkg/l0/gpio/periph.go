package gpio

import (
	"sync"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Periph is the Backend using periph.io drivers.
// Inputs are digital, ReadAnalog reports 0 or AnalogMax.
type Periph struct {
	lock sync.Mutex
	pins map[Pin]pgpio.PinIO
}

// NewPeriph initializes the host drivers.
func NewPeriph() (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	return &Periph{pins: make(map[Pin]pgpio.PinIO)}, nil
}

// Configure implements Backend.
func (p *Periph) Configure(pin Pin, mode Mode) error {
	io := gpioreg.ByName(string(pin))
	if io == nil {
		return &PinError{Pin: pin, Err: ErrUnknownPin}
	}
	var err error
	if mode == Output {
		err = io.Out(pgpio.Low)
	} else {
		err = io.In(pgpio.PullNoChange, pgpio.NoEdge)
	}
	if err != nil {
		return &PinError{Pin: pin, Err: err}
	}
	p.lock.Lock()
	p.pins[pin] = io
	p.lock.Unlock()
	return nil
}

// SetPin implements Backend.
func (p *Periph) SetPin(pin Pin, level Level) error {
	io, err := p.pin(pin)
	if err != nil {
		return err
	}
	if err = io.Out(pgpio.Level(level)); err != nil {
		return &PinError{Pin: pin, Err: err}
	}
	return nil
}

// ReadAnalog implements Backend.
func (p *Periph) ReadAnalog(pin Pin) (int, error) {
	io, err := p.pin(pin)
	if err != nil {
		return 0, err
	}
	if io.Read() == pgpio.High {
		return AnalogMax, nil
	}
	return 0, nil
}

func (p *Periph) pin(pin Pin) (pgpio.PinIO, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if io := p.pins[pin]; io != nil {
		return io, nil
	}
	return nil, &PinError{Pin: pin, Err: ErrUnknownPin}
}
