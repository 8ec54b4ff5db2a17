package gpio

import "sync"

// Write is a recorded SetPin call.
type Write struct {
	Pin   Pin
	Level Level
}

// Fake is an in-memory Backend recording every write.
type Fake struct {
	// Analog values returned by ReadAnalog, keyed by pin.
	Analog map[Pin]int
	// OnWrite, if set, is called after each SetPin.
	OnWrite func(Pin, Level)

	lock   sync.Mutex
	modes  map[Pin]Mode
	levels map[Pin]Level
	writes []Write
}

// NewFake creates a Fake.
func NewFake() *Fake {
	return &Fake{
		Analog: make(map[Pin]int),
		modes:  make(map[Pin]Mode),
		levels: make(map[Pin]Level),
	}
}

// Configure implements Backend.
func (f *Fake) Configure(pin Pin, mode Mode) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.modes[pin] = mode
	return nil
}

// SetPin implements Backend.
func (f *Fake) SetPin(pin Pin, level Level) error {
	f.lock.Lock()
	if mode, ok := f.modes[pin]; !ok || mode != Output {
		f.lock.Unlock()
		return &PinError{Pin: pin, Err: ErrUnknownPin}
	}
	f.levels[pin] = level
	f.writes = append(f.writes, Write{Pin: pin, Level: level})
	fn := f.OnWrite
	f.lock.Unlock()
	if fn != nil {
		fn(pin, level)
	}
	return nil
}

// ReadAnalog implements Backend.
func (f *Fake) ReadAnalog(pin Pin) (int, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if mode, ok := f.modes[pin]; !ok || mode != Input {
		return 0, &PinError{Pin: pin, Err: ErrUnknownPin}
	}
	return f.Analog[pin], nil
}

// Mode returns the configured mode of a pin.
func (f *Fake) Mode(pin Pin) (Mode, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	mode, ok := f.modes[pin]
	return mode, ok
}

// Level returns the last level written to a pin.
func (f *Fake) Level(pin Pin) Level {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.levels[pin]
}

// Writes returns and clears the recorded writes.
func (f *Fake) Writes() []Write {
	f.lock.Lock()
	defer f.lock.Unlock()
	writes := f.writes
	f.writes = nil
	return writes
}
