package bus

import "fmt"

// AxisServicer updates the axis drivers behind addresses 0..5.
type AxisServicer interface {
	// ReenableAxis disables then enables the axis outputs.
	ReenableAxis(index int)
	// ServiceAxis advances the axis by at most one step and returns
	// whether it's moving (positioning) or just stepped (speed).
	ServiceAxis(index int) bool
}

// Scheduler services one address per Tick in round-robin order.
type Scheduler struct {
	Bus   *AddressBus
	Axes  AxisServicer
	PortA *PortA

	current Address
}

// NewScheduler creates a Scheduler starting at address 0.
func NewScheduler(b *AddressBus, axes AxisServicer, portA *PortA) *Scheduler {
	return &Scheduler{Bus: b, Axes: axes, PortA: portA}
}

// Current returns the address serviced by the next Tick.
func (s *Scheduler) Current() Address {
	return s.current
}

// Tick services the current address and advances to the next one.
// Every address is serviced exactly once per AddressCount ticks.
// The index advances even if the bus reports an error.
func (s *Scheduler) Tick() error {
	addr := s.current
	if s.current++; s.current >= AddressCount {
		s.current = 0
	}
	if err := s.service(addr); err != nil {
		return fmt.Errorf("bus address %s: %v", addr, err)
	}
	return nil
}

func (s *Scheduler) service(addr Address) error {
	if addr.IsAxis() {
		s.Axes.ReenableAxis(int(addr))
		if err := s.Bus.Select(addr); err != nil {
			return err
		}
		s.Axes.ServiceAxis(int(addr))
		return s.Bus.StrobeWrite()
	}
	if err := s.Bus.Select(addr); err != nil {
		return err
	}
	if err := s.PortA.Service(s.Bus, addr); err != nil {
		return err
	}
	if err := s.Bus.StrobeWrite(); err != nil {
		return err
	}
	return s.Bus.StrobeRead()
}
