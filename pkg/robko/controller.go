package robko

import (
	"time"

	fx "github.com/robotalks/robko.go/pkg/framework"
	"github.com/robotalks/robko.go/pkg/l0/bus"
	"github.com/robotalks/robko.go/pkg/l0/gpio"
	"github.com/robotalks/robko.go/pkg/stepper"
)

// DefaultUpdateRate is the minimum interval between two bus ticks.
const DefaultUpdateRate = time.Millisecond

// State is a snapshot of the controller.
type State struct {
	Position     JointPosition `json:"position"`
	MotorState   MotorState    `json:"motor-state"`
	Mode         string        `json:"mode"`
	Enabled      bool          `json:"enabled"`
	PortAIn      byte          `json:"porta-in"`
	PortAOut     byte          `json:"porta-out"`
	SerialNumber uint32        `json:"serial"`
}

// Controller owns the device state: the bus, the axes and Port A.
// All methods are expected to be called from the control loop.
type Controller struct {
	Bus       *bus.AddressBus
	PortA     *bus.PortA
	Axes      *AxisSet
	Scheduler *bus.Scheduler
	Settings  Settings
	// UpdateRate is the minimum interval between bus ticks.
	UpdateRate time.Duration

	steppers [AxisCount]*stepper.Stepper
	nextTick time.Time
	ticked   bool
}

// NewController creates a Controller driving the bus through the backend.
// The clock times the motor steps.
func NewController(backend gpio.Backend, pins gpio.PinMap, clock fx.TimeSource) *Controller {
	b := bus.NewAddressBus(backend, pins)
	c := &Controller{Bus: b, PortA: &bus.PortA{}, UpdateRate: DefaultUpdateRate}
	var actuators [AxisCount]Actuator
	for n := range c.steppers {
		c.steppers[n] = stepper.New(b, clock)
		actuators[n] = c.steppers[n]
	}
	c.Axes = NewAxisSet(actuators)
	c.Scheduler = bus.NewScheduler(b, c.Axes, c.PortA)
	return c
}

// Stepper returns the stepper of an axis.
func (c *Controller) Stepper(axis Axis) *stepper.Stepper {
	return c.steppers[axis]
}

// Setup configures the bus, resets the axes and latches the idle
// pattern into every axis register. Motors are left disabled.
func (c *Controller) Setup() error {
	if err := c.Bus.Setup(); err != nil {
		return err
	}
	for n, s := range c.steppers {
		s.SetAcceleration(DefaultAcceleration)
		s.SetCurrentPosition(0)
		s.Stop()
		s.EnableOutputs()
		if err := c.Bus.Select(bus.Address(n)); err != nil {
			return err
		}
		if err := c.Bus.StrobeWrite(); err != nil {
			return err
		}
	}
	c.Axes.motorsEnabled = false
	c.Axes.motorState = 0
	return nil
}

// Tick services the next bus address.
func (c *Controller) Tick() error {
	return c.Scheduler.Tick()
}

// Control implements fx.Controller.
// Ticks are scheduled every UpdateRate from the first one, so a late
// iteration is caught up by the following ones. A backlog of one bus
// revolution or more is dropped.
func (c *Controller) Control(cc fx.ControlContext) error {
	now := cc.Time()
	if c.ticked && now.Before(c.nextTick) {
		return nil
	}
	if !c.ticked || now.Sub(c.nextTick) >= bus.AddressCount*c.UpdateRate {
		c.nextTick = now
	}
	c.nextTick, c.ticked = c.nextTick.Add(c.UpdateRate), true
	return c.Tick()
}

// AddToLoop implements fx.LoopAdder.
func (c *Controller) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvAcuate, c)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	return State{
		Position:     c.Axes.Position(),
		MotorState:   c.Axes.MotorState(),
		Mode:         c.Axes.Mode().String(),
		Enabled:      c.Axes.MotorsEnabled(),
		PortAIn:      c.PortA.Input(),
		PortAOut:     c.PortA.Output(),
		SerialNumber: c.Settings.SerialNumber,
	}
}

// SavePositions copies the axis positions into the settings.
func (c *Controller) SavePositions() [AxisCount]int16 {
	c.Settings.Positions = c.Axes.Positions()
	return c.Settings.Positions
}

// LoadPositions redefines the axis positions from the settings.
func (c *Controller) LoadPositions() [AxisCount]int16 {
	c.Axes.SetPositions(c.Settings.Positions)
	return c.Settings.Positions
}
