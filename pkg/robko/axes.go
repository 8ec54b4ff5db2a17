package robko

import (
	"math"
)

// Motion defaults of the firmware.
const (
	DefaultAcceleration = 500
	// MaxSpeedMargin is added to the commanded speed to get the max speed,
	// so the profile isn't capped below the commanded speed.
	MaxSpeedMargin = 20
)

// Actuator drives one axis motor.
type Actuator interface {
	Move(relative int32)
	MoveTo(absolute int32)
	SetSpeed(speed float64)
	SetMaxSpeed(speed float64)
	SetAcceleration(accel float64)
	Run() bool
	RunSpeed() bool
	CurrentPosition() int32
	Speed() float64
	DistanceToGo() int32
	Stop()
	SetCurrentPosition(pos int32)
	EnableOutputs()
	DisableOutputs()
}

// AxisSet translates joint level commands to the axis actuators and
// collects their states. It's not safe for concurrent use: commands
// and ServiceAxis are expected from the same control loop.
type AxisSet struct {
	actuators     [AxisCount]Actuator
	mode          OperationMode
	motorState    MotorState
	motorsEnabled bool
}

// NewAxisSet creates an AxisSet. Motors start disabled in mode None.
func NewAxisSet(actuators [AxisCount]Actuator) *AxisSet {
	return &AxisSet{actuators: actuators}
}

// Actuator returns the actuator of an axis.
func (s *AxisSet) Actuator(axis Axis) Actuator {
	return s.actuators[axis]
}

// Mode returns the operation mode.
func (s *AxisSet) Mode() OperationMode {
	return s.mode
}

// MotorState returns the moving bits.
func (s *AxisSet) MotorState() MotorState {
	return s.motorState
}

// MotorsEnabled tells if the motors are enabled.
func (s *AxisSet) MotorsEnabled() bool {
	return s.motorsEnabled
}

// MoveRelative moves every axis by the position delta, limited to
// the speed of the axis.
func (s *AxisSet) MoveRelative(delta JointPosition) {
	s.mode = ModePositioning
	for n, a := range s.actuators {
		axis := Axis(n)
		// no SetSpeed here, Move computes the first step toward the target.
		a.SetMaxSpeed(maxSpeedOf(delta.Speed(axis)))
		a.Move(int32(delta.Pos(axis)))
	}
}

// MoveAbsolute moves every axis to the target position, limited to
// the speed of the axis.
func (s *AxisSet) MoveAbsolute(target JointPosition) {
	s.mode = ModePositioning
	for n, a := range s.actuators {
		axis := Axis(n)
		// no SetSpeed here, a signed speed would start the ramp in the
		// wrong direction.
		a.SetMaxSpeed(maxSpeedOf(target.Speed(axis)))
		a.MoveTo(int32(target.Pos(axis)))
	}
}

// MoveAtSpeed runs every axis at the constant speed of the axis until
// another motion command. Positions are ignored.
func (s *AxisSet) MoveAtSpeed(speeds JointPosition) {
	s.mode = ModeSpeed
	for n, a := range s.actuators {
		speed := speeds.Speed(Axis(n))
		a.SetMaxSpeed(maxSpeedOf(speed))
		a.SetSpeed(float64(speed))
	}
}

// Position snapshots positions and speeds.
func (s *AxisSet) Position() (p JointPosition) {
	for n, a := range s.actuators {
		p.Set(Axis(n), int16(a.CurrentPosition()), int16(a.Speed()))
	}
	return
}

// Positions returns the current positions.
func (s *AxisSet) Positions() (positions [AxisCount]int16) {
	for n, a := range s.actuators {
		positions[n] = int16(a.CurrentPosition())
	}
	return
}

// SetPositions redefines the current positions without moving.
func (s *AxisSet) SetPositions(positions [AxisCount]int16) {
	for n, a := range s.actuators {
		a.SetCurrentPosition(int32(positions[n]))
	}
}

// ReenableAxis disables then enables the outputs of an axis.
func (s *AxisSet) ReenableAxis(index int) {
	a := s.actuators[index]
	a.DisableOutputs()
	a.EnableOutputs()
}

// ServiceAxis advances an axis by at most one step according to the mode
// and records the result in the motor state.
func (s *AxisSet) ServiceAxis(index int) bool {
	var moving bool
	switch s.mode {
	case ModePositioning:
		moving = s.actuators[index].Run()
	case ModeSpeed:
		moving = s.actuators[index].RunSpeed()
	}
	s.motorState = s.motorState.With(Axis(index), moving)
	return moving
}

// StopAll decelerates all axes to a stop. In speed mode, the axes stop
// immediately.
func (s *AxisSet) StopAll() {
	for _, a := range s.actuators {
		a.Stop()
		if s.mode == ModeSpeed {
			a.SetSpeed(0)
		}
	}
}

// EnableAll enables all motors.
func (s *AxisSet) EnableAll() {
	for _, a := range s.actuators {
		a.EnableOutputs()
	}
	s.motorsEnabled = true
}

// DisableAll releases all motors.
func (s *AxisSet) DisableAll() {
	for _, a := range s.actuators {
		a.DisableOutputs()
	}
	s.motorsEnabled = false
}

// ZeroAll redefines the current positions as 0 without moving.
func (s *AxisSet) ZeroAll() {
	for _, a := range s.actuators {
		a.SetCurrentPosition(0)
	}
}

// maxSpeedOf adds the margin to the signed speed, so a reverse speed
// gets a lower limit. A zero result leaves the stepper limit unchanged.
func maxSpeedOf(speed int16) float64 {
	return math.Abs(float64(speed) + MaxSpeedMargin)
}
