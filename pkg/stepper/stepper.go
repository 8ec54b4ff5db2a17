// Package stepper implements an acceleration-profiled driver for a
// 4-wire (full step) stepper motor.
//
// Positioning follows the constant acceleration step interval recurrence
// described in "Generate stepper-motor speed profiles in real time"
// (D. Austin, 2005): the first interval is c0 = 0.676*sqrt(2/a), every
// following one is cn = cn-1 - 2*cn-1/(4n+1), bounded by the maximum speed.
package stepper

import (
	"math"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/robko.go/pkg/framework"
)

// Outputs receives the coil pattern, one bit per coil.
type Outputs interface {
	WriteOutputNibble(byte) error
}

// Direction of rotation.
type Direction int

// Directions.
const (
	CCW Direction = iota // position decreases
	CW                   // position increases
)

// coil patterns of full steps, indexed by position&3.
var fullStepPatterns = [4]byte{0x05, 0x06, 0x0a, 0x09}

// PatternPhase returns the step phase (0..3) of a coil pattern,
// or -1 if the pattern is not a full step pattern.
func PatternPhase(pattern byte) int {
	for n, p := range fullStepPatterns {
		if p == pattern&0x0f {
			return n
		}
	}
	return -1
}

// Stepper drives one stepper motor.
// It's not safe for concurrent use.
type Stepper struct {
	Outputs Outputs
	Clock   fx.TimeSource

	currentPos   int32
	targetPos    int32
	speed        float64 // steps per second, negative is CCW
	maxSpeed     float64
	acceleration float64
	stepInterval time.Duration
	lastStepTime time.Time
	direction    Direction
	enabled      bool

	n    int64   // step counter of the acceleration ramp, negative when decelerating
	c0   float64 // initial step interval in microseconds
	cn   float64 // last step interval in microseconds
	cmin float64 // minimum step interval (maximum speed) in microseconds
}

// New creates a Stepper with max speed and acceleration of 1.
func New(out Outputs, clock fx.TimeSource) *Stepper {
	if clock == nil {
		clock = fx.WallClock
	}
	s := &Stepper{Outputs: out, Clock: clock, enabled: true}
	s.SetAcceleration(1)
	s.SetMaxSpeed(1)
	return s
}

// MoveTo sets the absolute target position.
func (s *Stepper) MoveTo(absolute int32) {
	if s.targetPos != absolute {
		s.targetPos = absolute
		s.computeNewSpeed()
	}
}

// Move sets the target position relative to the current position.
func (s *Stepper) Move(relative int32) {
	s.MoveTo(s.currentPos + relative)
}

// SetMaxSpeed sets the maximum speed in steps per second.
func (s *Stepper) SetMaxSpeed(speed float64) {
	speed = math.Abs(speed)
	if speed == 0 || s.maxSpeed == speed {
		return
	}
	s.maxSpeed = speed
	s.cmin = 1e6 / speed
	if s.n > 0 {
		// recompute the ramp position for the new speed.
		s.n = int64((s.speed * s.speed) / (2 * s.acceleration))
		s.computeNewSpeed()
	}
}

// MaxSpeed returns the maximum speed.
func (s *Stepper) MaxSpeed() float64 {
	return s.maxSpeed
}

// SetAcceleration sets the acceleration in steps per second per second.
// Zero is ignored.
func (s *Stepper) SetAcceleration(accel float64) {
	accel = math.Abs(accel)
	if accel == 0 || s.acceleration == accel {
		return
	}
	if s.acceleration != 0 {
		s.n = int64(float64(s.n) * (s.acceleration / accel))
	}
	s.c0 = 0.676 * math.Sqrt(2.0/accel) * 1e6
	s.acceleration = accel
	s.computeNewSpeed()
}

// Acceleration returns the acceleration.
func (s *Stepper) Acceleration() float64 {
	return s.acceleration
}

// SetSpeed sets the constant speed used by RunSpeed, bounded by the
// maximum speed.
func (s *Stepper) SetSpeed(speed float64) {
	if speed == s.speed {
		return
	}
	speed = math.Max(-s.maxSpeed, math.Min(s.maxSpeed, speed))
	if speed == 0 {
		s.stepInterval = 0
	} else {
		s.stepInterval = time.Duration(math.Abs(1e6/speed) * float64(time.Microsecond))
		if speed > 0 {
			s.direction = CW
		} else {
			s.direction = CCW
		}
	}
	s.speed = speed
}

// Speed returns the current speed.
func (s *Stepper) Speed() float64 {
	return s.speed
}

// CurrentPosition returns the current position in steps.
func (s *Stepper) CurrentPosition() int32 {
	return s.currentPos
}

// TargetPosition returns the target position in steps.
func (s *Stepper) TargetPosition() int32 {
	return s.targetPos
}

// DistanceToGo returns the steps from current to target position.
func (s *Stepper) DistanceToGo() int32 {
	return s.targetPos - s.currentPos
}

// SetCurrentPosition redefines the current position without moving.
// The motor is considered stopped afterwards.
func (s *Stepper) SetCurrentPosition(pos int32) {
	s.targetPos, s.currentPos = pos, pos
	s.n = 0
	s.stepInterval = 0
	s.speed = 0
}

// Stop sets a target so the motor decelerates to a stop as fast as the
// acceleration allows.
func (s *Stepper) Stop() {
	if s.speed == 0 {
		return
	}
	stepsToStop := int32((s.speed*s.speed)/(2*s.acceleration)) + 1
	if s.speed > 0 {
		s.Move(stepsToStop)
	} else {
		s.Move(-stepsToStop)
	}
}

// EnableOutputs marks the outputs enabled.
func (s *Stepper) EnableOutputs() {
	s.enabled = true
}

// DisableOutputs releases all coils.
func (s *Stepper) DisableOutputs() {
	s.enabled = false
	s.write(0)
}

// Enabled indicates the outputs are enabled.
func (s *Stepper) Enabled() bool {
	return s.enabled
}

// RunSpeed issues a step if a step interval elapsed since the last step.
// It returns true if a step was issued.
func (s *Stepper) RunSpeed() bool {
	if s.stepInterval == 0 {
		return false
	}
	now := s.Clock.Time()
	if now.Sub(s.lastStepTime) < s.stepInterval {
		return false
	}
	if s.direction == CW {
		s.currentPos++
	} else {
		s.currentPos--
	}
	s.write(fullStepPatterns[s.currentPos&3])
	s.lastStepTime = now
	return true
}

// Run steps towards the target with acceleration and deceleration.
// It returns true while the motor is still running to the target.
func (s *Stepper) Run() bool {
	if s.RunSpeed() {
		s.computeNewSpeed()
	}
	return s.speed != 0 || s.DistanceToGo() != 0
}

func (s *Stepper) computeNewSpeed() {
	distanceTo := int64(s.DistanceToGo())
	stepsToStop := int64((s.speed * s.speed) / (2 * s.acceleration))

	if distanceTo == 0 && stepsToStop <= 1 {
		// at target and slow enough to stop.
		s.stepInterval = 0
		s.speed = 0
		s.n = 0
		return
	}

	if distanceTo > 0 {
		if s.n > 0 {
			if stepsToStop >= distanceTo || s.direction == CCW {
				s.n = -stepsToStop // start decelerating
			}
		} else if s.n < 0 {
			if stepsToStop < distanceTo && s.direction == CW {
				s.n = -s.n // start accelerating
			}
		}
	} else if distanceTo < 0 {
		if s.n > 0 {
			if stepsToStop >= -distanceTo || s.direction == CW {
				s.n = -stepsToStop
			}
		} else if s.n < 0 {
			if stepsToStop < -distanceTo && s.direction == CCW {
				s.n = -s.n
			}
		}
	}

	if s.n == 0 {
		s.cn = s.c0
		if distanceTo > 0 {
			s.direction = CW
		} else {
			s.direction = CCW
		}
	} else {
		s.cn = s.cn - (2*s.cn)/float64(4*s.n+1)
		s.cn = math.Max(s.cn, s.cmin)
	}
	s.n++
	s.stepInterval = time.Duration(s.cn * float64(time.Microsecond))
	s.speed = 1e6 / s.cn
	if s.direction == CCW {
		s.speed = -s.speed
	}
}

func (s *Stepper) write(pattern byte) {
	if s.Outputs == nil {
		return
	}
	if err := s.Outputs.WriteOutputNibble(pattern); err != nil {
		glog.Errorf("stepper output error: %v", err)
	}
}
