package robko

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeActuator records commands and moves one step per Run.
type fakeActuator struct {
	pos, target int32
	speed       float64
	maxSpeed    float64
	enabled     bool
	calls       []string
}

func (a *fakeActuator) Move(relative int32)           { a.target = a.pos + relative }
func (a *fakeActuator) MoveTo(absolute int32)         { a.target = absolute }
func (a *fakeActuator) SetSpeed(speed float64)        { a.speed = speed }
func (a *fakeActuator) SetMaxSpeed(speed float64)     { a.maxSpeed = speed }
func (a *fakeActuator) SetAcceleration(accel float64) {}
func (a *fakeActuator) CurrentPosition() int32        { return a.pos }
func (a *fakeActuator) Speed() float64                { return a.speed }
func (a *fakeActuator) DistanceToGo() int32           { return a.target - a.pos }
func (a *fakeActuator) Stop()                         { a.calls = append(a.calls, "stop") }
func (a *fakeActuator) EnableOutputs()                { a.enabled = true; a.calls = append(a.calls, "enable") }
func (a *fakeActuator) DisableOutputs()               { a.enabled = false; a.calls = append(a.calls, "disable") }

func (a *fakeActuator) SetCurrentPosition(pos int32) {
	a.pos, a.target, a.speed = pos, pos, 0
}

func (a *fakeActuator) Run() bool {
	switch {
	case a.pos < a.target:
		a.pos++
	case a.pos > a.target:
		a.pos--
	}
	return a.pos != a.target
}

func (a *fakeActuator) RunSpeed() bool {
	if a.speed == 0 {
		return false
	}
	if a.speed > 0 {
		a.pos++
	} else {
		a.pos--
	}
	return true
}

func newFakeAxisSet() (*AxisSet, [AxisCount]*fakeActuator) {
	var fakes [AxisCount]*fakeActuator
	var actuators [AxisCount]Actuator
	for n := range fakes {
		fakes[n] = &fakeActuator{}
		actuators[n] = fakes[n]
	}
	return NewAxisSet(actuators), fakes
}

func TestAxisSetMoves(t *testing.T) {
	s, fakes := newFakeAxisSet()
	require.Equal(t, ModeNone, s.Mode())
	require.False(t, s.ServiceAxis(0))

	var target JointPosition
	target.Set(AxisBase, 3, 50)
	target.Set(AxisGripper, -2, -10)
	s.MoveAbsolute(target)
	require.Equal(t, ModePositioning, s.Mode())
	require.Equal(t, float64(70), fakes[AxisBase].maxSpeed)
	require.Equal(t, float64(10), fakes[AxisGripper].maxSpeed)
	require.Equal(t, float64(MaxSpeedMargin), fakes[AxisElbow].maxSpeed)

	require.True(t, s.ServiceAxis(int(AxisBase)))
	require.True(t, s.ServiceAxis(int(AxisGripper)))
	require.Equal(t, MotorState(0x21), s.MotorState())
	require.True(t, s.ServiceAxis(int(AxisBase)))
	require.False(t, s.ServiceAxis(int(AxisBase)))
	require.False(t, s.ServiceAxis(int(AxisGripper)))
	require.Equal(t, MotorState(0), s.MotorState())
	p := s.Position()
	require.Equal(t, int16(3), p.BasePos)
	require.Equal(t, int16(-2), p.GripperPos)

	var delta JointPosition
	delta.Set(AxisBase, -3, 10)
	s.MoveRelative(delta)
	require.Equal(t, int32(-3), fakes[AxisBase].DistanceToGo())
	require.Equal(t, int32(0), fakes[AxisGripper].DistanceToGo())

	var speeds JointPosition
	speeds.Set(AxisElbow, 999, -5)
	s.MoveAtSpeed(speeds)
	require.Equal(t, ModeSpeed, s.Mode())
	require.Equal(t, float64(-5), fakes[AxisElbow].speed)
	require.True(t, s.ServiceAxis(int(AxisElbow)))
	require.False(t, s.ServiceAxis(int(AxisShoulder)))
	require.Equal(t, int32(-1), fakes[AxisElbow].pos)
}

func TestAxisSetPositionIsStable(t *testing.T) {
	s, _ := newFakeAxisSet()
	var target JointPosition
	target.Set(AxisShoulder, 2, 10)
	s.MoveAbsolute(target)
	s.ServiceAxis(int(AxisShoulder))
	first := s.Position()
	require.Equal(t, first, s.Position())
	require.Equal(t, first, s.Position())
}

func TestAxisSetBulkOperations(t *testing.T) {
	s, fakes := newFakeAxisSet()
	s.EnableAll()
	require.True(t, s.MotorsEnabled())
	s.DisableAll()
	require.False(t, s.MotorsEnabled())
	for _, a := range fakes {
		require.Equal(t, []string{"enable", "disable"}, a.calls)
		a.calls = nil
	}

	s.ReenableAxis(2)
	require.Equal(t, []string{"disable", "enable"}, fakes[2].calls)
	require.True(t, fakes[2].enabled)

	var speeds JointPosition
	speeds.Set(AxisBase, 0, 10)
	s.MoveAtSpeed(speeds)
	s.StopAll()
	require.Equal(t, float64(0), fakes[AxisBase].speed)

	fakes[AxisElbow].pos = 42
	s.SetPositions([AxisCount]int16{1, 2, 3, 4, 5, 6})
	require.Equal(t, [AxisCount]int16{1, 2, 3, 4, 5, 6}, s.Positions())
	s.ZeroAll()
	require.Equal(t, [AxisCount]int16{}, s.Positions())
}
