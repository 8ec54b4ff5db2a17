// Package robko implements the Robko01 arm controller: six stepper axes
// and the Port A digital I/O behind the shared bus, commanded through the
// binary request/response protocol.
package robko

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPayload indicates a request payload of the wrong size.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrMotorsDisabled rejects motion commands before Enable.
	ErrMotorsDisabled = errors.New("motors disabled")
)

// Axis is the index of an arm joint, which is also its bus address.
type Axis int

// Axes in bus address order.
const (
	AxisBase Axis = iota
	AxisShoulder
	AxisElbow
	AxisLeftDiff
	AxisRightDiff
	AxisGripper

	AxisCount = 6
)

var axisNames = [AxisCount]string{"base", "shoulder", "elbow", "left-diff", "right-diff", "gripper"}

// String implements fmt.Stringer.
func (a Axis) String() string {
	if a >= 0 && int(a) < AxisCount {
		return axisNames[a]
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// ParseAxis finds an axis by name.
func ParseAxis(name string) (Axis, error) {
	for n, s := range axisNames {
		if s == name {
			return Axis(n), nil
		}
	}
	return -1, fmt.Errorf("unknown axis %q", name)
}

// JointPositionSize is the encoded size of JointPosition.
const JointPositionSize = AxisCount * 2 * 2

// JointPosition holds a position and a speed per axis. It's either a
// command (target or delta) or a snapshot of the arm.
// The wire encoding is the fields in order as little endian int16.
type JointPosition struct {
	BasePos        int16 `json:"base-pos"`
	BaseSpeed      int16 `json:"base-speed"`
	ShoulderPos    int16 `json:"shoulder-pos"`
	ShoulderSpeed  int16 `json:"shoulder-speed"`
	ElbowPos       int16 `json:"elbow-pos"`
	ElbowSpeed     int16 `json:"elbow-speed"`
	LeftDiffPos    int16 `json:"left-diff-pos"`
	LeftDiffSpeed  int16 `json:"left-diff-speed"`
	RightDiffPos   int16 `json:"right-diff-pos"`
	RightDiffSpeed int16 `json:"right-diff-speed"`
	GripperPos     int16 `json:"gripper-pos"`
	GripperSpeed   int16 `json:"gripper-speed"`
}

// JointPositionFromValues builds a JointPosition from values in wire
// order: position then speed, per axis.
func JointPositionFromValues(values [AxisCount * 2]int16) JointPosition {
	var p JointPosition
	for n := 0; n < AxisCount; n++ {
		p.Set(Axis(n), values[n*2], values[n*2+1])
	}
	return p
}

// Values returns the fields in wire order.
func (p JointPosition) Values() (values [AxisCount * 2]int16) {
	for n := 0; n < AxisCount; n++ {
		values[n*2], values[n*2+1] = p.Pos(Axis(n)), p.Speed(Axis(n))
	}
	return
}

func (p *JointPosition) fields(axis Axis) (pos, speed *int16) {
	switch axis {
	case AxisBase:
		return &p.BasePos, &p.BaseSpeed
	case AxisShoulder:
		return &p.ShoulderPos, &p.ShoulderSpeed
	case AxisElbow:
		return &p.ElbowPos, &p.ElbowSpeed
	case AxisLeftDiff:
		return &p.LeftDiffPos, &p.LeftDiffSpeed
	case AxisRightDiff:
		return &p.RightDiffPos, &p.RightDiffSpeed
	case AxisGripper:
		return &p.GripperPos, &p.GripperSpeed
	}
	panic(fmt.Sprintf("invalid %s", axis))
}

// Pos returns the position of an axis.
func (p JointPosition) Pos(axis Axis) int16 {
	pos, _ := p.fields(axis)
	return *pos
}

// Speed returns the speed of an axis.
func (p JointPosition) Speed(axis Axis) int16 {
	_, speed := p.fields(axis)
	return *speed
}

// Set sets position and speed of an axis.
func (p *JointPosition) Set(axis Axis, pos, speed int16) {
	pp, sp := p.fields(axis)
	*pp, *sp = pos, speed
}

// String implements fmt.Stringer.
func (p JointPosition) String() string {
	parts := make([]string, AxisCount)
	for n := range parts {
		parts[n] = fmt.Sprintf("%s=%d@%d", Axis(n), p.Pos(Axis(n)), p.Speed(Axis(n)))
	}
	return strings.Join(parts, " ")
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p JointPosition) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(JointPositionSize)
	if err := binary.Write(&buf, binary.LittleEndian, &p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *JointPosition) UnmarshalBinary(data []byte) error {
	if len(data) != JointPositionSize {
		return ErrInvalidPayload
	}
	return binary.Read(bytes.NewReader(data), binary.LittleEndian, p)
}

// OperationMode applies to all axes, set by the last motion command.
type OperationMode byte

// Operation modes.
const (
	ModeNone OperationMode = iota
	ModePositioning
	ModeSpeed
)

// String implements fmt.Stringer.
func (m OperationMode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModePositioning:
		return "positioning"
	case ModeSpeed:
		return "speed"
	}
	return fmt.Sprintf("mode(%d)", byte(m))
}

// MotorState has one bit per axis, set while the axis is moving
// (positioning) or has just stepped (speed).
type MotorState byte

// Moving tells the state of an axis.
func (s MotorState) Moving(axis Axis) bool {
	return s&(1<<uint(axis)) != 0
}

// With returns the state with the bit of an axis updated.
func (s MotorState) With(axis Axis, moving bool) MotorState {
	if moving {
		return s | 1<<uint(axis)
	}
	return s &^ (1 << uint(axis))
}

// Any tells if any axis is moving.
func (s MotorState) Any() bool {
	return s&(1<<AxisCount-1) != 0
}

// Axes lists the moving axes.
func (s MotorState) Axes() (axes []Axis) {
	for n := 0; n < AxisCount; n++ {
		if s.Moving(Axis(n)) {
			axes = append(axes, Axis(n))
		}
	}
	return
}

// String implements fmt.Stringer.
func (s MotorState) String() string {
	axes := s.Axes()
	if len(axes) == 0 {
		return "idle"
	}
	names := make([]string, len(axes))
	for n, axis := range axes {
		names[n] = axis.String()
	}
	return strings.Join(names, ",")
}

// OpCode identifies a request.
type OpCode = byte

// Operation codes.
const (
	OpPing OpCode = iota + 1
	OpStop
	OpDisable
	OpEnable
	OpClear
	OpMoveRelative
	OpMoveAbsolute
	OpDO
	OpDI
	OpIsMoving
	OpCurrentPosition
	OpMoveSpeed
	OpSetRobotID
	OpGetRobotID
	OpSaveRobotPosition
	OpLoadRobotPosition
)

var opNames = map[OpCode]string{
	OpPing:              "ping",
	OpStop:              "stop",
	OpDisable:           "disable",
	OpEnable:            "enable",
	OpClear:             "clear",
	OpMoveRelative:      "move-relative",
	OpMoveAbsolute:      "move-absolute",
	OpDO:                "do",
	OpDI:                "di",
	OpIsMoving:          "is-moving",
	OpCurrentPosition:   "current-position",
	OpMoveSpeed:         "move-speed",
	OpSetRobotID:        "set-robot-id",
	OpGetRobotID:        "get-robot-id",
	OpSaveRobotPosition: "save-robot-position",
	OpLoadRobotPosition: "load-robot-position",
}

// OpName returns the name of an opcode.
func OpName(op OpCode) string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", op)
}

// Settings are the values kept across LoadRobotPosition and
// SaveRobotPosition.
type Settings struct {
	SerialNumber uint32
	Positions    [AxisCount]int16
}

// EncodePositions encodes saved positions as little endian int16.
func EncodePositions(positions [AxisCount]int16) []byte {
	buf := make([]byte, AxisCount*2)
	for n, v := range positions {
		binary.LittleEndian.PutUint16(buf[n*2:], uint16(v))
	}
	return buf
}

// DecodePositions decodes the payload of SaveRobotPosition and
// LoadRobotPosition responses.
func DecodePositions(data []byte) (positions [AxisCount]int16, err error) {
	if len(data) != AxisCount*2 {
		return positions, ErrInvalidPayload
	}
	for n := range positions {
		positions[n] = int16(binary.LittleEndian.Uint16(data[n*2:]))
	}
	return
}
