package robko

import (
	"context"
	"encoding/binary"

	"github.com/robotalks/robko.go/pkg/l0/comm"
)

// Caller sends a request and waits for the response payload.
// comm.Client implements it.
type Caller interface {
	Call(ctx context.Context, opcode byte, payload []byte) ([]byte, error)
}

// Remote commands a controller over the link.
type Remote struct {
	Caller Caller
}

// NewRemote creates a Remote.
func NewRemote(caller Caller) *Remote {
	return &Remote{Caller: caller}
}

func (r *Remote) call(ctx context.Context, op OpCode, payload []byte, expectedSize int) ([]byte, error) {
	if r.Caller == nil {
		return nil, comm.ErrNotConnected
	}
	data, err := r.Caller.Call(ctx, op, payload)
	if err != nil {
		return nil, err
	}
	if len(data) != expectedSize {
		return nil, comm.ErrUnexpectedResponse
	}
	return data, nil
}

// Ping checks the controller is responsive.
func (r *Remote) Ping(ctx context.Context) error {
	_, err := r.call(ctx, OpPing, nil, 0)
	return err
}

// Stop decelerates all axes to a stop.
func (r *Remote) Stop(ctx context.Context) error {
	_, err := r.call(ctx, OpStop, nil, 0)
	return err
}

// Disable releases all motors.
func (r *Remote) Disable(ctx context.Context) error {
	_, err := r.call(ctx, OpDisable, nil, 0)
	return err
}

// Enable enables all motors.
func (r *Remote) Enable(ctx context.Context) error {
	_, err := r.call(ctx, OpEnable, nil, 0)
	return err
}

// Clear zeros the axis positions.
func (r *Remote) Clear(ctx context.Context) error {
	_, err := r.call(ctx, OpClear, nil, 0)
	return err
}

func (r *Remote) move(ctx context.Context, op OpCode, p JointPosition) error {
	payload, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = r.call(ctx, op, payload, 0)
	return err
}

// MoveRelative moves the axes by the deltas.
func (r *Remote) MoveRelative(ctx context.Context, delta JointPosition) error {
	return r.move(ctx, OpMoveRelative, delta)
}

// MoveAbsolute moves the axes to the targets.
func (r *Remote) MoveAbsolute(ctx context.Context, target JointPosition) error {
	return r.move(ctx, OpMoveAbsolute, target)
}

// MoveAtSpeed runs the axes at constant speeds.
func (r *Remote) MoveAtSpeed(ctx context.Context, speeds JointPosition) error {
	return r.move(ctx, OpMoveSpeed, speeds)
}

// SetPortA sets the Port A output.
func (r *Remote) SetPortA(ctx context.Context, v byte) error {
	_, err := r.call(ctx, OpDO, []byte{v}, 0)
	return err
}

// PortA reads the Port A input.
func (r *Remote) PortA(ctx context.Context) (byte, error) {
	data, err := r.call(ctx, OpDI, nil, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// MotorState queries the moving axes.
func (r *Remote) MotorState(ctx context.Context) (MotorState, error) {
	data, err := r.call(ctx, OpIsMoving, nil, 1)
	if err != nil {
		return 0, err
	}
	return MotorState(data[0]), nil
}

// Position queries the positions and speeds.
func (r *Remote) Position(ctx context.Context) (p JointPosition, err error) {
	data, err := r.call(ctx, OpCurrentPosition, nil, JointPositionSize)
	if err == nil {
		err = p.UnmarshalBinary(data)
	}
	return
}

// SetRobotID sets the serial number.
func (r *Remote) SetRobotID(ctx context.Context, id uint32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, id)
	_, err := r.call(ctx, OpSetRobotID, buf, 0)
	return err
}

// RobotID queries the serial number.
func (r *Remote) RobotID(ctx context.Context) (uint32, error) {
	data, err := r.call(ctx, OpGetRobotID, nil, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// SavePosition stores the current positions on the controller.
func (r *Remote) SavePosition(ctx context.Context) ([AxisCount]int16, error) {
	data, err := r.call(ctx, OpSaveRobotPosition, nil, AxisCount*2)
	if err != nil {
		return [AxisCount]int16{}, err
	}
	return DecodePositions(data)
}

// LoadPosition restores the stored positions as the current positions.
func (r *Remote) LoadPosition(ctx context.Context) ([AxisCount]int16, error) {
	data, err := r.call(ctx, OpLoadRobotPosition, nil, AxisCount*2)
	if err != nil {
		return [AxisCount]int16{}, err
	}
	return DecodePositions(data)
}
