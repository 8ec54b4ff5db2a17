package robko

import (
	"context"
	"encoding/binary"

	"github.com/golang/glog"

	"github.com/robotalks/robko.go/pkg/l0/comm"
)

// HandlerFunc handles one opcode. The returned payload is sent with
// StatusOk, a returned error is answered with StatusError.
type HandlerFunc func(c *Controller, payload []byte) ([]byte, error)

// Dispatcher answers requests on behalf of a Controller.
// It implements comm.RequestHandler.
type Dispatcher struct {
	Controller *Controller

	handlers map[OpCode]HandlerFunc
}

// NewDispatcher creates a Dispatcher with all opcodes registered.
func NewDispatcher(c *Controller) *Dispatcher {
	return &Dispatcher{
		Controller: c,
		handlers: map[OpCode]HandlerFunc{
			OpPing:              handlePing,
			OpStop:              noPayload(func(c *Controller) { c.Axes.StopAll() }),
			OpDisable:           noPayload(func(c *Controller) { c.Axes.DisableAll() }),
			OpEnable:            noPayload(func(c *Controller) { c.Axes.EnableAll() }),
			OpClear:             noPayload(func(c *Controller) { c.Axes.ZeroAll() }),
			OpMoveRelative:      motion((*AxisSet).MoveRelative),
			OpMoveAbsolute:      motion((*AxisSet).MoveAbsolute),
			OpDO:                handleDO,
			OpDI:                handleDI,
			OpIsMoving:          handleIsMoving,
			OpCurrentPosition:   handleCurrentPosition,
			OpMoveSpeed:         motion((*AxisSet).MoveAtSpeed),
			OpSetRobotID:        handleSetRobotID,
			OpGetRobotID:        handleGetRobotID,
			OpSaveRobotPosition: handleSavePosition,
			OpLoadRobotPosition: handleLoadPosition,
		},
	}
}

// Handle replaces the handler of an opcode.
func (d *Dispatcher) Handle(op OpCode, h HandlerFunc) {
	d.handlers[op] = h
}

// HandleRequest implements comm.RequestHandler.
func (d *Dispatcher) HandleRequest(ctx context.Context, w comm.ResponseWriter, req *comm.Frame) {
	status, payload := comm.StatusOk, []byte(nil)
	h, ok := d.handlers[req.OpCode]
	if ok {
		var err error
		if payload, err = h(d.Controller, req.Payload); err != nil {
			glog.V(1).Infof("%s: %v", OpName(req.OpCode), err)
			status, payload = comm.StatusError, nil
		}
	} else {
		glog.V(1).Infof("unsupported %s", OpName(req.OpCode))
		status = comm.StatusError
	}
	if err := w.Respond(status, payload); err != nil {
		glog.Errorf("respond %s error: %v", OpName(req.OpCode), err)
	}
}

func handlePing(c *Controller, payload []byte) ([]byte, error) {
	return nil, nil
}

func noPayload(fn func(c *Controller)) HandlerFunc {
	return func(c *Controller, payload []byte) ([]byte, error) {
		if len(payload) != 0 {
			return nil, ErrInvalidPayload
		}
		fn(c)
		return nil, nil
	}
}

func motion(fn func(*AxisSet, JointPosition)) HandlerFunc {
	return func(c *Controller, payload []byte) ([]byte, error) {
		var p JointPosition
		if err := p.UnmarshalBinary(payload); err != nil {
			return nil, err
		}
		if !c.Axes.MotorsEnabled() {
			return nil, ErrMotorsDisabled
		}
		fn(c.Axes, p)
		return nil, nil
	}
}

func handleDO(c *Controller, payload []byte) ([]byte, error) {
	if len(payload) != 1 {
		return nil, ErrInvalidPayload
	}
	c.PortA.SetOutput(payload[0])
	return nil, nil
}

func handleDI(c *Controller, payload []byte) ([]byte, error) {
	if len(payload) != 0 {
		return nil, ErrInvalidPayload
	}
	return []byte{c.PortA.Input()}, nil
}

func handleIsMoving(c *Controller, payload []byte) ([]byte, error) {
	if len(payload) != 0 {
		return nil, ErrInvalidPayload
	}
	return []byte{byte(c.Axes.MotorState())}, nil
}

func handleCurrentPosition(c *Controller, payload []byte) ([]byte, error) {
	if len(payload) != 0 {
		return nil, ErrInvalidPayload
	}
	return c.Axes.Position().MarshalBinary()
}

func handleSetRobotID(c *Controller, payload []byte) ([]byte, error) {
	if len(payload) != 4 {
		return nil, ErrInvalidPayload
	}
	c.Settings.SerialNumber = binary.LittleEndian.Uint32(payload)
	return nil, nil
}

func handleGetRobotID(c *Controller, payload []byte) ([]byte, error) {
	if len(payload) != 0 {
		return nil, ErrInvalidPayload
	}
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, c.Settings.SerialNumber)
	return buf, nil
}

func handleSavePosition(c *Controller, payload []byte) ([]byte, error) {
	if len(payload) != 0 {
		return nil, ErrInvalidPayload
	}
	return EncodePositions(c.SavePositions()), nil
}

func handleLoadPosition(c *Controller, payload []byte) ([]byte, error) {
	if len(payload) != 0 {
		return nil, ErrInvalidPayload
	}
	return EncodePositions(c.LoadPositions()), nil
}
