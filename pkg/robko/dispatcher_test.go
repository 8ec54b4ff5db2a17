package robko

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/robko.go/pkg/l0/comm"
)

type response struct {
	status  comm.Status
	payload []byte
}

type testResponseWriter struct {
	responses []response
}

func (w *testResponseWriter) Respond(status comm.Status, payload []byte) error {
	w.responses = append(w.responses, response{status: status, payload: payload})
	return nil
}

func dispatch(t *testing.T, d *Dispatcher, op OpCode, payload []byte) response {
	w := &testResponseWriter{}
	d.HandleRequest(context.Background(), w, comm.NewRequest(op, payload))
	require.Len(t, w.responses, 1, OpName(op))
	return w.responses[0]
}

func motionPayload(t *testing.T, axis Axis, pos, speed int16) []byte {
	var p JointPosition
	p.Set(axis, pos, speed)
	data, err := p.MarshalBinary()
	require.NoError(t, err)
	return data
}

func TestDispatcherRejectsMotionWhenDisabled(t *testing.T) {
	c, _, _ := newSimController(t)
	d := NewDispatcher(c)
	for _, op := range []OpCode{OpMoveRelative, OpMoveAbsolute, OpMoveSpeed} {
		res := dispatch(t, d, op, motionPayload(t, AxisBase, 10, 10))
		require.Equal(t, comm.StatusError, res.status, OpName(op))
	}
	require.Equal(t, ModeNone, c.Axes.Mode())

	require.Equal(t, comm.StatusOk, dispatch(t, d, OpEnable, nil).status)
	require.Equal(t, comm.StatusOk, dispatch(t, d, OpMoveAbsolute, motionPayload(t, AxisBase, 10, 10)).status)
	require.Equal(t, ModePositioning, c.Axes.Mode())
	require.Equal(t, int32(10), c.Stepper(AxisBase).DistanceToGo())

	require.Equal(t, comm.StatusOk, dispatch(t, d, OpDisable, nil).status)
	require.Equal(t, comm.StatusError, dispatch(t, d, OpMoveSpeed, motionPayload(t, AxisBase, 0, 10)).status)
}

func TestDispatcherValidatesPayload(t *testing.T) {
	c, _, _ := newSimController(t)
	c.Axes.EnableAll()
	d := NewDispatcher(c)
	testCases := []struct {
		name    string
		op      OpCode
		payload []byte
	}{
		{name: "stop with payload", op: OpStop, payload: []byte{1}},
		{name: "short motion", op: OpMoveAbsolute, payload: make([]byte, JointPositionSize-1)},
		{name: "long motion", op: OpMoveRelative, payload: make([]byte, JointPositionSize+1)},
		{name: "empty DO", op: OpDO},
		{name: "DI with payload", op: OpDI, payload: []byte{0}},
		{name: "short robot ID", op: OpSetRobotID, payload: []byte{1, 2, 3}},
		{name: "unknown opcode", op: 0x20},
		{name: "opcode zero", op: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := dispatch(t, d, tc.op, tc.payload)
			require.Equal(t, comm.StatusError, res.status)
			require.Empty(t, res.payload)
		})
	}
	require.Equal(t, ModeNone, c.Axes.Mode())
}

func TestDispatcherPingAcceptsPayload(t *testing.T) {
	c, _, _ := newSimController(t)
	d := NewDispatcher(c)
	for _, payload := range [][]byte{nil, {5}, {1, 2, 3, 4}} {
		res := dispatch(t, d, OpPing, payload)
		require.Equal(t, comm.StatusOk, res.status, "payload %v", payload)
		require.Empty(t, res.payload)
	}
}

func TestDispatcherQueries(t *testing.T) {
	c, _, _ := newSimController(t)
	d := NewDispatcher(c)

	res := dispatch(t, d, OpPing, nil)
	require.Equal(t, comm.StatusOk, res.status)
	require.Empty(t, res.payload)

	require.Equal(t, comm.StatusOk, dispatch(t, d, OpDO, []byte{0x3c}).status)
	require.Equal(t, byte(0x3c), c.PortA.Output())
	for n := 0; n < 16; n++ {
		require.NoError(t, c.Tick())
	}
	require.Equal(t, []byte{0x3c}, dispatch(t, d, OpDI, nil).payload)

	require.Equal(t, []byte{0}, dispatch(t, d, OpIsMoving, nil).payload)
	dispatch(t, d, OpEnable, nil)
	dispatch(t, d, OpMoveRelative, motionPayload(t, AxisGripper, 5, 10))
	for n := 0; n < 8; n++ {
		require.NoError(t, c.Tick())
	}
	require.Equal(t, []byte{0x20}, dispatch(t, d, OpIsMoving, nil).payload)

	res = dispatch(t, d, OpCurrentPosition, nil)
	require.Len(t, res.payload, JointPositionSize)
	var p JointPosition
	require.NoError(t, p.UnmarshalBinary(res.payload))
	require.Equal(t, int16(1), p.GripperPos)

	require.Equal(t, comm.StatusOk, dispatch(t, d, OpSetRobotID, []byte{0x78, 0x56, 0x34, 0x12}).status)
	require.Equal(t, uint32(0x12345678), c.Settings.SerialNumber)
	require.Equal(t, []byte{0x78, 0x56, 0x34, 0x12}, dispatch(t, d, OpGetRobotID, nil).payload)
}

func TestDispatcherSaveLoad(t *testing.T) {
	c, _, _ := newSimController(t)
	d := NewDispatcher(c)
	c.Axes.SetPositions([AxisCount]int16{1, -2, 3, 0, 0, 0})
	res := dispatch(t, d, OpSaveRobotPosition, nil)
	require.Equal(t, comm.StatusOk, res.status)
	require.Equal(t, EncodePositions([AxisCount]int16{1, -2, 3, 0, 0, 0}), res.payload)

	require.Equal(t, comm.StatusOk, dispatch(t, d, OpClear, nil).status)
	require.Equal(t, [AxisCount]int16{}, c.Axes.Positions())

	res = dispatch(t, d, OpLoadRobotPosition, nil)
	require.Equal(t, comm.StatusOk, res.status)
	require.Equal(t, [AxisCount]int16{1, -2, 3, 0, 0, 0}, c.Axes.Positions())
}

type linkBuffer struct {
	bytes.Buffer
}

func (b *linkBuffer) Read(p []byte) (int, error) {
	return 0, io.EOF
}

func TestDeviceAnswersFrames(t *testing.T) {
	c, _, _ := newSimController(t)
	link := &linkBuffer{}
	e := comm.NewEngine(link)
	e.Handler = NewDispatcher(c)

	var data []byte
	for _, req := range []*comm.Frame{
		comm.NewRequest(OpPing, nil),
		comm.NewRequest(OpMoveAbsolute, motionPayload(t, AxisBase, 1, 1)),
		comm.NewRequest(OpGetRobotID, nil),
	} {
		buf, err := req.Bytes()
		require.NoError(t, err)
		data = append(data, buf...)
	}
	c.Settings.SerialNumber = 7
	e.Feed(data)
	e.Service(context.Background())

	var p comm.Parser
	var frames []*comm.Frame
	for _, b := range link.Bytes() {
		if pr := p.Parse(b); pr.Frame != nil {
			frames = append(frames, pr.Frame)
		}
	}
	require.Len(t, frames, 3)
	require.Equal(t, comm.NewResponse(OpPing, comm.StatusOk, nil), frames[0])
	require.Equal(t, comm.NewResponse(OpMoveAbsolute, comm.StatusError, nil), frames[1])
	require.Equal(t, comm.NewResponse(OpGetRobotID, comm.StatusOk, []byte{7, 0, 0, 0}), frames[2])
}
