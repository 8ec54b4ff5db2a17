package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrFrameLength indicates the total frame length is out of range.
	ErrFrameLength = errors.New("invalid frame length")
	// ErrLengthMismatch indicates the length field doesn't match the frame size.
	ErrLengthMismatch = errors.New("length field mismatch")
	// ErrSentinel indicates the frame doesn't start with the sentinel.
	ErrSentinel = errors.New("bad sentinel")
	// ErrFrameType indicates the type is neither request nor response.
	ErrFrameType = errors.New("bad frame type")
	// ErrChecksum indicates the checksum mismatches.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrMalformed indicates a response without status.
	ErrMalformed = errors.New("malformed frame")
	// ErrFrameTimeout indicates a partial frame was abandoned.
	ErrFrameTimeout = errors.New("frame timeout")
	// ErrPayloadTooLarge indicates the payload doesn't fit in a frame.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrTimeout indicates no response received in time.
	ErrTimeout = errors.New("response timeout")
	// ErrNotConnected indicates no link is open.
	ErrNotConnected = errors.New("not connected")
	// ErrUnexpectedResponse indicates a response payload of unexpected size.
	ErrUnexpectedResponse = errors.New("unexpected response")
	// ErrNoReply indicates a later request was answered first.
	ErrNoReply = errors.New("no reply")
	// ErrAlreadyResponded indicates a second response to the same request.
	ErrAlreadyResponded = errors.New("already responded")
)

// ResponseError is returned by Client when the response status is not Ok.
type ResponseError struct {
	OpCode byte
	Status Status
}

// Error implements error.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("opcode %d: status %s", e.OpCode, e.Status)
}
