package comm

import (
	"fmt"
	"io"
)

// Frame constants.
const (
	Sentinel byte = 0xAA

	MinFrameLen   = 6
	MaxFrameLen   = 32
	MaxPayloadLen = 26

	// MaxLengthField is the largest valid value of the length field.
	MaxLengthField = MaxFrameLen - overheadLen

	// sentinel, type, length and 2 checksum bytes.
	overheadLen    = 5
	checksumLen    = 2
	opCodeOffset   = 3
	payloadOffset  = 4
	responseHeader = 2 // opcode and status
)

// FrameType tells requests from responses.
type FrameType byte

// Frame types.
const (
	TypeRequest  FrameType = 1
	TypeResponse FrameType = 2
)

// IsValid indicates a known frame type.
func (t FrameType) IsValid() bool {
	return t == TypeRequest || t == TypeResponse
}

// String implements fmt.Stringer.
func (t FrameType) String() string {
	switch t {
	case TypeRequest:
		return "request"
	case TypeResponse:
		return "response"
	}
	return fmt.Sprintf("type(%d)", byte(t))
}

// Status is the result code carried by a response.
type Status byte

// Status codes.
const (
	StatusOk      Status = 1
	StatusError   Status = 2
	StatusBusy    Status = 3
	StatusTimeOut Status = 4
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusError:
		return "error"
	case StatusBusy:
		return "busy"
	case StatusTimeOut:
		return "timeout"
	}
	return fmt.Sprintf("status(%d)", byte(s))
}

// Frame is a decoded request or response.
type Frame struct {
	Type    FrameType
	OpCode  byte
	Status  Status // responses only
	Payload []byte
}

// NewRequest creates a request frame.
func NewRequest(opcode byte, payload []byte) *Frame {
	return &Frame{Type: TypeRequest, OpCode: opcode, Payload: payload}
}

// NewResponse creates a response frame.
func NewResponse(opcode byte, status Status, payload []byte) *Frame {
	return &Frame{Type: TypeResponse, OpCode: opcode, Status: status, Payload: payload}
}

// Length is the value of the length field.
func (f *Frame) Length() int {
	if f.Type == TypeResponse {
		return len(f.Payload) + responseHeader
	}
	return len(f.Payload) + 1
}

// Bytes encodes the frame.
func (f *Frame) Bytes() ([]byte, error) {
	if !f.Type.IsValid() {
		return nil, ErrFrameType
	}
	length := f.Length()
	if length > MaxLengthField || len(f.Payload) > MaxPayloadLen {
		return nil, ErrPayloadTooLarge
	}
	buf := make([]byte, 0, length+overheadLen)
	buf = append(buf, Sentinel, byte(f.Type), byte(length), f.OpCode)
	if f.Type == TypeResponse {
		buf = append(buf, byte(f.Status))
	}
	buf = append(buf, f.Payload...)
	ck := Checksum(buf)
	return append(buf, ck[0], ck[1]), nil
}

// WriteTo implements io.WriterTo.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	buf, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// String implements fmt.Stringer.
func (f *Frame) String() string {
	if f.Type == TypeResponse {
		return fmt.Sprintf("%s opcode=%d status=%s payload=% x", f.Type, f.OpCode, f.Status, f.Payload)
	}
	return fmt.Sprintf("%s opcode=%d payload=% x", f.Type, f.OpCode, f.Payload)
}

// Checksum XORs bytes at even offsets into the first byte and bytes at
// odd offsets into the second byte.
func Checksum(data []byte) (ck [checksumLen]byte) {
	for n, b := range data {
		ck[n&1] ^= b
	}
	return
}

// Validate checks a complete frame. The checks are ordered and the
// first failure is returned.
func Validate(buf []byte) error {
	total := len(buf)
	if total < MinFrameLen || total > MaxFrameLen {
		return ErrFrameLength
	}
	if int(buf[2]) != total-overheadLen {
		return ErrLengthMismatch
	}
	if buf[0] != Sentinel {
		return ErrSentinel
	}
	if !FrameType(buf[1]).IsValid() {
		return ErrFrameType
	}
	ck := Checksum(buf[:total-checksumLen])
	if ck[0] != buf[total-2] || ck[1] != buf[total-1] {
		return ErrChecksum
	}
	return nil
}

// Decode validates and decodes a complete frame.
func Decode(buf []byte) (*Frame, error) {
	if err := Validate(buf); err != nil {
		return nil, err
	}
	f := &Frame{Type: FrameType(buf[1]), OpCode: buf[opCodeOffset]}
	data := buf[payloadOffset : len(buf)-checksumLen]
	if f.Type == TypeResponse {
		if len(data) == 0 {
			return nil, ErrMalformed
		}
		f.Status, data = Status(data[0]), data[1:]
	}
	if len(data) > 0 {
		f.Payload = append([]byte(nil), data...)
	}
	return f, nil
}
