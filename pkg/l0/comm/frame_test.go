package comm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameEncodeDecode(t *testing.T) {
	testCases := []struct {
		name  string
		frame *Frame
		bytes []byte
	}{
		{
			name:  "request without payload",
			frame: NewRequest(1, nil),
			bytes: []byte{0xAA, 0x01, 0x01, 0x01, 0xAB, 0x00},
		},
		{
			name:  "request with payload",
			frame: NewRequest(6, []byte{0x05}),
			bytes: []byte{0xAA, 0x01, 0x02, 0x06, 0x05, 0xAD, 0x07},
		},
		{
			name:  "response",
			frame: NewResponse(10, StatusOk, []byte{0x01}),
			bytes: []byte{0xAA, 0x02, 0x03, 0x0A, 0x01, 0x01, 0xA8, 0x09},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf, err := tc.frame.Bytes()
			require.NoError(t, err)
			require.Equal(t, tc.bytes, buf)
			require.Equal(t, len(buf)-overheadLen, tc.frame.Length())
			f, err := Decode(buf)
			require.NoError(t, err)
			require.Equal(t, tc.frame, f)
		})
	}
}

func TestFrameWriteTo(t *testing.T) {
	var out bytes.Buffer
	n, err := NewRequest(2, nil).WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(6), n)
	require.Equal(t, []byte{0xAA, 0x01, 0x01, 0x02, 0xAB, 0x03}, out.Bytes())
}

func TestFrameTooLarge(t *testing.T) {
	_, err := NewRequest(1, make([]byte, MaxPayloadLen)).Bytes()
	require.NoError(t, err)
	_, err = NewRequest(1, make([]byte, MaxPayloadLen+1)).Bytes()
	require.Equal(t, ErrPayloadTooLarge, err)
	// status takes one byte of a response.
	_, err = NewResponse(1, StatusOk, make([]byte, MaxPayloadLen)).Bytes()
	require.Equal(t, ErrPayloadTooLarge, err)
	_, err = (&Frame{Type: 3}).Bytes()
	require.Equal(t, ErrFrameType, err)
}

func TestChecksumDetectsSingleBitChange(t *testing.T) {
	buf, err := NewRequest(7, []byte{0x00, 0x64, 0x00, 0x32}).Bytes()
	require.NoError(t, err)
	for n := 0; n < len(buf)-checksumLen; n++ {
		for bit := uint(0); bit < 8; bit++ {
			corrupted := append([]byte(nil), buf...)
			corrupted[n] ^= 1 << bit
			require.Error(t, Validate(corrupted), "byte %d bit %d", n, bit)
		}
	}
}

// Each checksum byte folds the bytes of one parity, so the same bit
// flipped in two bytes of the same parity cancels out.
func TestChecksumSameParityCollision(t *testing.T) {
	buf, err := NewRequest(7, []byte{0x00, 0x64, 0x00, 0x32}).Bytes()
	require.NoError(t, err)
	corrupted := append([]byte(nil), buf...)
	corrupted[3] ^= 0x10
	corrupted[5] ^= 0x10
	require.NotEqual(t, buf, corrupted)
	require.NoError(t, Validate(corrupted))

	// different parities are still detected.
	corrupted = append([]byte(nil), buf...)
	corrupted[3] ^= 0x10
	corrupted[4] ^= 0x10
	require.Equal(t, ErrChecksum, Validate(corrupted))
}

func TestValidate(t *testing.T) {
	valid, err := NewRequest(1, nil).Bytes()
	require.NoError(t, err)
	withChecksum := func(buf []byte) []byte {
		ck := Checksum(buf)
		return append(buf, ck[0], ck[1])
	}
	testCases := []struct {
		name string
		buf  []byte
		err  error
	}{
		{name: "valid", buf: valid},
		{name: "too short", buf: valid[:5], err: ErrFrameLength},
		{name: "too long", buf: make([]byte, MaxFrameLen+1), err: ErrFrameLength},
		{name: "length mismatch", buf: withChecksum([]byte{0xAA, 0x01, 0x02, 0x01}), err: ErrLengthMismatch},
		{name: "sentinel", buf: withChecksum([]byte{0xAB, 0x01, 0x01, 0x01}), err: ErrSentinel},
		{name: "type", buf: withChecksum([]byte{0xAA, 0x03, 0x01, 0x01}), err: ErrFrameType},
		{name: "checksum", buf: []byte{0xAA, 0x01, 0x01, 0x01, 0xAB, 0x01}, err: ErrChecksum},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.err, Validate(tc.buf))
		})
	}
}

func TestDecodeResponseWithoutStatus(t *testing.T) {
	buf := []byte{0xAA, 0x02, 0x01, 0x01}
	ck := Checksum(buf)
	_, err := Decode(append(buf, ck[0], ck[1]))
	require.Equal(t, ErrMalformed, err)
}
