package arm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/robko.go/pkg/robko"
)

func TestParseJointPosition(t *testing.T) {
	p, err := ParseJointPosition([]string{"100", "50", "-1", "0x10", "0", "0", "0", "0", "0", "0", "7", "-20"})
	require.NoError(t, err)
	require.Equal(t, int16(100), p.BasePos)
	require.Equal(t, int16(50), p.BaseSpeed)
	require.Equal(t, int16(-1), p.ShoulderPos)
	require.Equal(t, int16(16), p.ShoulderSpeed)
	require.Equal(t, int16(7), p.GripperPos)
	require.Equal(t, int16(-20), p.GripperSpeed)

	testCases := []struct {
		name string
		args []string
	}{
		{name: "too few", args: []string{"1", "2"}},
		{name: "not a number", args: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "x"}},
		{name: "out of range", args: []string{"40000", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseJointPosition(tc.args)
			require.Error(t, err)
		})
	}
}

func TestParseByte(t *testing.T) {
	testCases := []struct {
		arg   string
		value byte
		ok    bool
	}{
		{arg: "171", value: 0xab, ok: true},
		{arg: "0xab", value: 0xab, ok: true},
		{arg: "0b1010", value: 10, ok: true},
		{arg: "256"},
		{arg: "-1"},
	}
	for _, tc := range testCases {
		t.Run(tc.arg, func(t *testing.T) {
			v, err := ParseByte(tc.arg)
			if !tc.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.value, v)
		})
	}
}

func TestMovingStateString(t *testing.T) {
	s := MovingState{State: robko.MotorState(0x03)}
	require.Equal(t, "0x03 base,shoulder", s.String())
	require.Equal(t, "0x00 idle", MovingState{}.String())
}
