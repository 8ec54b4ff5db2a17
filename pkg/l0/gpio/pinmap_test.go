package gpio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodePinMap(t *testing.T) {
	testCases := []struct {
		name  string
		yaml  string
		valid bool
	}{
		{
			name: "arduino style",
			yaml: `
ao: [D6, D7, D8]
iow: A0
ior: A1
di: [D2, D3, D4, D5]
do: [A3, A2, A7, A6]
`,
			valid: true,
		},
		{
			name: "missing pins",
			yaml: `
ao: [D6, D7, D8]
iow: A0
`,
		},
		{
			name: "duplicated pin",
			yaml: `
ao: [D6, D7, D8]
iow: A0
ior: A0
di: [D2, D3, D4, D5]
do: [A3, A2, A7, A6]
`,
		},
		{
			name: "unknown key",
			yaml: `
ao: [D6, D7, D8]
iow: A0
ior: A1
di: [D2, D3, D4, D5]
do: [A3, A2, A7, A6]
led: D13
`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := DecodePinMap(strings.NewReader(tc.yaml))
			if !tc.valid {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, [3]Pin{"D6", "D7", "D8"}, m.AO)
			require.Equal(t, Pin("A1"), m.IOR)
			require.Equal(t, [4]Pin{"A3", "A2", "A7", "A6"}, m.DO)
			require.Len(t, m.Outputs(), 9)
			require.Len(t, m.Inputs(), 4)
		})
	}
}

func TestDefaultPinMap(t *testing.T) {
	m, err := LoadPinMap("")
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	require.Equal(t, DefaultPinMap, *m)
	m.IOW = "changed"
	require.Equal(t, Pin("GPIO19"), DefaultPinMap.IOW)
}

func TestFakeRequiresConfiguration(t *testing.T) {
	f := NewFake()
	require.Error(t, f.SetPin("x", High))
	_, err := f.ReadAnalog("y")
	require.Error(t, err)

	require.NoError(t, f.Configure("x", Output))
	require.NoError(t, f.Configure("y", Input))
	require.NoError(t, f.SetPin("x", High))
	require.Equal(t, High, f.Level("x"))
	require.Error(t, f.SetPin("y", High))
	f.Analog["y"] = 700
	v, err := f.ReadAnalog("y")
	require.NoError(t, err)
	require.Equal(t, 700, v)
	require.Equal(t, []Write{{Pin: "x", Level: High}}, f.Writes())
	require.Empty(t, f.Writes())
}
