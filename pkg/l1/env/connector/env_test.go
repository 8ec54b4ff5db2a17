package connector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/robko.go/pkg/l1"
)

func TestConfigMatches(t *testing.T) {
	ref := l1.ControllerRef{Type: "robko01", ID: "42"}
	testCases := []struct {
		filter l1.ControllerRef
		match  bool
	}{
		{l1.ControllerRef{}, true},
		{l1.ControllerRef{Type: "robko01"}, true},
		{l1.ControllerRef{ID: "42"}, true},
		{l1.ControllerRef{Type: "robko01", ID: "42"}, true},
		{l1.ControllerRef{Type: "other"}, false},
		{l1.ControllerRef{Type: "robko01", ID: "7"}, false},
	}
	for _, tc := range testCases {
		conf := &Config{Ref: tc.filter}
		require.Equal(t, tc.match, conf.Matches(ref), "filter %+v", tc.filter)
	}
}

func TestNewConnectorScheme(t *testing.T) {
	conf := &Config{RegistryURL: "http://localhost/robo/"}
	_, err := conf.NewConnector()
	require.Error(t, err)

	conf.RegistryURL = "%zz"
	_, err = conf.NewConnector()
	require.Error(t, err)
}
