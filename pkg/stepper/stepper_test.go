package stepper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Time() time.Time { return c.now }

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type testOutputs struct {
	patterns []byte
}

func (o *testOutputs) WriteOutputNibble(v byte) error {
	o.patterns = append(o.patterns, v)
	return nil
}

func newTestStepper() (*Stepper, *testClock, *testOutputs) {
	clock := &testClock{now: time.Unix(1000, 0)}
	out := &testOutputs{}
	return New(out, clock), clock, out
}

// runUntilStopped calls Run every millisecond, returns the elapsed time.
func runUntilStopped(t *testing.T, s *Stepper, clock *testClock, limit time.Duration) time.Duration {
	var elapsed time.Duration
	for s.Run() {
		clock.advance(time.Millisecond)
		elapsed += time.Millisecond
		require.True(t, elapsed < limit, "motor didn't stop in %v", limit)
	}
	return elapsed
}

func TestRunToTarget(t *testing.T) {
	testCases := []struct {
		name   string
		target int32
		speed  float64
	}{
		{name: "forward", target: 100, speed: 70},
		{name: "backward", target: -40, speed: 120},
		{name: "single step", target: 1, speed: 10},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, clock, out := newTestStepper()
			s.SetAcceleration(500)
			s.SetMaxSpeed(tc.speed)
			s.MoveTo(tc.target)
			require.Equal(t, tc.target, s.DistanceToGo())
			runUntilStopped(t, s, clock, time.Minute)
			require.Equal(t, tc.target, s.CurrentPosition())
			require.Equal(t, int32(0), s.DistanceToGo())
			require.Equal(t, float64(0), s.Speed())

			steps := int(tc.target)
			if steps < 0 {
				steps = -steps
			}
			require.Len(t, out.patterns, steps)
			delta := 1
			if tc.target < 0 {
				delta = 3
			}
			prev := 0
			for n, p := range out.patterns {
				phase := PatternPhase(p)
				require.NotEqual(t, -1, phase, "pattern %d invalid: %04b", n, p)
				require.Equal(t, (prev+delta)%4, phase, "pattern %d", n)
				prev = phase
			}
		})
	}
}

func TestRunRespectsMaxSpeed(t *testing.T) {
	s, clock, _ := newTestStepper()
	s.SetAcceleration(500)
	s.SetMaxSpeed(50)
	s.MoveTo(200)
	var peak float64
	for s.Run() {
		if s.Speed() > peak {
			peak = s.Speed()
		}
		clock.advance(time.Millisecond)
	}
	require.True(t, peak <= 50.0001, "peak speed %v", peak)
	require.True(t, peak > 45, "peak speed %v", peak)
	require.Equal(t, int32(200), s.CurrentPosition())
}

func TestRunSpeed(t *testing.T) {
	testCases := []struct {
		name     string
		maxSpeed float64
		speed    float64
		expect   int32
	}{
		{name: "forward", maxSpeed: 100, speed: 50, expect: 50},
		{name: "backward", maxSpeed: 100, speed: -25, expect: -25},
		{name: "clamped", maxSpeed: 10, speed: 50, expect: 10},
		{name: "zero", maxSpeed: 10, speed: 0, expect: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, clock, _ := newTestStepper()
			s.SetMaxSpeed(tc.maxSpeed)
			s.SetSpeed(tc.speed)
			var steps int32
			for i := 0; i < 1000; i++ {
				if s.RunSpeed() {
					steps++
				}
				clock.advance(time.Millisecond)
			}
			require.Equal(t, tc.expect, s.CurrentPosition())
			if tc.expect < 0 {
				steps = -steps
			}
			require.Equal(t, tc.expect, steps)
		})
	}
}

func TestStopDecelerates(t *testing.T) {
	s, clock, _ := newTestStepper()
	s.SetAcceleration(500)
	s.SetMaxSpeed(200)
	s.MoveTo(10000)
	for i := 0; i < 300; i++ {
		s.Run()
		clock.advance(time.Millisecond)
	}
	require.True(t, s.Speed() > 0)
	stoppedAt := s.CurrentPosition()
	s.Stop()
	runUntilStopped(t, s, clock, time.Minute)
	require.True(t, s.CurrentPosition() > stoppedAt)
	require.True(t, s.CurrentPosition() < 10000)
	require.Equal(t, int32(0), s.DistanceToGo())
}

func TestSetCurrentPosition(t *testing.T) {
	s, clock, _ := newTestStepper()
	s.SetAcceleration(500)
	s.SetMaxSpeed(100)
	s.MoveTo(50)
	s.Run()
	clock.advance(time.Millisecond)
	s.SetCurrentPosition(0)
	require.Equal(t, int32(0), s.CurrentPosition())
	require.Equal(t, int32(0), s.DistanceToGo())
	require.Equal(t, float64(0), s.Speed())
	require.False(t, s.Run())
}

func TestDisableOutputsReleasesCoils(t *testing.T) {
	s, _, out := newTestStepper()
	s.DisableOutputs()
	require.False(t, s.Enabled())
	require.Equal(t, []byte{0}, out.patterns)
	s.EnableOutputs()
	require.True(t, s.Enabled())
	require.Equal(t, -1, PatternPhase(0))
}
