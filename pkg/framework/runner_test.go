package framework

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunnerAggregatesErrors(t *testing.T) {
	failure := errors.New("failure")
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx).Go(
		NamedRun("fail", RunnableFunc(func(ctx context.Context) error {
			cancel()
			return failure
		})),
		RunnableFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	require.Len(t, r.Runners, 2)
	require.Equal(t, "fail", r.Runners[0].(Named).Name())
	require.Equal(t, failure, r.Wait())
}

type testCloser struct {
	closed  int
	unblock chan struct{}
}

func (c *testCloser) Close() error {
	c.closed++
	if c.closed == 1 {
		close(c.unblock)
	}
	return nil
}

func TestRunWithContextCloser(t *testing.T) {
	c := &testCloser{unblock: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunWithContextCloser(ctx, c, func() error {
		<-c.unblock
		return errors.New("closed")
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 1, c.closed)

	c = &testCloser{unblock: make(chan struct{})}
	require.NoError(t, RunWithContextCloser(context.Background(), c, func() error { return nil }))
	require.Equal(t, 1, c.closed)
}
