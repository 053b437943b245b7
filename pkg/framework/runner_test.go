package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testCloser struct {
	closed  int
	closeCh chan struct{}
	err     error
}

func (c *testCloser) Close() error {
	c.closed++
	if c.closeCh != nil {
		close(c.closeCh)
	}
	return c.err
}

func TestRunWithContextCloser(t *testing.T) {
	t.Run("closes after fn", func(t *testing.T) {
		c := &testCloser{}
		err := RunWithContextCloser(context.Background(), c, func() error { return nil })
		require.NoError(t, err)
		require.Equal(t, 1, c.closed)
	})

	t.Run("fn error wins", func(t *testing.T) {
		fnErr := errors.New("write failed")
		c := &testCloser{err: errors.New("close failed")}
		err := RunWithContextCloser(context.Background(), c, func() error { return fnErr })
		require.Equal(t, fnErr, err)
		require.Equal(t, 1, c.closed)
	})

	t.Run("close error reported", func(t *testing.T) {
		closeErr := errors.New("close failed")
		c := &testCloser{err: closeErr}
		err := RunWithContextCloser(context.Background(), c, func() error { return nil })
		require.Equal(t, closeErr, err)
	})

	t.Run("cancel closes once", func(t *testing.T) {
		c := &testCloser{closeCh: make(chan struct{})}
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		err := RunWithContextCloser(ctx, c, func() error {
			<-c.closeCh
			return errors.New("closed")
		})
		require.Equal(t, context.Canceled, err)
		require.Equal(t, 1, c.closed)
	})
}

func TestRunner(t *testing.T) {
	r := NewRunner()
	boom := errors.New("boom")
	r.Go(
		NamedRun("ok", RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
		RunFunc(func(ctx context.Context) error { return boom }),
	)
	r.StopOnError = true
	err := r.Wait()
	require.Error(t, err)
	require.True(t, errors.Is(err, boom))
	require.Equal(t, "boom", err.Error())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	errs.Add(errors.New("a"), errors.New("b"))
	require.Equal(t, "Multiple errors:\na\nb", errs.Aggregate().Error())
}

func TestRunWithContextDetach(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	block := make(chan struct{})
	defer close(block)
	var canceled bool
	done := make(chan error, 1)
	go func() {
		done <- RunWithContextDetach(ctx, func() { canceled = true }, func() error {
			<-block
			return nil
		})
	}()
	cancel()
	select {
	case err := <-done:
		require.Equal(t, context.Canceled, err)
		require.True(t, canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("not returned after cancel")
	}

	err := RunWithContextDetach(context.Background(), nil, func() error {
		return errors.New("failed")
	})
	require.EqualError(t, err, "failed")
}
