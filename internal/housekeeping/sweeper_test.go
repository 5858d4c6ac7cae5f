package housekeeping

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) Sweep(context.Context) (int, int, error) {
	s.calls.Add(1)
	return 2, 1, s.err
}

func TestRunOnce(t *testing.T) {
	sw := &countingSweeper{}
	sc, err := New(sw, Config{})
	require.NoError(t, err)
	assert.True(t, sc.LastRun().IsZero())

	sc.RunOnce(context.Background())
	assert.EqualValues(t, 1, sw.calls.Load())
	assert.False(t, sc.LastRun().IsZero())

	sw.err = errors.New("store down")
	sc.RunOnce(context.Background())
	assert.EqualValues(t, 2, sw.calls.Load())
}

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New(&countingSweeper{}, Config{Spec: "every now and then"})
	require.Error(t, err)
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	sw := &countingSweeper{}
	sc, err := New(sw, Config{Spec: "@every 1s", Timeout: time.Second})
	require.NoError(t, err)
	sc.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, sc.Stop(ctx))
	}()

	assert.Eventually(t, func() bool { return sw.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}
