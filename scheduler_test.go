package moonspec

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalScheduler_RequiresCallback(t *testing.T) {
	s := NewIntervalScheduler(0, true, zerolog.Nop())
	assert.Error(t, s.Start(context.Background()))
}

func TestIntervalScheduler_RunOnce(t *testing.T) {
	s := NewIntervalScheduler(0, true, zerolog.Nop())

	var calls atomic.Int32
	s.RegisterCallback(func() error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, s.Stopped())
}

func TestIntervalScheduler_RunOncePropagatesError(t *testing.T) {
	s := NewIntervalScheduler(0, true, zerolog.Nop())
	s.RegisterCallback(func() error {
		return errors.New("run failed")
	})

	assert.EqualError(t, s.Start(context.Background()), "run failed")
}

func TestIntervalScheduler_ContinuousRunsAtInterval(t *testing.T) {
	s := NewIntervalScheduler(10*time.Millisecond, false, zerolog.Nop())

	var calls atomic.Int32
	s.RegisterCallback(func() error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.Stopped())

	// The callback ran once synchronously; the ticker should add more.
	assert.Eventually(t, func() bool {
		return calls.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.True(t, s.Stopped())

	settled := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, calls.Load(), "no runs after Stop")
}

func TestIntervalScheduler_ContinuousFirstRunErrorStops(t *testing.T) {
	s := NewIntervalScheduler(10*time.Millisecond, false, zerolog.Nop())
	s.RegisterCallback(func() error {
		return errors.New("boom")
	})

	assert.Error(t, s.Start(context.Background()))
	assert.True(t, s.Stopped())
}

func TestIntervalScheduler_StopIsIdempotent(t *testing.T) {
	s := NewIntervalScheduler(time.Hour, false, zerolog.Nop())
	s.RegisterCallback(func() error { return nil })

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	assert.True(t, s.Stopped())
}
