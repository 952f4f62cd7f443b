package moonspec

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// RunScheduler triggers test runs: once, or repeatedly at a fixed interval.
type RunScheduler interface {
	Start(ctx context.Context) error
	Stop() error
	RegisterCallback(func() error)
	Stopped() bool
}

// IntervalScheduler implements RunScheduler with a run-immediately-then-tick
// loop.
type IntervalScheduler struct {
	interval time.Duration
	runOnce  bool
	log      zerolog.Logger
	callback func() error

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewIntervalScheduler creates a scheduler. A zero interval with runOnce set
// runs the callback a single time.
func NewIntervalScheduler(interval time.Duration, runOnce bool, log zerolog.Logger) *IntervalScheduler {
	return &IntervalScheduler{
		interval: interval,
		runOnce:  runOnce,
		log:      log.With().Str("component", "scheduler").Logger(),
		done:     make(chan struct{}),
	}
}

// RegisterCallback sets the function invoked on every scheduled run.
func (s *IntervalScheduler) RegisterCallback(callback func() error) {
	s.callback = callback
}

// Start runs the callback immediately, then keeps re-running it at the
// configured interval until Stop is called or the context ends.
func (s *IntervalScheduler) Start(ctx context.Context) error {
	if s.callback == nil {
		return errors.New("callback must be registered before starting scheduler")
	}

	s.done = make(chan struct{})
	s.running.Store(true)

	if s.runOnce {
		s.log.Info().Msg("Starting scheduler in run-once mode")
		defer s.running.Store(false)
		return s.callback()
	}

	s.log.Info().Dur("interval", s.interval).Msg("Starting scheduler in continuous mode")

	if err := s.callback(); err != nil {
		s.running.Store(false)
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-time.After(s.interval):
				if !s.running.Load() {
					return
				}
				if err := s.callback(); err != nil {
					s.log.Error().Err(err).Msg("Scheduled run failed")
				}
			case <-s.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop halts future scheduled runs and waits for the loop to exit.
func (s *IntervalScheduler) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}
	close(s.done)
	s.wg.Wait()
	s.log.Info().Msg("Scheduler stopped")
	return nil
}

// Stopped reports whether the scheduler is no longer running.
func (s *IntervalScheduler) Stopped() bool {
	return !s.running.Load()
}
