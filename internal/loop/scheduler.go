package loop

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler runs the driver on a jittered interval. Ticks never overlap:
// the next wait only starts once the previous tick has fully finished.
type Scheduler struct {
	driver      *Driver
	minInterval time.Duration
	maxInterval time.Duration
	clock       Clock
	rng         *rand.Rand
	logger      zerolog.Logger
}

// NewScheduler creates a scheduler. Intervals are clamped so that
// max >= min and both are positive.
func NewScheduler(driver *Driver, minInterval, maxInterval time.Duration, clock Clock, logger zerolog.Logger) *Scheduler {
	if minInterval <= 0 {
		minInterval = time.Minute
	}
	if maxInterval < minInterval {
		maxInterval = minInterval
	}
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{
		driver:      driver,
		minInterval: minInterval,
		maxInterval: maxInterval,
		clock:       clock,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:      logger.With().Str("component", "scheduler").Logger(),
	}
}

// Run loads the cursor, then ticks until ctx is cancelled. Tick errors are
// logged, never fatal: the loop carries on with whatever cursor the failed
// tick left behind.
func (s *Scheduler) Run(ctx context.Context) error {
	cur, err := s.driver.LoadCursor()
	if err != nil {
		return err
	}

	for {
		next, err := s.driver.Tick(ctx, cur)
		if err != nil {
			s.logger.Error().Err(err).Str("cursor", next).Msg("tick failed")
		}
		cur = next

		wait := s.nextInterval()
		s.logger.Debug().Dur("wait", wait).Msg("sleeping until next tick")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(wait):
		}
	}
}

// nextInterval picks a uniformly random duration in [min, max].
func (s *Scheduler) nextInterval() time.Duration {
	spread := s.maxInterval - s.minInterval
	if spread <= 0 {
		return s.minInterval
	}
	return s.minInterval + time.Duration(s.rng.Int63n(int64(spread)+1))
}
