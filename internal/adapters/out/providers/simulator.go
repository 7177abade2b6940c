package providers

import (
	"context"
	"math/rand/v2"
	"strconv"
	"time"

	"shipping/internal/core/domain/model/kernel"
)

// Option tunes a simulated carrier.
type Option func(*simulator)

// WithClock pins the time used for tracking ids, label names and status
// progression.
func WithClock(clock kernel.Clock) Option {
	return func(s *simulator) {
		s.clock = clock
	}
}

// WithRandom replaces the uniform [0,1) source used for failures, latency and
// tracking suffixes.
func WithRandom(random func() float64) Option {
	return func(s *simulator) {
		s.random = random
	}
}

// WithFailureRate sets the probability that a label request fails.
func WithFailureRate(rate float64) Option {
	return func(s *simulator) {
		s.failureRate = rate
	}
}

// WithLatency sets the simulated round trip range. A zero max disables it.
func WithLatency(minLatency, maxLatency time.Duration) Option {
	return func(s *simulator) {
		s.minLatency = minLatency
		s.maxLatency = maxLatency
	}
}

// WithoutLatency answers immediately.
func WithoutLatency() Option {
	return WithLatency(0, 0)
}

type simulator struct {
	clock       kernel.Clock
	random      func() float64
	failureRate float64
	minLatency  time.Duration
	maxLatency  time.Duration
}

func newSimulator(failureRate float64, minLatency, maxLatency time.Duration, opts []Option) simulator {
	s := simulator{
		clock:       kernel.SystemClock,
		random:      rand.Float64,
		failureRate: failureRate,
		minLatency:  minLatency,
		maxLatency:  maxLatency,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// roundTrip waits for the simulated latency or until ctx is done.
func (s simulator) roundTrip(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.maxLatency <= 0 {
		return nil
	}

	delay := s.minLatency + time.Duration(s.random()*float64(s.maxLatency-s.minLatency))
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s simulator) fails() bool {
	return s.random() < s.failureRate
}

// trackingID follows the carriers' <prefix><unix-ms><0..999> format.
func (s simulator) trackingID(prefix string, now time.Time) string {
	return prefix + strconv.FormatInt(now.UnixMilli(), 10) + strconv.Itoa(int(s.random()*1000))
}
