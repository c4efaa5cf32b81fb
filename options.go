package knaster

import (
	"fmt"

	"github.com/ErikNatanael/knaster-sub000/metric"
)

// Option configures a graph at construction.
type Option func(*Graph) error

// WithLogger sets the logger used for graph events and drained diagnostics.
func WithLogger(l Logger) Option {
	return func(g *Graph) error {
		g.log = l
		return nil
	}
}

// WithMetric routes the engine counters through m, which the caller may have
// published. A private unpublished set is used otherwise.
func WithMetric(m *metric.Counters) Option {
	return func(g *Graph) error {
		g.counters = m
		return nil
	}
}

// WithQueueCapacity sets how many compiled generations may sit between
// Commit and the audio role. Commits past that return ErrQueueFull.
func WithQueueCapacity(n int) Option {
	return func(g *Graph) error {
		if n < 1 {
			return fmt.Errorf("%w: queue capacity %d", ErrInvalidConfig, n)
		}
		g.queueCap = n
		return nil
	}
}

// WithEventCapacity sets how many scheduled changes may sit between Schedule
// and the audio role. Schedules past that return ErrQueueFull.
func WithEventCapacity(n int) Option {
	return func(g *Graph) error {
		if n < 1 {
			return fmt.Errorf("%w: event capacity %d", ErrInvalidConfig, n)
		}
		g.eventCap = n
		return nil
	}
}

// WithPendingEvents caps how many scheduled changes the audio role may hold
// while their conditions are unmet. On overflow the oldest pending change is
// dropped and reported.
func WithPendingEvents(n int) Option {
	return func(g *Graph) error {
		if n < 1 {
			return fmt.Errorf("%w: pending events %d", ErrInvalidConfig, n)
		}
		g.pendingCap = n
		return nil
	}
}
