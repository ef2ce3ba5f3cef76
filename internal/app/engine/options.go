package engine

import (
	orderbookv1 "github.com/sallsdagrate/matching-core/internal/domain/orderbook/v1"
)

// Option customises an Engine at construction time.
type Option func(*Engine)

// WithStats replaces the default accumulator, letting callers pre-size
// the latency vector for a known event count.
func WithStats(stats *orderbookv1.BookStats) Option {
	return func(e *Engine) {
		e.stats = stats
	}
}
