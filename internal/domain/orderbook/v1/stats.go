package orderbookv1

import (
	"sort"
	"sync/atomic"
	"time"
)

// BookStats accumulates counters for one engine run. Produced counters
// are written by the ingress goroutine and consumed counters by the
// matching goroutine, so all counters are atomics; the latency samples
// belong to the matching goroutine alone and are read after the run.
type BookStats struct {
	Produced        atomic.Uint64
	ProducedNew     atomic.Uint64
	ProducedCancel  atomic.Uint64
	ProducedReplace atomic.Uint64

	Consumed        atomic.Uint64
	ConsumedNew     atomic.Uint64
	ConsumedCancel  atomic.Uint64
	ConsumedReplace atomic.Uint64

	Rejected atomic.Uint64
	Trades   atomic.Uint64

	LatenciesNs []int64
}

// NewBookStats pre-sizes the latency vector for n samples.
func NewBookStats(n int) *BookStats {
	return &BookStats{
		LatenciesNs: make([]int64, 0, n),
	}
}

// RecordProduced counts one event entering the ring.
func (s *BookStats) RecordProduced(kind EventKind) {
	s.Produced.Add(1)
	switch kind {
	case KindNew:
		s.ProducedNew.Add(1)
	case KindCancel:
		s.ProducedCancel.Add(1)
	case KindReplace:
		s.ProducedReplace.Add(1)
	}
}

// RecordConsumed counts one event drained from the ring.
func (s *BookStats) RecordConsumed(kind EventKind) {
	s.Consumed.Add(1)
	switch kind {
	case KindNew:
		s.ConsumedNew.Add(1)
	case KindCancel:
		s.ConsumedCancel.Add(1)
	case KindReplace:
		s.ConsumedReplace.Add(1)
	}
}

// RecordLatency appends one ingress-to-egress sample. Matching
// goroutine only.
func (s *BookStats) RecordLatency(d time.Duration) {
	s.LatenciesNs = append(s.LatenciesNs, d.Nanoseconds())
}

// SortLatencies sorts the samples in place; Percentile requires it.
func (s *BookStats) SortLatencies() {
	sort.Slice(s.LatenciesNs, func(i, j int) bool {
		return s.LatenciesNs[i] < s.LatenciesNs[j]
	})
}

// Percentile returns the p-th percentile (0..100) of the sorted
// latency samples, or 0 when no samples were recorded.
func (s *BookStats) Percentile(p float64) int64 {
	if len(s.LatenciesNs) == 0 {
		return 0
	}
	idx := int(p / 100.0 * float64(len(s.LatenciesNs)-1))
	return s.LatenciesNs[idx]
}
