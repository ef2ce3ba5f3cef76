package orderbookv1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookStats_Counters(t *testing.T) {
	s := NewBookStats(16)

	s.RecordProduced(KindNew)
	s.RecordProduced(KindNew)
	s.RecordProduced(KindCancel)
	s.RecordProduced(KindReplace)

	s.RecordConsumed(KindNew)
	s.RecordConsumed(KindCancel)

	assert.Equal(t, uint64(4), s.Produced.Load())
	assert.Equal(t, uint64(2), s.ProducedNew.Load())
	assert.Equal(t, uint64(1), s.ProducedCancel.Load())
	assert.Equal(t, uint64(1), s.ProducedReplace.Load())
	assert.Equal(t, uint64(2), s.Consumed.Load())
	assert.Equal(t, uint64(1), s.ConsumedNew.Load())
	assert.Equal(t, uint64(1), s.ConsumedCancel.Load())
}

func TestBookStats_Percentile(t *testing.T) {
	s := NewBookStats(0)
	assert.Equal(t, int64(0), s.Percentile(50))

	// Insert out of order; percentiles index the sorted samples.
	for _, ns := range []int64{500, 100, 300, 200, 400} {
		s.RecordLatency(time.Duration(ns))
	}
	s.SortLatencies()

	assert.Equal(t, int64(100), s.Percentile(0))
	assert.Equal(t, int64(300), s.Percentile(50))
	assert.Equal(t, int64(500), s.Percentile(100))
}
