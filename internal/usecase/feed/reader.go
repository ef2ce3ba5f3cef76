package feed

import (
	"context"
	"io"

	orderreaderv1 "github.com/sallsdagrate/matching-core/internal/domain/order-reader/v1"
)

// Reader adapts a Generator to the OrderReader interface with a fixed
// event budget, so the bench binary drives the real engine loop.
type Reader struct {
	gen       *Generator
	remaining int
}

// NewReader wraps gen and serves exactly count events before EOF.
func NewReader(gen *Generator, count int) *Reader {
	return &Reader{
		gen:       gen,
		remaining: count,
	}
}

// ReadEvent returns the next synthetic event, or io.EOF once the
// budget is exhausted or the context is cancelled.
func (r *Reader) ReadEvent(ctx context.Context) (*orderreaderv1.EventPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, io.EOF
	}
	if r.remaining <= 0 {
		return nil, io.EOF
	}
	r.remaining--
	return r.gen.Next(), nil
}

// Close implements OrderReader; there is nothing to release.
func (r *Reader) Close() error {
	return nil
}
