// Package engine wires the feed, the ring and the book into the
// producer/consumer pipeline: one goroutine reads payloads from the
// OrderReader and pushes events into the ring, while the matching
// goroutine drains the ring, dispatches each event to the book and
// publishes the resulting trades.
package engine

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	orderbookv1 "github.com/sallsdagrate/matching-core/internal/domain/orderbook/v1"
	orderreaderv1 "github.com/sallsdagrate/matching-core/internal/domain/order-reader/v1"
	ringv1 "github.com/sallsdagrate/matching-core/internal/domain/ring/v1"
	tradepublisherv1 "github.com/sallsdagrate/matching-core/internal/domain/trade-publisher/v1"
	"github.com/sallsdagrate/matching-core/pkg/config"
	"github.com/sallsdagrate/matching-core/pkg/logger"
)

// Engine owns one matching pipeline. The book is touched by the
// matching goroutine only; the ring, the end-of-stream flag and the
// atomic stats counters are the only state shared between the two
// goroutines.
type Engine struct {
	book      *orderbookv1.Book
	ring      *ringv1.Ring[orderbookv1.Event]
	reader    orderreaderv1.OrderReader
	publisher tradepublisherv1.TradePublisher
	logger    logger.Interface
	cfg       *config.Config

	stats *orderbookv1.BookStats

	// endOfStream is published by the producer once the reader is
	// exhausted; the consumer drains the ring before honouring it.
	endOfStream atomic.Bool

	// trades is the shared output sink handed to the book by
	// reference; reset per drained event.
	trades []orderbookv1.Trade

	seq uint64
}

// NewEngine wires the engine dependencies.
func NewEngine(
	book *orderbookv1.Book,
	ring *ringv1.Ring[orderbookv1.Event],
	reader orderreaderv1.OrderReader,
	publisher tradepublisherv1.TradePublisher,
	log logger.Interface,
	cfg *config.Config,
	opts ...Option,
) *Engine {
	e := &Engine{
		book:      book,
		ring:      ring,
		reader:    reader,
		publisher: publisher,
		logger:    log,
		cfg:       cfg,
		stats:     orderbookv1.NewBookStats(1024),
		trades:    make([]orderbookv1.Trade, 0, 1024),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stats returns the run accumulators. The latency samples are only
// consistent after Run has returned.
func (e *Engine) Stats() *orderbookv1.BookStats {
	return e.stats
}

// Run starts the producer goroutine and runs the matching loop on the
// calling goroutine until the feed is exhausted and the ring drained.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("engine running",
		logger.Field{Key: "pair", Value: e.cfg.Pair},
		logger.Field{Key: "ringCapacity", Value: e.ring.Capacity()},
	)

	go e.produce(ctx)
	e.consume(ctx)
}

// produce reads payloads, assigns strictly increasing sequence numbers
// and ingress timestamps, and pushes into the ring, spinning while the
// ring is full. io.EOF, context cancellation and unrecoverable reader
// errors all end the stream.
func (e *Engine) produce(ctx context.Context) {
	defer e.endOfStream.Store(true)

	for {
		payload, err := e.reader.ReadEvent(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return
			}
			e.logger.Error(err, logger.Field{Key: "operation", Value: "ReadEvent"})
			return
		}

		e.seq++
		event, err := payload.ToEvent(e.seq, time.Now())
		if err != nil {
			// Malformed payloads are dropped at ingress; the book only
			// ever sees well-formed events.
			e.stats.Rejected.Add(1)
			e.logger.Warn("dropping malformed event",
				logger.Field{Key: "error", Value: err.Error()},
				logger.Field{Key: "kind", Value: payload.Kind},
				logger.Field{Key: "orderID", Value: payload.OrderID},
			)
			continue
		}

		for !e.ring.TryPush(event) {
			runtime.Gosched()
		}
		e.stats.RecordProduced(event.Kind)
	}
}

// consume drains the ring and dispatches each event. On an empty ring
// it checks the end-of-stream flag and then rechecks Empty before
// exiting, so no published event is ever lost.
func (e *Engine) consume(ctx context.Context) {
	var event orderbookv1.Event
	for {
		if !e.ring.TryPop(&event) {
			if e.endOfStream.Load() && e.ring.Empty() {
				return
			}
			runtime.Gosched()
			continue
		}

		e.stats.RecordLatency(time.Since(event.IngressAt))
		e.dispatch(ctx, &event)
	}
}

// dispatch routes one event to the book and publishes produced trades.
func (e *Engine) dispatch(ctx context.Context, event *orderbookv1.Event) {
	e.trades = e.trades[:0]

	var accepted bool
	switch event.Kind {
	case orderbookv1.KindNew:
		accepted = e.book.OnNew(event, &e.trades)
	case orderbookv1.KindCancel:
		accepted = e.book.OnCancel(event.OrderID)
	case orderbookv1.KindReplace:
		accepted = e.book.OnReplace(event, &e.trades)
	}
	e.stats.RecordConsumed(event.Kind)

	if !accepted {
		// Rejections are control flow, not errors: unknown cancel ids
		// and invalid news are expected in a raw feed.
		e.stats.Rejected.Add(1)
		e.logger.Debug("event rejected",
			logger.Field{Key: "kind", Value: event.Kind.String()},
			logger.Field{Key: "orderID", Value: event.OrderID},
			logger.Field{Key: "seq", Value: event.Seq},
		)
	}

	if len(e.trades) > 0 {
		e.stats.Trades.Add(uint64(len(e.trades)))
		if err := e.publisher.PublishTrades(ctx, e.trades); err != nil {
			e.logger.Error(err,
				logger.Field{Key: "operation", Value: "PublishTrades"},
				logger.Field{Key: "seq", Value: event.Seq},
			)
		}
	}
}
