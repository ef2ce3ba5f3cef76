// Benchmark harness for the matching pipeline: replays a synthetic
// feed through the real producer/consumer loop and reports end-to-end
// latency percentiles and throughput.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/sallsdagrate/matching-core/internal/app/engine"
	orderbookv1 "github.com/sallsdagrate/matching-core/internal/domain/orderbook/v1"
	ringv1 "github.com/sallsdagrate/matching-core/internal/domain/ring/v1"
	"github.com/sallsdagrate/matching-core/internal/usecase/feed"
	"github.com/sallsdagrate/matching-core/pkg/config"
	"github.com/sallsdagrate/matching-core/pkg/logger"
)

// sink implements TradePublisher by discarding; the engine still
// counts trades in its stats.
type sink struct{}

func (sink) PublishTrades(ctx context.Context, trades []orderbookv1.Trade) error { return nil }
func (sink) Close() error                                                        { return nil }

func main() {
	var (
		events      = flag.Int("events", 1<<20, "Number of events to replay")
		ringSize    = flag.Int("ring", 1024, "Ring capacity (power of two)")
		seed        = flag.Int64("seed", 0, "Feed RNG seed")
		newRatio    = flag.Float64("new-ratio", 0.8, "Fraction of new events")
		cancelRatio = flag.Float64("cancel-ratio", 0.2, "Fraction of cancel events")
		priceMean   = flag.Float64("price-mean", 100, "Mean price in ticks")
		priceStddev = flag.Float64("price-stddev", 5, "Price standard deviation in ticks")
		maxQty      = flag.Int("max-qty", 100, "Maximum order quantity")
		dump        = flag.Bool("dump", false, "Dump the residual book after the run")
	)
	flag.Parse()

	logg, err := logger.NewLogger(logger.WithLoggingLevel(logger.WarnLevel))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logg.Sync()

	ring, err := ringv1.New[orderbookv1.Event](*ringSize)
	if err != nil {
		log.Fatalf("invalid ring capacity: %v", err)
	}

	gen := feed.NewGenerator(feed.Config{
		Seed:        *seed,
		NewRatio:    *newRatio,
		CancelRatio: *cancelRatio,
		PriceMean:   *priceMean,
		PriceStddev: *priceStddev,
		MaxQuantity: int32(*maxQty),
	})
	reader := feed.NewReader(gen, *events)

	book := orderbookv1.NewBook()
	stats := orderbookv1.NewBookStats(*events)
	eng := engine.NewEngine(
		book, ring, reader, sink{}, logg,
		&config.Config{RingSize: *ringSize},
		engine.WithStats(stats),
	)

	start := time.Now()
	eng.Run(context.Background())
	elapsed := time.Since(start)

	report(stats, elapsed)

	if *dump {
		fmt.Println(book.Dump())
	}
}

func report(stats *orderbookv1.BookStats, elapsed time.Duration) {
	stats.SortLatencies()

	fmt.Printf("events: %d (new %d, cancel %d, replace %d), rejected %d\n",
		stats.Consumed.Load(),
		stats.ConsumedNew.Load(),
		stats.ConsumedCancel.Load(),
		stats.ConsumedReplace.Load(),
		stats.Rejected.Load(),
	)

	if n := len(stats.LatenciesNs); n > 0 {
		fmt.Printf("latencies (ns) min: %d | p50: %d | p95: %d | p99: %d | max: %d\n",
			stats.LatenciesNs[0],
			stats.Percentile(50),
			stats.Percentile(95),
			stats.Percentile(99),
			stats.LatenciesNs[n-1],
		)
	}

	ms := elapsed.Milliseconds()
	if ms == 0 {
		ms = 1
	}
	fmt.Printf("throughput: %d events in %d ms, %d events/ms\n",
		stats.Consumed.Load(), ms, stats.Consumed.Load()/uint64(ms))
	fmt.Printf("trades: %d, %d trades/ms\n",
		stats.Trades.Load(), stats.Trades.Load()/uint64(ms))
}
