package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/oklog/ulid/v2"

	"github.com/sallsdagrate/matching-core/internal/app/engine"
	orderbookv1 "github.com/sallsdagrate/matching-core/internal/domain/orderbook/v1"
	ringv1 "github.com/sallsdagrate/matching-core/internal/domain/ring/v1"
	orderreader "github.com/sallsdagrate/matching-core/internal/usecase/order-reader"
	tradepublisher "github.com/sallsdagrate/matching-core/internal/usecase/trade-publisher"
	"github.com/sallsdagrate/matching-core/pkg/config"
	"github.com/sallsdagrate/matching-core/pkg/logger"
)

func main() {
	cfg := &config.Config{}
	config.MustLoad(cfg)

	logg, err := logger.NewLogger()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logg.Sync()

	runLogger := logg.WithFields(
		logger.Field{Key: "runID", Value: ulid.Make().String()},
		logger.Field{Key: "pair", Value: cfg.Pair},
	)

	ring, err := ringv1.New[orderbookv1.Event](cfg.RingSize)
	if err != nil {
		runLogger.Error(err, logger.Field{Key: "ringSize", Value: cfg.RingSize})
		return
	}

	reader := orderreader.NewReader(cfg.KafkaConfig, runLogger)
	defer reader.Close()

	publisher := tradepublisher.NewPublisher(cfg.KafkaConfig, runLogger)
	defer publisher.Close()

	book := orderbookv1.NewBook()
	eng := engine.NewEngine(book, ring, reader, publisher, runLogger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runLogger.Info("matching engine starting",
		logger.Field{Key: "ringSize", Value: cfg.RingSize},
		logger.Field{Key: "orderTopic", Value: cfg.OrderTopic},
		logger.Field{Key: "tradeTopic", Value: cfg.TradeTopic},
	)

	eng.Run(ctx)

	stats := eng.Stats()
	runLogger.Info("matching engine stopped",
		logger.Field{Key: "consumed", Value: stats.Consumed.Load()},
		logger.Field{Key: "trades", Value: stats.Trades.Load()},
		logger.Field{Key: "rejected", Value: stats.Rejected.Load()},
	)
}
