package tradepublisher

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	orderbookv1 "github.com/sallsdagrate/matching-core/internal/domain/orderbook/v1"
	tradepublisherv1 "github.com/sallsdagrate/matching-core/internal/domain/trade-publisher/v1"
	"github.com/sallsdagrate/matching-core/pkg/config"
	"github.com/sallsdagrate/matching-core/pkg/errors"
	"github.com/sallsdagrate/matching-core/pkg/logger"
)

// Publisher represents a Kafka Publisher for publishing executed trades.
type Publisher struct {
	kafkaWriter *kafka.Writer
	logger      logger.Interface
}

// NewPublisher creates a new Kafka publisher for the trade topic.
func NewPublisher(cfg config.KafkaConfig, log logger.Interface) *Publisher {
	kafkaWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.TradeTopic,
	})

	return &Publisher{
		kafkaWriter: kafkaWriter,
		logger:      log,
	}
}

// PublishTrades publishes the trades of one drained event, in execution order.
func (p *Publisher) PublishTrades(ctx context.Context, trades []orderbookv1.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(trades))
	for i := range trades {
		value, err := json.Marshal(tradepublisherv1.FromTrade(&trades[i]))
		if err != nil {
			p.logger.Error(err,
				logger.Field{Key: "error", Value: err.Error()},
				logger.Field{Key: "operation", Value: "MarshalTrade"},
			)
			return errors.NewTracer("failed to marshal trade").Wrap(err)
		}
		msgs = append(msgs, kafka.Message{Value: value})
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error(err,
			logger.Field{Key: "error", Value: err.Error()},
			logger.Field{Key: "trades", Value: len(trades)},
		)
		return errors.NewTracer("failed to publish trades").Wrap(err)
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}
