package orderreader

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	orderreaderv1 "github.com/sallsdagrate/matching-core/internal/domain/order-reader/v1"
	"github.com/sallsdagrate/matching-core/pkg/config"
	"github.com/sallsdagrate/matching-core/pkg/logger"
)

// Reader represents a Kafka Reader for consuming events from the order topic.
type Reader struct {
	kafkaReader *kafka.Reader
	logger      logger.Interface
}

// NewReader creates a new Kafka reader for consuming events from the order topic.
// It returns an implementation of the OrderReader interface.
func NewReader(cfg config.KafkaConfig, log logger.Interface) *Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.OrderTopic,
		Partition:   0,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	return &Reader{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

// logError is a helper method to log errors consistently
func (r *Reader) logError(err error, operation string) {
	r.logger.Error(err,
		logger.Field{Key: "error", Value: err.Error()},
		logger.Field{Key: "operation", Value: operation},
	)
}

// ReadEvent reads a message from the order topic and parses it as an EventPayload.
func (r *Reader) ReadEvent(ctx context.Context) (*orderreaderv1.EventPayload, error) {
	msg, err := r.kafkaReader.ReadMessage(ctx)
	if err != nil {
		r.logError(err, "ReadMessage")
		return nil, err
	}

	var payload orderreaderv1.EventPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		r.logError(err, "UnmarshalEvent")
		return nil, err
	}

	r.logger.Debug("ReadEvent",
		logger.Field{Key: "kind", Value: payload.Kind},
		logger.Field{Key: "orderID", Value: payload.OrderID},
		logger.Field{Key: "price", Value: payload.Price},
		logger.Field{Key: "quantity", Value: payload.Quantity},
		logger.Field{Key: "offset", Value: msg.Offset},
	)

	return &payload, nil
}

// Close closes the underlying Kafka reader.
func (r *Reader) Close() error {
	return r.kafkaReader.Close()
}
