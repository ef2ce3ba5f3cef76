package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MustLoad loads the configuration from environment variables and .env file.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load() // Load environment variables from .env file

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and .env file.
func Load[T any](cfg T) error {
	if err := godotenv.Load(); err != nil {
		return err // Return error if .env file loading fails
	}

	if err := env.Parse(cfg); err != nil {
		return err // Return error if environment variable parsing fails
	}

	return nil // Return nil if everything is successful
}

// Config holds the configuration for the engine
type Config struct {
	Pair        string               `env:"PAIR" envDefault:"BTC-USD"` // Trading pair, e.g., BTC-USD
	RingSize    int                  `env:"RING_SIZE" envDefault:"65536"`
	KafkaConfig `envPrefix:"KAFKA_"` // Kafka configuration
}

// KafkaConfig holds the configuration for the Kafka feed and trade topics.
type KafkaConfig struct {
	Brokers    []string `env:"BROKER,required"`
	OrderTopic string   `env:"ORDER_TOPIC" envDefault:"orders"`
	TradeTopic string   `env:"TRADE_TOPIC" envDefault:"trades"`
	GroupID    string   `env:"GROUP_ID" envDefault:"matching-core"`
}
