// feed-producer publishes a synthetic event feed to the order topic so
// a running engine has something to chew on. Events can be generated
// or loaded from a JSON file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	orderreaderv1 "github.com/sallsdagrate/matching-core/internal/domain/order-reader/v1"
	"github.com/sallsdagrate/matching-core/internal/usecase/feed"
)

func main() {
	var (
		brokers     = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic       = flag.String("topic", "orders", "Kafka topic name")
		file        = flag.String("file", "", "JSON file with events (optional, generates events if not provided)")
		delay       = flag.Duration("delay", 100*time.Millisecond, "Delay between sending events")
		count       = flag.Int("count", 1000, "Number of events to generate")
		seed        = flag.Int64("seed", 0, "Feed RNG seed")
		newRatio    = flag.Float64("new-ratio", 0.8, "Fraction of new events")
		cancelRatio = flag.Float64("cancel-ratio", 0.2, "Fraction of cancel events")
		priceMean   = flag.Float64("price-mean", 100, "Mean price in ticks")
		priceStddev = flag.Float64("price-stddev", 5, "Price standard deviation in ticks")
	)
	flag.Parse()

	// Create Kafka writer
	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:        *topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	ctx := context.Background()

	// Load events
	var events []*orderreaderv1.EventPayload
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read file %s: %v", *file, err)
		}
		if err := json.Unmarshal(data, &events); err != nil {
			log.Fatalf("Failed to parse JSON from file: %v", err)
		}
		log.Printf("Loaded %d events from file: %s", len(events), *file)
	} else {
		log.Printf("Generating %d events...", *count)
		gen := feed.NewGenerator(feed.Config{
			Seed:        *seed,
			NewRatio:    *newRatio,
			CancelRatio: *cancelRatio,
			PriceMean:   *priceMean,
			PriceStddev: *priceStddev,
			MaxQuantity: 100,
		})
		events = make([]*orderreaderv1.EventPayload, *count)
		for i := range events {
			events[i] = gen.Next()
		}
		log.Printf("Generated %d events", len(events))
	}

	log.Printf("Sending events to Kafka broker: %s, topic: %s", *brokers, *topic)
	log.Printf("Delay between events: %v", *delay)

	// Send events
	for i, event := range events {
		eventJSON, err := json.Marshal(event)
		if err != nil {
			log.Printf("Failed to marshal event %d: %v", i+1, err)
			continue
		}

		msg := kafka.Message{
			Value: eventJSON,
			Time:  time.Now(),
		}

		if err := writer.WriteMessages(ctx, msg); err != nil {
			log.Printf("Failed to send event %d (order %d): %v", i+1, event.OrderID, err)
			continue
		}

		// Log progress every 100 events or for the last event
		if (i+1)%100 == 0 || i == len(events)-1 {
			if event.Kind == "cancel" {
				log.Printf("Sent event %d/%d: %s order %d",
					i+1, len(events), event.Kind, event.OrderID)
			} else {
				log.Printf("Sent event %d/%d: %s %s order %d | Qty: %d @ %d ticks",
					i+1, len(events), event.Kind, event.Side, event.OrderID,
					event.Quantity, event.Price)
			}
		}

		// Wait before sending next event (except for the last one)
		if i < len(events)-1 {
			time.Sleep(*delay)
		}
	}

	log.Printf("Successfully sent all %d events!", len(events))

	// Print summary
	newEvents := 0
	cancelEvents := 0
	replaceEvents := 0
	buyEvents := 0
	sellEvents := 0

	for _, event := range events {
		switch event.Kind {
		case "new":
			newEvents++
		case "cancel":
			cancelEvents++
		case "replace":
			replaceEvents++
		}
		switch event.Side {
		case "buy":
			buyEvents++
		case "sell":
			sellEvents++
		}
	}

	log.Printf("--- Summary ---")
	log.Printf("Total Events: %d", len(events))
	log.Printf("New: %d", newEvents)
	log.Printf("Cancel: %d", cancelEvents)
	log.Printf("Replace: %d", replaceEvents)
	log.Printf("Buy: %d / Sell: %d", buyEvents, sellEvents)
}
