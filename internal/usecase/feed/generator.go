// Package feed generates a synthetic exchange feed for benchmarks and
// tools: a seeded random mix of new, cancel and replace events with
// normally distributed prices.
package feed

import (
	"math"
	"math/rand"

	orderreaderv1 "github.com/sallsdagrate/matching-core/internal/domain/order-reader/v1"
)

// Config controls the event mix and distributions of a Generator.
type Config struct {
	Seed int64

	// NewRatio and CancelRatio partition [0,1); the remainder becomes
	// replaces.
	NewRatio    float64
	CancelRatio float64

	PriceMean   float64
	PriceStddev float64
	MaxQuantity int32
}

// DefaultConfig mirrors the feed of the order book benchmark: 80% new,
// 20% cancel, prices around 100 ticks with stddev 5, quantities 1..100.
func DefaultConfig() Config {
	return Config{
		NewRatio:    0.8,
		CancelRatio: 0.2,
		PriceMean:   100,
		PriceStddev: 5,
		MaxQuantity: 100,
	}
}

// Generator produces one event payload per call to Next. Not safe for
// concurrent use; each producing goroutine owns its own Generator.
type Generator struct {
	cfg    Config
	rng    *rand.Rand
	lastID uint64
}

// NewGenerator creates a generator seeded from cfg.Seed.
func NewGenerator(cfg Config) *Generator {
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Next returns the next synthetic event. The first event is always a
// New so cancels and replaces have something to refer to.
func (g *Generator) Next() *orderreaderv1.EventPayload {
	p := &orderreaderv1.EventPayload{}

	kindRV := g.rng.Float64()
	if g.lastID == 0 {
		kindRV = -1 // force a New until an id exists to refer to
	}

	switch {
	case kindRV < g.cfg.NewRatio:
		p.Kind = "new"
		g.lastID++
		p.OrderID = g.lastID
	case kindRV < g.cfg.NewRatio+g.cfg.CancelRatio:
		p.Kind = "cancel"
		p.OrderID = 1 + uint64(g.rng.Int63n(int64(g.lastID)))
		return p
	default:
		p.Kind = "replace"
		p.OrderID = 1 + uint64(g.rng.Int63n(int64(g.lastID)))
	}

	if g.rng.Intn(2) == 0 {
		p.Side = "buy"
	} else {
		p.Side = "sell"
	}

	price := math.Round(g.rng.NormFloat64()*g.cfg.PriceStddev + g.cfg.PriceMean)
	if price < 1 {
		price = 1
	}
	p.Price = uint32(price)
	p.Quantity = 1 + g.rng.Int31n(g.cfg.MaxQuantity)

	return p
}
