package orderbookv1

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to build a New event with the given parameters.
func newEvent(seq uint64, id OrderID, side Side, price Price, qty int32) *Event {
	return &Event{
		Seq:       seq,
		Kind:      KindNew,
		OrderID:   id,
		Side:      side,
		Price:     price,
		Quantity:  qty,
		IngressAt: time.Now(),
	}
}

// Helper to submit a New that must be accepted.
func mustNew(t *testing.T, b *Book, seq uint64, id OrderID, side Side, price Price, qty int32, trades *[]Trade) {
	t.Helper()
	require.True(t, b.OnNew(newEvent(seq, id, side, price, qty), trades))
}

func TestNewBook(t *testing.T) {
	b := NewBook()

	assert.NotNil(t, b)
	assert.Equal(t, 0, len(b.orders))
	assert.Equal(t, 0, b.asks.Len())
	assert.Equal(t, 0, b.bids.Len())

	_, ok := b.BestBuy()
	assert.False(t, ok)
	_, ok = b.BestSell()
	assert.False(t, ok)
}

func TestBook_OnNew_Validation(t *testing.T) {
	b := NewBook()
	var trades []Trade

	t.Run("Zero price", func(t *testing.T) {
		assert.False(t, b.OnNew(newEvent(1, 1, Buy, 0, 10), &trades))
	})

	t.Run("Zero quantity", func(t *testing.T) {
		assert.False(t, b.OnNew(newEvent(2, 1, Buy, 100, 0), &trades))
	})

	t.Run("Negative quantity", func(t *testing.T) {
		assert.False(t, b.OnNew(newEvent(3, 1, Buy, 100, -5), &trades))
	})

	t.Run("Unknown side", func(t *testing.T) {
		assert.False(t, b.OnNew(newEvent(4, 1, Side(7), 100, 10), &trades))
	})

	// No state changes and no trades for rejected events.
	assert.Empty(t, trades)
	assert.Equal(t, 0, len(b.orders))
	assert.Equal(t, 0, b.bids.Len())
	assert.Equal(t, 0, b.asks.Len())
}

// S1: a resting bid is partially filled by an incoming ask at the same
// price.
func TestBook_SimpleCross(t *testing.T) {
	b := NewBook()
	var trades []Trade

	mustNew(t, b, 1, 1, Buy, 100, 10, &trades)
	require.Empty(t, trades)

	mustNew(t, b, 2, 2, Sell, 100, 4, &trades)

	require.Len(t, trades, 1)
	assert.Equal(t, OrderID(1), trades[0].BuyerID)
	assert.Equal(t, OrderID(2), trades[0].SellerID)
	assert.Equal(t, Price(100), trades[0].Price)
	assert.Equal(t, int32(4), trades[0].Quantity)

	// Bid 100x6 remains, no asks.
	best, ok := b.BestBuy()
	require.True(t, ok)
	assert.Equal(t, Price(100), best)
	assert.Equal(t, int32(6), b.orders[1].Remaining)

	_, ok = b.BestSell()
	assert.False(t, ok)
}

// S2: non-crossing orders rest on their own sides.
func TestBook_NoCross(t *testing.T) {
	b := NewBook()
	var trades []Trade

	mustNew(t, b, 1, 1, Buy, 99, 5, &trades)
	mustNew(t, b, 2, 2, Sell, 101, 5, &trades)

	assert.Empty(t, trades)

	bestBuy, ok := b.BestBuy()
	require.True(t, ok)
	assert.Equal(t, Price(99), bestBuy)

	bestSell, ok := b.BestSell()
	require.True(t, ok)
	assert.Equal(t, Price(101), bestSell)
}

// S3: an aggressive buy walks the ask side across two price levels.
func TestBook_WalkTheBook(t *testing.T) {
	b := NewBook()
	var trades []Trade

	mustNew(t, b, 1, 1, Sell, 100, 3, &trades)
	mustNew(t, b, 2, 2, Sell, 101, 5, &trades)

	mustNew(t, b, 3, 3, Buy, 101, 6, &trades)

	require.Len(t, trades, 2)
	assert.Equal(t, OrderID(3), trades[0].BuyerID)
	assert.Equal(t, OrderID(1), trades[0].SellerID)
	assert.Equal(t, Price(100), trades[0].Price)
	assert.Equal(t, int32(3), trades[0].Quantity)

	assert.Equal(t, OrderID(3), trades[1].BuyerID)
	assert.Equal(t, OrderID(2), trades[1].SellerID)
	assert.Equal(t, Price(101), trades[1].Price)
	assert.Equal(t, int32(3), trades[1].Quantity)

	// Residual ask 101x2, no bids.
	bestSell, ok := b.BestSell()
	require.True(t, ok)
	assert.Equal(t, Price(101), bestSell)
	assert.Equal(t, int32(2), b.orders[2].Remaining)

	_, ok = b.BestBuy()
	assert.False(t, ok)
}

// S4: makers at the same price trade in arrival order.
func TestBook_TimePriority(t *testing.T) {
	b := NewBook()
	var trades []Trade

	mustNew(t, b, 1, 1, Buy, 100, 4, &trades)
	mustNew(t, b, 2, 2, Buy, 100, 4, &trades)

	mustNew(t, b, 3, 3, Sell, 100, 6, &trades)

	require.Len(t, trades, 2)
	assert.Equal(t, OrderID(1), trades[0].BuyerID)
	assert.Equal(t, OrderID(3), trades[0].SellerID)
	assert.Equal(t, int32(4), trades[0].Quantity)

	assert.Equal(t, OrderID(2), trades[1].BuyerID)
	assert.Equal(t, OrderID(3), trades[1].SellerID)
	assert.Equal(t, int32(2), trades[1].Quantity)

	// id=2 keeps 2 behind at 100.
	assert.Equal(t, int32(2), b.orders[2].Remaining)
	_, stillThere := b.orders[1]
	assert.False(t, stillThere)
}

// S5: a cancelled head never trades; the incoming order rests instead.
func TestBook_CancelAtHead(t *testing.T) {
	b := NewBook()
	var trades []Trade

	mustNew(t, b, 1, 1, Buy, 100, 5, &trades)
	require.True(t, b.OnCancel(1))

	mustNew(t, b, 2, 2, Sell, 100, 5, &trades)

	assert.Empty(t, trades)

	// The cancelled bid was reaped while repairing the buy side.
	_, reaped := b.orders[1]
	assert.False(t, reaped)

	bestSell, ok := b.BestSell()
	require.True(t, ok)
	assert.Equal(t, Price(100), bestSell)

	_, ok = b.BestBuy()
	assert.False(t, ok)
}

func TestBook_CancelUnknown(t *testing.T) {
	b := NewBook()

	assert.False(t, b.OnCancel(42))
	assert.Equal(t, 0, len(b.orders))
}

// S6: replace re-enters at the tail of its level.
func TestBook_ReplaceLosesPriority(t *testing.T) {
	b := NewBook()
	var trades []Trade

	mustNew(t, b, 1, 1, Buy, 100, 3, &trades)
	mustNew(t, b, 2, 2, Buy, 100, 3, &trades)

	replace := newEvent(3, 1, Buy, 100, 3)
	replace.Kind = KindReplace
	require.True(t, b.OnReplace(replace, &trades))
	require.Empty(t, trades)

	mustNew(t, b, 4, 3, Sell, 100, 3, &trades)

	require.Len(t, trades, 1)
	assert.Equal(t, OrderID(2), trades[0].BuyerID)
	assert.Equal(t, OrderID(3), trades[0].SellerID)
	assert.Equal(t, int32(3), trades[0].Quantity)

	// id=1 is still resting, now behind where id=2 was.
	assert.Equal(t, int32(3), b.orders[1].Remaining)
	assert.True(t, b.orders[1].Active)
}

func TestBook_ReplaceUnknown(t *testing.T) {
	b := NewBook()
	var trades []Trade

	replace := newEvent(1, 9, Buy, 100, 3)
	replace.Kind = KindReplace
	assert.False(t, b.OnReplace(replace, &trades))
	assert.Empty(t, trades)
	assert.Equal(t, 0, len(b.orders))
}

func TestBook_ReplaceMovesPrice(t *testing.T) {
	b := NewBook()
	var trades []Trade

	mustNew(t, b, 1, 1, Sell, 105, 5, &trades)

	replace := newEvent(2, 1, Sell, 101, 5)
	replace.Kind = KindReplace
	require.True(t, b.OnReplace(replace, &trades))

	bestSell, ok := b.BestSell()
	require.True(t, ok)
	assert.Equal(t, Price(101), bestSell)
	assert.Equal(t, Price(101), b.orders[1].Price)
}

// A replace is cancel-then-new, so it may cross immediately.
func TestBook_ReplaceCanMatch(t *testing.T) {
	b := NewBook()
	var trades []Trade

	mustNew(t, b, 1, 1, Sell, 101, 5, &trades)
	mustNew(t, b, 2, 2, Buy, 99, 5, &trades)
	require.Empty(t, trades)

	replace := newEvent(3, 2, Buy, 101, 5)
	replace.Kind = KindReplace
	require.True(t, b.OnReplace(replace, &trades))

	require.Len(t, trades, 1)
	assert.Equal(t, OrderID(2), trades[0].BuyerID)
	assert.Equal(t, OrderID(1), trades[0].SellerID)
	assert.Equal(t, Price(101), trades[0].Price)
	assert.Equal(t, int32(5), trades[0].Quantity)
}

// S7: the best cache reaps a long run of cancelled levels lazily while
// advancing to the surviving order.
func TestBook_BestCacheUnderBurstyCancels(t *testing.T) {
	b := NewBook()
	var trades []Trade

	const levels = 1000
	for i := 1; i <= levels; i++ {
		mustNew(t, b, uint64(i), OrderID(i), Sell, Price(1000+i), 10, &trades)
	}
	for i := 1; i < levels; i++ {
		require.True(t, b.OnCancel(OrderID(i)))
	}

	mustNew(t, b, levels+1, 5000, Buy, Price(1000+levels), 10, &trades)

	require.Len(t, trades, 1)
	assert.Equal(t, OrderID(5000), trades[0].BuyerID)
	assert.Equal(t, OrderID(levels), trades[0].SellerID)
	assert.Equal(t, Price(1000+levels), trades[0].Price)
	assert.Equal(t, int32(10), trades[0].Quantity)

	// Every empty level was erased on the way, and the side is empty.
	assert.Equal(t, 0, b.asks.Len())
	assert.False(t, b.bestAskValid)
	assert.Equal(t, 0, len(b.orders))
}

// Stale entries deeper in the book may linger, but never at the best.
func TestBook_StaleTailsAllowedDeeper(t *testing.T) {
	b := NewBook()
	var trades []Trade

	mustNew(t, b, 1, 1, Sell, 100, 5, &trades)
	mustNew(t, b, 2, 2, Sell, 110, 5, &trades)
	require.True(t, b.OnCancel(2))

	bestSell, ok := b.BestSell()
	require.True(t, ok)
	assert.Equal(t, Price(100), bestSell)

	// The cancelled order is reaped only once its level becomes the
	// best; until then the record is merely inactive.
	assert.False(t, b.orders[2].Active)
	assert.Equal(t, 2, b.asks.Len())
}

func TestBook_PartialFillRests(t *testing.T) {
	b := NewBook()
	var trades []Trade

	mustNew(t, b, 1, 1, Sell, 100, 4, &trades)
	mustNew(t, b, 2, 2, Buy, 100, 10, &trades)

	require.Len(t, trades, 1)
	assert.Equal(t, int32(4), trades[0].Quantity)

	// The aggressor's residual rests on the buy side.
	bestBuy, ok := b.BestBuy()
	require.True(t, ok)
	assert.Equal(t, Price(100), bestBuy)
	assert.Equal(t, int32(6), b.orders[2].Remaining)

	_, ok = b.BestSell()
	assert.False(t, ok)
}

// The book must never be crossed after any accepted event, and all
// emitted trades must carry positive quantities and known ids.
func TestBook_RandomFeedInvariants(t *testing.T) {
	b := NewBook()
	rng := rand.New(rand.NewSource(7))

	issued := map[OrderID]bool{}
	var trades []Trade
	var nextID OrderID

	for i := 0; i < 20000; i++ {
		trades = trades[:0]
		seq := uint64(i + 1)

		roll := rng.Float64()
		switch {
		case roll < 0.75 || nextID == 0:
			nextID++
			side := Buy
			if rng.Intn(2) == 1 {
				side = Sell
			}
			price := Price(math.Max(1, math.Round(rng.NormFloat64()*5+100)))
			ev := newEvent(seq, nextID, side, price, 1+rng.Int31n(50))
			require.True(t, b.OnNew(ev, &trades))
			issued[nextID] = true
		case roll < 0.95:
			b.OnCancel(OrderID(1 + rng.Int63n(int64(nextID))))
		default:
			side := Buy
			if rng.Intn(2) == 1 {
				side = Sell
			}
			price := Price(math.Max(1, math.Round(rng.NormFloat64()*5+100)))
			ev := newEvent(seq, OrderID(1+rng.Int63n(int64(nextID))), side, price, 1+rng.Int31n(50))
			ev.Kind = KindReplace
			b.OnReplace(ev, &trades)
		}

		for _, tr := range trades {
			assert.Positive(t, tr.Quantity)
			assert.Positive(t, tr.Price)
			assert.True(t, issued[tr.BuyerID], "buyer id was never issued")
			assert.True(t, issued[tr.SellerID], "seller id was never issued")
		}

		bestBuy, okBuy := b.BestBuy()
		bestSell, okSell := b.BestSell()
		if okBuy && okSell {
			require.Less(t, bestBuy, bestSell, "crossed book after event %d", seq)
		}
	}
}

// Quantity is conserved: what an accepted New brought in is always
// accounted for by its trades plus its resting remainder.
func TestBook_QuantityConservation(t *testing.T) {
	b := NewBook()
	rng := rand.New(rand.NewSource(11))

	accepted := map[OrderID]int64{}
	traded := map[OrderID]int64{}
	var trades []Trade

	for i := 0; i < 10000; i++ {
		trades = trades[:0]
		id := OrderID(i + 1)
		side := Buy
		if rng.Intn(2) == 1 {
			side = Sell
		}
		price := Price(math.Max(1, math.Round(rng.NormFloat64()*5+100)))
		qty := 1 + rng.Int31n(50)

		require.True(t, b.OnNew(newEvent(uint64(i+1), id, side, price, qty), &trades))
		accepted[id] = int64(qty)

		for _, tr := range trades {
			traded[tr.BuyerID] += int64(tr.Quantity)
			traded[tr.SellerID] += int64(tr.Quantity)
		}
	}

	resting := map[OrderID]int64{}
	for id, order := range b.orders {
		resting[id] = int64(order.Remaining)
	}

	for id, total := range accepted {
		assert.Equal(t, total, traded[id]+resting[id], "order %d leaks quantity", id)
	}
}

func TestBook_Dump(t *testing.T) {
	b := NewBook()
	var trades []Trade

	mustNew(t, b, 1, 1, Buy, 99, 5, &trades)
	mustNew(t, b, 2, 2, Sell, 101, 7, &trades)
	require.True(t, b.OnCancel(1))

	dump := b.Dump()
	assert.Contains(t, dump, "sell side")
	assert.Contains(t, dump, "buy side")
	assert.Contains(t, dump, "cancelled")
}

func BenchmarkBook_OnNew(b *testing.B) {
	book := NewBook()
	rng := rand.New(rand.NewSource(3))
	var trades []Trade

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		trades = trades[:0]
		side := Buy
		if i%2 == 1 {
			side = Sell
		}
		price := Price(math.Max(1, math.Round(rng.NormFloat64()*5+100)))
		book.OnNew(newEvent(uint64(i+1), OrderID(i+1), side, price, 1+rng.Int31n(100)), &trades)
	}
}

func BenchmarkBook_CancelHeavy(b *testing.B) {
	book := NewBook()
	var trades []Trade

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		trades = trades[:0]
		id := OrderID(i + 1)
		book.OnNew(newEvent(uint64(2*i+1), id, Sell, Price(1000+i%512), 10), &trades)
		book.OnCancel(id)
	}
}
