package orderbookv1

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/btree"
)

const (
	// levelTreeDegree is the btree degree for both price sides.
	levelTreeDegree = 32
	// indexCapacity pre-sizes the order index so the steady-state hot
	// path does not rehash.
	indexCapacity = 1 << 16
)

// Book is the two-sided price-time-priority limit order book. It is
// single-threaded: all invariants hold between public calls and no
// internal synchronisation is performed.
//
// Each side is an ordered mapping from price to PriceLevel; the best
// sell is the tree minimum and the best buy the tree maximum. The
// order index maps ids to live records for O(1) cancel and maker
// lookup. Cancelled records are reaped lazily when they surface at the
// head of their level.
type Book struct {
	asks *btree.BTreeG[*PriceLevel]
	bids *btree.BTreeG[*PriceLevel]

	orders map[OrderID]*Order

	// Best cache per side: when valid, points at the best live level
	// of the corresponding tree. Invalidated only by emptying the
	// side.
	bestAsk      *PriceLevel
	bestAskValid bool
	bestBid      *PriceLevel
	bestBidValid bool

	probe *PriceLevel
}

func levelLess(a, b *PriceLevel) bool {
	return a.Price < b.Price
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{
		asks:   btree.NewG(levelTreeDegree, levelLess),
		bids:   btree.NewG(levelTreeDegree, levelLess),
		orders: make(map[OrderID]*Order, indexCapacity),
		probe:  &PriceLevel{},
	}
}

// OnNew handles a New event: it matches the incoming order against the
// opposite side under strict price-time priority and rests any
// residual quantity at the tail of its own price level. Produced
// trades are appended to trades in execution order, priced at the
// maker's level with the execution timestamp sampled per fill.
//
// Returns false without touching the book when the event carries a
// non-positive price or quantity, or a side outside {Buy, Sell}.
func (b *Book) OnNew(event *Event, trades *[]Trade) bool {
	if event.Validate() != nil {
		return false
	}

	remaining := event.Quantity

	// The repair runs before the quantity check so that stale heads at
	// the aggressed best are reaped even when no fill happens.
	if event.Side == Buy {
		for {
			bestSell, ok := b.fixBestSell()
			if !ok || remaining <= 0 || bestSell > event.Price {
				break
			}
			remaining = b.fillAtBest(event, b.bestAsk, remaining, trades)
		}
	} else {
		for {
			bestBuy, ok := b.fixBestBuy()
			if !ok || remaining <= 0 || bestBuy < event.Price {
				break
			}
			remaining = b.fillAtBest(event, b.bestBid, remaining, trades)
		}
	}

	if remaining > 0 {
		b.rest(event, remaining)
	}
	return true
}

// OnCancel marks the order inactive. The record and its slot in the
// level FIFO are reaped lazily, either by matching that reaches the
// head or by the best-price repair. Returns false when the id is
// unknown.
func (b *Book) OnCancel(id OrderID) bool {
	order, ok := b.orders[id]
	if !ok {
		return false
	}
	order.Active = false
	return true
}

// OnReplace is cancel-then-new under the same id. When the cancel
// fails the insert is not attempted and false is returned. A replaced
// order re-enters at the tail of its level: replace loses time
// priority.
func (b *Book) OnReplace(event *Event, trades *[]Trade) bool {
	if !b.OnCancel(event.OrderID) {
		return false
	}
	return b.OnNew(event, trades)
}

// BestSell returns the lowest sell price with a live resting order.
// It runs the repair loop, so stale heads and drained levels at the
// top of the ask side are reaped as a side effect.
func (b *Book) BestSell() (Price, bool) {
	return b.fixBestSell()
}

// BestBuy is the buy-side counterpart of BestSell.
func (b *Book) BestBuy() (Price, bool) {
	return b.fixBestBuy()
}

// fillAtBest executes one fill of the incoming order against the head
// of the given best level. The caller has already run the repair loop,
// so the head is live. Drained makers are popped and erased; a level
// drained by the fill is erased immediately and the best cache rebased
// so the cached best is never an empty level.
func (b *Book) fillAtBest(event *Event, lvl *PriceLevel, remaining int32, trades *[]Trade) int32 {
	head, _ := lvl.queue.Front()
	maker := b.orders[head.id]

	qty := remaining
	if maker.Remaining < qty {
		qty = maker.Remaining
	}
	maker.Remaining -= qty
	remaining -= qty

	trade := Trade{
		Price:      lvl.Price,
		Quantity:   qty,
		ExecutedAt: time.Now(),
	}
	if event.Side == Buy {
		trade.BuyerID = event.OrderID
		trade.SellerID = maker.ID
	} else {
		trade.BuyerID = maker.ID
		trade.SellerID = event.OrderID
	}
	*trades = append(*trades, trade)

	if maker.Remaining == 0 {
		lvl.queue.Pop()
		delete(b.orders, head.id)
	}
	if lvl.queue.Empty() {
		if maker.Side == Buy {
			b.dropBestBid(lvl)
		} else {
			b.dropBestAsk(lvl)
		}
	}
	return remaining
}

// rest inserts the residual of a New at the tail of its price level
// and repoints the side's best cache when the price improves on it.
func (b *Book) rest(event *Event, remaining int32) {
	order := &Order{
		ID:        event.OrderID,
		Side:      event.Side,
		Price:     event.Price,
		Remaining: remaining,
		SeqNew:    event.Seq,
		Active:    true,
	}
	b.orders[order.ID] = order

	if event.Side == Buy {
		lvl := b.levelFor(b.bids, event.Price)
		lvl.queue.Push(slot{id: order.ID, seq: order.SeqNew})
		if !b.bestBidValid || lvl.Price > b.bestBid.Price {
			b.bestBid = lvl
			b.bestBidValid = true
		}
		return
	}

	lvl := b.levelFor(b.asks, event.Price)
	lvl.queue.Push(slot{id: order.ID, seq: order.SeqNew})
	if !b.bestAskValid || lvl.Price < b.bestAsk.Price {
		b.bestAsk = lvl
		b.bestAskValid = true
	}
}

// levelFor returns the level at the given price, creating it on first
// arrival.
func (b *Book) levelFor(side *btree.BTreeG[*PriceLevel], price Price) *PriceLevel {
	b.probe.Price = price
	if lvl, ok := side.Get(b.probe); ok {
		return lvl
	}
	lvl := &PriceLevel{Price: price}
	side.ReplaceOrInsert(lvl)
	return lvl
}

// fixBestSell repairs the ask-side best cache and returns the best
// live sell price. Stale heads (reaped or inactive ids) are popped,
// their index entries erased, and drained levels removed as the cache
// advances towards higher prices. Returns false once the side is
// empty, which also invalidates the cache.
func (b *Book) fixBestSell() (Price, bool) {
	if !b.bestAskValid {
		return 0, false
	}
	for {
		lvl := b.bestAsk
		if b.reapStaleHeads(lvl) {
			return lvl.Price, true
		}
		b.asks.Delete(lvl)
		next, ok := b.asks.Min()
		if !ok {
			b.bestAsk = nil
			b.bestAskValid = false
			return 0, false
		}
		b.bestAsk = next
	}
}

// fixBestBuy is the bid-side counterpart of fixBestSell, walking
// downwards from the cached maximum.
func (b *Book) fixBestBuy() (Price, bool) {
	if !b.bestBidValid {
		return 0, false
	}
	for {
		lvl := b.bestBid
		if b.reapStaleHeads(lvl) {
			return lvl.Price, true
		}
		b.bids.Delete(lvl)
		next, ok := b.bids.Max()
		if !ok {
			b.bestBid = nil
			b.bestBidValid = false
			return 0, false
		}
		b.bestBid = next
	}
}

// reapStaleHeads pops stale slots from the head of the level and
// reports whether a live head remains. A slot is live only when its
// order is still indexed, was created by the same New (a replaced
// order leaves its old slot behind), and is active. Cancelled orders
// reaped here are also erased from the index; slots orphaned by a
// replace are popped without touching the index, since the record now
// belongs to the re-inserted instance.
func (b *Book) reapStaleHeads(lvl *PriceLevel) bool {
	for {
		head, ok := lvl.queue.Front()
		if !ok {
			return false
		}
		order, present := b.orders[head.id]
		if present && order.SeqNew == head.seq {
			if order.Active {
				return true
			}
			delete(b.orders, head.id)
		}
		lvl.queue.Pop()
	}
}

// dropBestAsk erases a drained best ask level and rebases the cache to
// the new minimum, or invalidates it when the side is empty.
func (b *Book) dropBestAsk(lvl *PriceLevel) {
	b.asks.Delete(lvl)
	next, ok := b.asks.Min()
	if !ok {
		b.bestAsk = nil
		b.bestAskValid = false
		return
	}
	b.bestAsk = next
}

// dropBestBid erases a drained best bid level and rebases the cache to
// the new maximum, or invalidates it when the side is empty.
func (b *Book) dropBestBid(lvl *PriceLevel) {
	b.bids.Delete(lvl)
	next, ok := b.bids.Max()
	if !ok {
		b.bestBid = nil
		b.bestBidValid = false
		return
	}
	b.bestBid = next
}

// Dump renders both sides for diagnostics, each from its highest price
// down (so the best ask comes last and the best bid first), marking
// cancelled entries still awaiting reaping. Not a behavioural
// contract.
func (b *Book) Dump() string {
	var sb strings.Builder

	sb.WriteString("sell side (price | qty(id)):\n")
	b.asks.Descend(func(lvl *PriceLevel) bool {
		b.dumpLevel(&sb, lvl)
		return true
	})

	sb.WriteString("buy side (price | qty(id)):\n")
	b.bids.Descend(func(lvl *PriceLevel) bool {
		b.dumpLevel(&sb, lvl)
		return true
	})

	return sb.String()
}

func (b *Book) dumpLevel(sb *strings.Builder, lvl *PriceLevel) {
	fmt.Fprintf(sb, "  %d |", lvl.Price)
	for i := lvl.queue.head; i < len(lvl.queue.slots); i++ {
		s := lvl.queue.slots[i]
		order, ok := b.orders[s.id]
		switch {
		case !ok || order.SeqNew != s.seq:
			fmt.Fprintf(sb, " ?(%d)", s.id)
		case !order.Active:
			fmt.Fprintf(sb, " %d(%d/cancelled)", order.Remaining, s.id)
		default:
			fmt.Fprintf(sb, " %d(%d)", order.Remaining, s.id)
		}
	}
	sb.WriteString("\n")
}
