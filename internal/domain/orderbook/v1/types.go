package orderbookv1

import (
	"errors"
	"time"
)

var (
	// ErrInvalidPrice is returned when an event carries a non-positive price.
	ErrInvalidPrice = errors.New("price must be positive")
	// ErrInvalidQuantity is returned when an event carries a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrInvalidSide is returned when an event carries a side outside {Buy, Sell}.
	ErrInvalidSide = errors.New("side must be buy or sell")
)

// OrderID identifies an order across its whole lifecycle.
type OrderID = uint64

// Price is an integer tick count. Fractional prices are not supported.
type Price = uint32

// Side is the side of the book an order rests on.
type Side int

const (
	// Buy bids for the asset.
	Buy Side = iota
	// Sell offers the asset.
	Sell
)

// String returns the lowercase wire name of the side.
func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

// EventKind discriminates the exchange event stream.
type EventKind int

const (
	// KindNew introduces an order.
	KindNew EventKind = iota
	// KindCancel deactivates a resting order.
	KindCancel
	// KindReplace cancels and re-enters an order under the same id.
	KindReplace
)

// String returns the lowercase wire name of the kind.
func (k EventKind) String() string {
	switch k {
	case KindNew:
		return "new"
	case KindCancel:
		return "cancel"
	case KindReplace:
		return "replace"
	}
	return "unknown"
}

// Event is a single exchange instruction. It is immutable after
// construction. A Cancel carries only the id, sequence and ingress
// timestamp; price, side and quantity are ignored for it.
type Event struct {
	Seq       uint64
	Kind      EventKind
	OrderID   OrderID
	Side      Side
	Price     Price
	Quantity  int32
	IngressAt time.Time
}

// Validate checks the order-entry preconditions of a New or Replace.
// Cancels are never validated: they carry only the id.
func (e *Event) Validate() error {
	if e.Price == 0 {
		return ErrInvalidPrice
	}
	if e.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if e.Side != Buy && e.Side != Sell {
		return ErrInvalidSide
	}
	return nil
}

// Order is a resting order inside the book. Remaining and Active are
// the only fields mutated after insertion.
type Order struct {
	ID        OrderID
	Side      Side
	Price     Price
	Remaining int32
	SeqNew    uint64
	Active    bool
}

// Trade is one fill between two orders. The price is always the
// maker's price and ExecutedAt is sampled when the fill is emitted.
type Trade struct {
	SellerID   OrderID
	BuyerID    OrderID
	Price      Price
	Quantity   int32
	ExecutedAt time.Time
}
