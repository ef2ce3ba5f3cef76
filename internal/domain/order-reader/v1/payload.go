package orderreaderv1

import (
	"errors"
	"fmt"
	"time"

	orderbookv1 "github.com/sallsdagrate/matching-core/internal/domain/orderbook/v1"
)

var (
	// ErrUnknownKind is returned for an event kind outside new/cancel/replace.
	ErrUnknownKind = errors.New("unknown event kind")
	// ErrUnknownSide is returned for a side outside buy/sell.
	ErrUnknownSide = errors.New("unknown side")
)

// EventPayload is the wire representation of one feed event.
type EventPayload struct {
	Kind     string `json:"kind"`
	OrderID  uint64 `json:"orderID"`
	Side     string `json:"side"`
	Price    uint32 `json:"price"`
	Quantity int32  `json:"quantity"`
}

// ToEvent decodes the payload into a domain event, stamping it with
// the sequence number and ingress timestamp assigned by the caller.
// A cancel payload may leave side, price and quantity unset.
func (p *EventPayload) ToEvent(seq uint64, ingress time.Time) (orderbookv1.Event, error) {
	event := orderbookv1.Event{
		Seq:       seq,
		OrderID:   p.OrderID,
		Price:     p.Price,
		Quantity:  p.Quantity,
		IngressAt: ingress,
	}

	switch p.Kind {
	case "new":
		event.Kind = orderbookv1.KindNew
	case "cancel":
		event.Kind = orderbookv1.KindCancel
	case "replace":
		event.Kind = orderbookv1.KindReplace
	default:
		return orderbookv1.Event{}, fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind)
	}

	if event.Kind == orderbookv1.KindCancel {
		// Cancel carries only the id; side, price and quantity are
		// ignored downstream.
		return event, nil
	}

	switch p.Side {
	case "buy":
		event.Side = orderbookv1.Buy
	case "sell":
		event.Side = orderbookv1.Sell
	default:
		return orderbookv1.Event{}, fmt.Errorf("%w: %q", ErrUnknownSide, p.Side)
	}

	return event, nil
}

// FromEvent builds the wire payload for a domain event; ToEvent
// reverses it.
func FromEvent(event *orderbookv1.Event) *EventPayload {
	return &EventPayload{
		Kind:     event.Kind.String(),
		OrderID:  event.OrderID,
		Side:     event.Side.String(),
		Price:    event.Price,
		Quantity: event.Quantity,
	}
}
