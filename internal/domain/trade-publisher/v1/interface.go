package tradepublisherv1

import (
	"context"

	orderbookv1 "github.com/sallsdagrate/matching-core/internal/domain/orderbook/v1"
)

// TradePublisher defines the interface for publishing executed trades.
// The engine calls it from the matching goroutine with the trades of
// one drained event, in execution order.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=tradepublisherv1_mock
type TradePublisher interface {
	PublishTrades(ctx context.Context, trades []orderbookv1.Trade) error
	Close() error
}

// TradePayload is the wire representation of one trade.
type TradePayload struct {
	SellerID   uint64 `json:"sellerID"`
	BuyerID    uint64 `json:"buyerID"`
	Price      uint32 `json:"price"`
	Quantity   int32  `json:"quantity"`
	ExecutedAt int64  `json:"executedAt"`
}

// FromTrade converts a domain trade to its wire form.
func FromTrade(t *orderbookv1.Trade) *TradePayload {
	return &TradePayload{
		SellerID:   t.SellerID,
		BuyerID:    t.BuyerID,
		Price:      t.Price,
		Quantity:   t.Quantity,
		ExecutedAt: t.ExecutedAt.UnixNano(),
	}
}
