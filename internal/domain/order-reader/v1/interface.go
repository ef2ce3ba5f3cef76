package orderreaderv1

import (
	"context"
)

// OrderReader defines the interface for reading feed events from a
// source. Implementations decode the transport framing; the engine
// assigns sequence numbers and ingress timestamps itself.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=orderreaderv1_mock
type OrderReader interface {
	// ReadEvent blocks until the next event payload is available.
	// io.EOF signals end-of-stream.
	ReadEvent(ctx context.Context) (*EventPayload, error)
	// Close releases the underlying source.
	Close() error
}
