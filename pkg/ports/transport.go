package ports

import (
	"context"
	"errors"
)

// ErrTransportClosed signals that the underlying connection is gone. It is
// the fatal failure class: the dispatch loop exits and pending waiters are
// torn down. Everything else the loop can recover from.
var ErrTransportClosed = errors.New("transport closed")

// Transport frames and delivers raw text messages over one persistent
// connection. A closed connection is reported as ErrTransportClosed from
// either side of the exchange.
type Transport interface {
	// Send writes one complete message.
	Send(ctx context.Context, data []byte) error

	// Receive blocks until the next complete message arrives.
	Receive(ctx context.Context) ([]byte, error)

	// Close tears the connection down. Safe to call more than once.
	Close() error

	// RemoteAddr identifies the peer for logging.
	RemoteAddr() string
}
