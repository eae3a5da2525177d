// Package ws adapts a gorilla/websocket connection to the ports.Transport
// contract used by the dispatch loop.
package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/CoolCat467/Neuro-API/pkg/ports"
	"github.com/gorilla/websocket"
)

// Transport frames protocol messages as websocket text frames.
//
// gorilla permits one concurrent reader and one concurrent writer; the
// dispatch goroutine is the only reader, while force-action rounds may write
// concurrently, so writes are serialized here.
type Transport struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewTransport wraps an established websocket connection.
func NewTransport(conn *websocket.Conn) *Transport {
	return &Transport{conn: conn}
}

// Send writes one text frame.
func (t *Transport) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(deadline)
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fatal(err)
	}
	return nil
}

// Receive blocks until the next frame arrives. Cancellation happens through
// Close, which unblocks the pending read; the context only gates entry.
func (t *Transport) Receive(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for {
		kind, data, err := t.conn.ReadMessage()
		if err != nil {
			return nil, fatal(err)
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// Close tears the websocket down, unblocking any pending Receive.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = t.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

// RemoteAddr identifies the peer for logging.
func (t *Transport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

// fatal maps a websocket I/O failure onto the transport's fatal error class.
// Every such failure terminates the connection: close handshakes, abrupt
// peer drops, and malformed low-level frames alike.
func fatal(err error) error {
	if errors.Is(err, ports.ErrTransportClosed) {
		return err
	}
	return fmt.Errorf("%w: %v", ports.ErrTransportClosed, err)
}
