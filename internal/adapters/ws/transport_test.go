package ws_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CoolCat467/Neuro-API/internal/adapters/ws"
	"github.com/CoolCat467/Neuro-API/pkg/ports"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialPair upgrades one server-side connection and returns its Transport
// alongside the raw client connection.
func dialPair(t *testing.T) (*ws.Transport, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	transports := make(chan *ws.Transport, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		transports <- ws.NewTransport(conn)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	transport := <-transports
	t.Cleanup(func() { _ = transport.Close() })
	return transport, client
}

func TestTransport_RoundTrip(t *testing.T) {
	transport, client := dialPair(t)
	ctx := context.Background()

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"command":"startup","game":"G"}`)))
	got, err := transport.Receive(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"startup","game":"G"}`, string(got))

	require.NoError(t, transport.Send(ctx, []byte(`{"command":"action","data":{"id":"1","name":"a"}}`)))
	_, reply, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(reply), `"command":"action"`)
}

func TestTransport_PeerCloseIsFatal(t *testing.T) {
	transport, client := dialPair(t)

	require.NoError(t, client.Close())

	_, err := transport.Receive(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrTransportClosed)
}

func TestTransport_CloseUnblocksReceive(t *testing.T) {
	transport, _ := dialPair(t)

	errs := make(chan error, 1)
	go func() {
		_, err := transport.Receive(context.Background())
		errs <- err
	}()

	// Give the read a moment to block before closing under it.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, transport.Close())

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ports.ErrTransportClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Receive did not unblock after Close")
	}
}

func TestTransport_CanceledContext(t *testing.T) {
	transport, _ := dialPair(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, transport.Send(ctx, []byte("x")), context.Canceled)
	_, err := transport.Receive(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
