package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoolCat467/Neuro-API/internal/adapters/memory"
	"github.com/CoolCat467/Neuro-API/pkg/ports"
)

func startServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	s := New("", deciderFunc(pickFirst), opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dialGame(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close() //nolint:errcheck
	}
	t.Cleanup(func() { conn.Close() }) //nolint:errcheck
	return conn
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url) //nolint:noctx
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestServerHealthz(t *testing.T) {
	_, ts := startServer(t)

	var body map[string]string
	status := getJSON(t, ts.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestServerTracksConnectedGames(t *testing.T) {
	s, ts := startServer(t)
	game := dialGame(t, ts)

	require.NoError(t, game.WriteMessage(websocket.TextMessage,
		[]byte(`{"command":"startup","game":"Tic Tac Toe"}`)))
	require.NoError(t, game.WriteMessage(websocket.TextMessage,
		[]byte(`{"command":"actions/register","game":"Tic Tac Toe","data":{"actions":[{"name":"play","description":"Place a mark."}]}}`)))

	require.Eventually(t, func() bool {
		return len(s.Games()) == 1
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"Tic Tac Toe"}, s.Games())

	var games []struct {
		Game    string `json:"game"`
		Actions int    `json:"actions"`
	}
	require.Eventually(t, func() bool {
		getJSON(t, ts.URL+"/api/games", &games)
		return len(games) == 1 && games[0].Actions == 1
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "Tic Tac Toe", games[0].Game)

	var actions []struct {
		Name string `json:"name"`
	}
	status := getJSON(t, ts.URL+"/api/games/Tic%20Tac%20Toe/actions", &actions)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, actions, 1)
	assert.Equal(t, "play", actions[0].Name)

	// Disconnect drops the game from the roster.
	game.Close() //nolint:errcheck
	require.Eventually(t, func() bool {
		return len(s.Games()) == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServerGameActionsUnknownGame(t *testing.T) {
	_, ts := startServer(t)

	var body map[string]string
	status := getJSON(t, ts.URL+"/api/games/nope/actions", &body)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServerContextEndpointReadsJournal(t *testing.T) {
	journal := memory.NewJournal()
	_, ts := startServer(t, WithJournal(journal))
	game := dialGame(t, ts)

	require.NoError(t, game.WriteMessage(websocket.TextMessage,
		[]byte(`{"command":"startup","game":"Tic Tac Toe"}`)))
	require.NoError(t, game.WriteMessage(websocket.TextMessage,
		[]byte(`{"command":"context","game":"Tic Tac Toe","data":{"message":"It is your turn.","silent":false}}`)))

	var entries []ports.ContextEntry
	require.Eventually(t, func() bool {
		status := getJSON(t, ts.URL+"/api/games/Tic%20Tac%20Toe/context", &entries)
		return status == http.StatusOK && len(entries) == 1
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "It is your turn.", entries[0].Message)
	assert.True(t, entries[0].ReplyIfNotBusy)
}

func TestServerContextEndpointWithoutJournal(t *testing.T) {
	_, ts := startServer(t)

	var body map[string]string
	status := getJSON(t, ts.URL+"/api/games/any/context", &body)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServerMetricsEndpoint(t *testing.T) {
	_, ts := startServer(t)

	resp, err := http.Get(ts.URL + "/metrics") //nolint:noctx
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
