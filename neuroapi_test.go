package neuroapi_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	neuroapi "github.com/CoolCat467/Neuro-API"
	"github.com/CoolCat467/Neuro-API/internal/adapters/memory"
	"github.com/CoolCat467/Neuro-API/pkg/ports"
)

type firstDecider struct{}

func (firstDecider) Decide(_ context.Context, prompt ports.ForcePrompt) (ports.Decision, error) {
	return ports.Decision{Name: prompt.Actions[0].Name}, nil
}

func TestControllerEndToEnd(t *testing.T) {
	controller := neuroapi.New("", firstDecider{},
		neuroapi.WithJournal(memory.NewJournal()),
	)
	ts := httptest.NewServer(controller.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	game, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close() //nolint:errcheck
	}
	defer game.Close() //nolint:errcheck

	require.NoError(t, game.WriteMessage(websocket.TextMessage,
		[]byte(`{"command":"startup","game":"Tic Tac Toe"}`)))
	require.NoError(t, game.WriteMessage(websocket.TextMessage,
		[]byte(`{"command":"actions/register","game":"Tic Tac Toe","data":{"actions":[{"name":"play","description":"Place a mark."}]}}`)))

	var handle *neuroapi.Game
	require.Eventually(t, func() bool {
		var ok bool
		handle, ok = controller.Game("Tic Tac Toe")
		return ok && len(handle.Actions()) == 1
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "Tic Tac Toe", handle.Title())
	assert.Equal(t, []string{"Tic Tac Toe"}, controller.Games())

	// Host submits an action; the game accepts it.
	type submitResult struct {
		success bool
		err     error
	}
	done := make(chan submitResult, 1)
	go func() {
		result, err := handle.SubmitAction(context.Background(), "play", nil)
		done <- submitResult{success: result.Success, err: err}
	}()

	var request struct {
		Command string `json:"command"`
		Data    struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, game.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := game.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &request))
	assert.Equal(t, "action", request.Command)
	assert.Equal(t, "play", request.Data.Name)

	require.NoError(t, game.WriteJSON(map[string]any{
		"command": "action/result",
		"game":    "Tic Tac Toe",
		"data":    map[string]any{"id": request.Data.ID, "success": true, "message": "You placed an X."},
	}))

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.True(t, res.success)
	case <-time.After(2 * time.Second):
		t.Fatal("submission never resolved")
	}

	// The result message landed in the journal.
	require.Eventually(t, func() bool {
		entries, err := controller.Journal().Recent(context.Background(), "Tic Tac Toe", 10)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 20*time.Millisecond)
}
