package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoolCat467/Neuro-API/pkg/command"
	"github.com/CoolCat467/Neuro-API/pkg/ports"
)

func testPrompt() ports.ForcePrompt {
	state := "The board is empty."
	return ports.ForcePrompt{
		GameTitle: "Tic Tac Toe",
		State:     &state,
		Query:     "Make your move.",
		Actions: []command.Action{
			{Name: "resign", Description: "Give up."},
			{
				Name:        "play",
				Description: "Place a mark.",
				Schema: map[string]any{
					"type":       "object",
					"properties": map[string]any{"cell": map[string]any{"type": "integer"}},
					"required":   []any{"cell"},
				},
			},
		},
	}
}

func newTestDecider(input string) (*Decider, *bytes.Buffer) {
	out := &bytes.Buffer{}
	d := New(
		WithInput(strings.NewReader(input)),
		WithOutput(out),
		WithProfile(termenv.Ascii),
	)
	return d, out
}

func TestDecideMenuSelection(t *testing.T) {
	d, out := newTestDecider("1\n")

	decision, err := d.Decide(context.Background(), testPrompt())
	require.NoError(t, err)
	assert.Equal(t, "resign", decision.Name)
	assert.Nil(t, decision.Data)

	assert.Contains(t, out.String(), "Tic Tac Toe")
	assert.Contains(t, out.String(), "The board is empty.")
	assert.Contains(t, out.String(), "Make your move.")
	assert.Contains(t, out.String(), "1) resign")
	assert.Contains(t, out.String(), "2) play")
}

func TestDecideRejectsOutOfRangeChoice(t *testing.T) {
	d, out := newTestDecider("7\nnope\n1\n")

	decision, err := d.Decide(context.Background(), testPrompt())
	require.NoError(t, err)
	assert.Equal(t, "resign", decision.Name)
	assert.Contains(t, out.String(), "enter a number between 1 and 2")
}

func TestDecideCollectsSchemaPayload(t *testing.T) {
	d, _ := newTestDecider("2\n{\"cell\": 3}\n")

	decision, err := d.Decide(context.Background(), testPrompt())
	require.NoError(t, err)
	assert.Equal(t, "play", decision.Name)
	require.NotNil(t, decision.Data)
	assert.JSONEq(t, `{"cell": 3}`, *decision.Data)
}

func TestDecideWarnsOnSchemaMismatchButSubmits(t *testing.T) {
	d, out := newTestDecider("2\n{\"cell\": \"middle\"}\n")

	decision, err := d.Decide(context.Background(), testPrompt())
	require.NoError(t, err)
	assert.Equal(t, "play", decision.Name)
	require.NotNil(t, decision.Data)
	assert.Contains(t, out.String(), "does not match")
}

func TestDecideEmptyPayloadMeansNoData(t *testing.T) {
	d, _ := newTestDecider("2\n\n")

	decision, err := d.Decide(context.Background(), testPrompt())
	require.NoError(t, err)
	assert.Equal(t, "play", decision.Name)
	assert.Nil(t, decision.Data)
}

func TestDecideCanceledContext(t *testing.T) {
	// No input ever arrives; cancellation must unblock the prompt.
	d := New(
		WithInput(blockingReader{}),
		WithOutput(&bytes.Buffer{}),
		WithProfile(termenv.Ascii),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := d.Decide(ctx, testPrompt())
	assert.ErrorIs(t, err, context.Canceled)
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) {
	select {} // never returns
}

func TestSinkPrintsEntries(t *testing.T) {
	out := &bytes.Buffer{}
	sink := NewSink(WithSinkOutput(out), WithSinkProfile(termenv.Ascii))

	err := sink.PushContext(context.Background(), ports.ContextEntry{
		GameTitle: "Tic Tac Toe",
		Message:   "It is your turn.",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[Tic Tac Toe]")
	assert.Contains(t, out.String(), "It is your turn.")
}
