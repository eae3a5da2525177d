package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunJournalContract verifies that a Journal implementation adheres to the
// interface contract. Adapter test packages call it against their concrete
// type.
func RunJournalContract(t *testing.T, journal Journal) {
	ctx := context.Background()
	game := "contract-game-" + time.Now().Format("20060102150405")

	t.Run("Push and Recent", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			err := journal.PushContext(ctx, ContextEntry{
				GameTitle:      game,
				Message:        fmt.Sprintf("event %d", i),
				ReplyIfNotBusy: i == 0,
				At:             time.Now(),
			})
			require.NoError(t, err)
		}

		entries, err := journal.Recent(ctx, game, 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "event 0", entries[0].Message, "Recent returns oldest first")
		assert.Equal(t, "event 2", entries[2].Message)
		assert.True(t, entries[0].ReplyIfNotBusy)
	})

	t.Run("Recent respects limit", func(t *testing.T) {
		entries, err := journal.Recent(ctx, game, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "event 1", entries[0].Message, "limit keeps the most recent entries")
		assert.Equal(t, "event 2", entries[1].Message)
	})

	t.Run("Unknown game is empty", func(t *testing.T) {
		entries, err := journal.Recent(ctx, "no-such-game-"+game, 10)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Games are isolated", func(t *testing.T) {
		other := game + "-other"
		require.NoError(t, journal.PushContext(ctx, ContextEntry{
			GameTitle: other,
			Message:   "isolated",
			At:        time.Now(),
		}))

		entries, err := journal.Recent(ctx, other, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "isolated", entries[0].Message)
	})
}
