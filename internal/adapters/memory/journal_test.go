package memory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/CoolCat467/Neuro-API/internal/adapters/memory"
	"github.com/CoolCat467/Neuro-API/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJournal_Contract(t *testing.T) {
	ports.RunJournalContract(t, memory.NewJournal())
}

func TestMemoryJournal_DepthEviction(t *testing.T) {
	journal := memory.NewJournal(memory.WithDepth(3))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, journal.PushContext(ctx, ports.ContextEntry{
			GameTitle: "G",
			Message:   fmt.Sprintf("event %d", i),
		}))
	}

	entries, err := journal.Recent(ctx, "G", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "event 2", entries[0].Message, "oldest entries evicted first")
	assert.Equal(t, "event 4", entries[2].Message)
}
