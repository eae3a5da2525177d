// Package memory provides the in-process context journal.
package memory

import (
	"context"
	"sync"

	"github.com/CoolCat467/Neuro-API/pkg/ports"
)

// DefaultDepth bounds how many entries are kept per game when no depth is
// configured.
const DefaultDepth = 256

// Journal implements ports.Journal with a capped in-memory list per game.
type Journal struct {
	depth int

	mu      sync.RWMutex
	entries map[string][]ports.ContextEntry
}

// Option configures the Journal.
type Option func(*Journal)

// WithDepth caps how many entries are retained per game.
func WithDepth(depth int) Option {
	return func(j *Journal) {
		if depth > 0 {
			j.depth = depth
		}
	}
}

// NewJournal creates an empty journal.
func NewJournal(opts ...Option) *Journal {
	j := &Journal{
		depth:   DefaultDepth,
		entries: make(map[string][]ports.ContextEntry),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// PushContext appends an entry, evicting the oldest once the per-game depth
// is reached.
func (j *Journal) PushContext(_ context.Context, entry ports.ContextEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	list := append(j.entries[entry.GameTitle], entry)
	if len(list) > j.depth {
		list = list[len(list)-j.depth:]
	}
	j.entries[entry.GameTitle] = list
	return nil
}

// Recent returns up to n of the most recent entries for a game, oldest
// first.
func (j *Journal) Recent(_ context.Context, gameTitle string, n int) ([]ports.ContextEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	list := j.entries[gameTitle]
	if n < len(list) {
		list = list[len(list)-n:]
	}
	out := make([]ports.ContextEntry, len(list))
	copy(out, list)
	return out, nil
}
