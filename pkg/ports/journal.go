package ports

import (
	"context"
	"time"
)

// ContextEntry is one narrative message a game pushed to the controller.
type ContextEntry struct {
	GameTitle      string    `json:"game_title"`
	Message        string    `json:"message"`
	ReplyIfNotBusy bool      `json:"reply_if_not_busy"`
	At             time.Time `json:"at"`
}

// ContextSink receives context entries. One sink is shared by every
// connection; implementations serialize their own internal state.
type ContextSink interface {
	PushContext(ctx context.Context, entry ContextEntry) error
}

// Journal is a ContextSink that retains recent entries per game for the
// inspection surfaces.
type Journal interface {
	ContextSink

	// Recent returns up to n of the most recent entries for a game title,
	// oldest first.
	Recent(ctx context.Context, gameTitle string, n int) ([]ContextEntry, error)
}

// MultiSink fans each entry out to every sink in order, returning the first
// error.
type MultiSink []ContextSink

func (m MultiSink) PushContext(ctx context.Context, entry ContextEntry) error {
	for _, sink := range m {
		if err := sink.PushContext(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}
