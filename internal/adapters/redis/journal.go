// Package redis provides the durable context journal backed by Redis, for
// deployments where the controller's view of recent game context must
// survive a process restart.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/CoolCat467/Neuro-API/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Journal implements ports.Journal on a capped Redis list per game.
type Journal struct {
	client *backend.Client
	prefix string
	depth  int64
	ttl    time.Duration
}

// Option configures the Journal.
type Option func(*Journal)

// WithPrefix sets the key prefix for journal lists.
func WithPrefix(prefix string) Option {
	return func(j *Journal) {
		j.prefix = prefix
	}
}

// WithDepth caps how many entries are retained per game.
func WithDepth(depth int) Option {
	return func(j *Journal) {
		if depth > 0 {
			j.depth = int64(depth)
		}
	}
}

// WithTTL sets the expiration on each game's journal list, refreshed on
// every push.
func WithTTL(ttl time.Duration) Option {
	return func(j *Journal) {
		j.ttl = ttl
	}
}

// New creates a Redis journal and its client.
func New(address, password string, db int, opts ...Option) *Journal {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis journal from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Journal {
	j := &Journal{
		client: client,
		prefix: "neuro:context:",
		depth:  256,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *Journal) key(gameTitle string) string {
	return j.prefix + gameTitle
}

// PushContext appends an entry to the game's list, trimming it to the
// configured depth.
func (j *Journal) PushContext(ctx context.Context, entry ports.ContextEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal context entry: %w", err)
	}

	key := j.key(entry.GameTitle)
	pipe := j.client.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -j.depth, -1)
	if j.ttl > 0 {
		pipe.Expire(ctx, key, j.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append context entry: %w", err)
	}
	return nil
}

// Recent returns up to n of the most recent entries for a game, oldest
// first.
func (j *Journal) Recent(ctx context.Context, gameTitle string, n int) ([]ports.ContextEntry, error) {
	if n <= 0 {
		return nil, nil
	}

	raw, err := j.client.LRange(ctx, j.key(gameTitle), int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read context entries: %w", err)
	}

	entries := make([]ports.ContextEntry, 0, len(raw))
	for _, item := range raw {
		var entry ports.ContextEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("decode context entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Close releases the underlying client.
func (j *Journal) Close() error {
	return j.client.Close()
}
