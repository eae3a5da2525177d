// Package correlate matches asynchronous action results back to in-flight
// requests. Each submitted action holds a single-use waiter keyed by
// correlation id; the eventual result wakes exactly that waiter.
package correlate

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/CoolCat467/Neuro-API/internal/logging"
	"github.com/google/uuid"
)

// ErrClosed is returned by Submit when the connection has been torn down.
// Callers must treat it as terminal: unlike an unsuccessful result, it must
// not trigger another attempt.
var ErrClosed = errors.New("correlator closed")

// Result is the outcome the game reported for one action request.
type Result struct {
	Success bool
	Message string
}

// Correlator owns the pending-action table for one connection.
type Correlator struct {
	logger *slog.Logger

	mu      sync.Mutex
	waiters map[string]chan Result
	closed  bool
	nextID  uint64
}

// Option configures the Correlator.
type Option func(*Correlator)

// WithLogger sets the logger used for dropped-result warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Correlator) {
		c.logger = logger
	}
}

// New creates an empty correlator.
func New(opts ...Option) *Correlator {
	c := &Correlator{
		logger:  logging.NewNop(),
		waiters: make(map[string]chan Result),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NextID returns a fresh correlation id: a monotonically increasing counter
// rendered as a UUID. Ids are never reused within a connection's lifetime.
func (c *Correlator) NextID() string {
	c.mu.Lock()
	n := c.nextID
	c.nextID++
	c.mu.Unlock()

	var id uuid.UUID
	binary.BigEndian.PutUint64(id[8:], n)
	return id.String()
}

// Submit registers a waiter for id, invokes emit to send the request, then
// blocks until the matching result arrives, the context is canceled, or the
// connection is torn down. Teardown surfaces as ErrClosed.
func (c *Correlator) Submit(ctx context.Context, id string, emit func() error) (Result, error) {
	ch := make(chan Result, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Result{}, ErrClosed
	}
	if _, exists := c.waiters[id]; exists {
		c.mu.Unlock()
		return Result{}, fmt.Errorf("correlation id %q already pending", id)
	}
	c.waiters[id] = ch
	c.mu.Unlock()

	if err := emit(); err != nil {
		c.remove(id)
		return Result{}, fmt.Errorf("emit request %q: %w", id, err)
	}

	select {
	case result, ok := <-ch:
		if !ok {
			return Result{}, ErrClosed
		}
		return result, nil
	case <-ctx.Done():
		c.remove(id)
		return Result{}, ctx.Err()
	}
}

// Resolve wakes the waiter for id with the given outcome and removes it,
// reporting whether a waiter existed. Results for unknown ids are logged and
// dropped; they cover actions that were never sent by this process, already
// resolved, or duplicated by the game.
func (c *Correlator) Resolve(id string, success bool, message string) bool {
	c.mu.Lock()
	ch, ok := c.waiters[id]
	if ok {
		delete(c.waiters, id)
	}
	c.mu.Unlock()

	if !ok {
		c.logger.Warn("dropping action result for unknown id",
			"id", id,
			"success", success,
			"message", message,
		)
		return false
	}
	ch <- Result{Success: success, Message: message}
	return true
}

// Teardown wakes every still-pending waiter with ErrClosed and rejects all
// future submissions. Safe to call more than once.
func (c *Correlator) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for id, ch := range c.waiters {
		delete(c.waiters, id)
		close(ch)
	}
}

// Pending returns the number of in-flight requests.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

func (c *Correlator) remove(id string) {
	c.mu.Lock()
	delete(c.waiters, id)
	c.mu.Unlock()
}
