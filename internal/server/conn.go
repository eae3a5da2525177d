package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/CoolCat467/Neuro-API/internal/logging"
	"github.com/CoolCat467/Neuro-API/internal/metrics"
	"github.com/CoolCat467/Neuro-API/pkg/command"
	"github.com/CoolCat467/Neuro-API/pkg/correlate"
	"github.com/CoolCat467/Neuro-API/pkg/jsonschema"
	"github.com/CoolCat467/Neuro-API/pkg/ports"
	"github.com/CoolCat467/Neuro-API/pkg/registry"
)

// Conn services one game connection. It owns the connection's action
// registry and pending-action correlator, reads inbound envelopes one at a
// time, and spawns force-action rounds so the read loop keeps draining the
// socket while a round waits for its result.
type Conn struct {
	transport ports.Transport
	decider   ports.Decider
	sink      ports.ContextSink
	logger    *slog.Logger
	metrics   *metrics.Metrics

	registry   *registry.Registry
	correlator *correlate.Correlator

	mu        sync.Mutex
	gameTitle string

	rounds sync.WaitGroup
}

// ConnOption configures a Conn.
type ConnOption func(*Conn)

// WithConnLogger sets the connection logger.
func WithConnLogger(logger *slog.Logger) ConnOption {
	return func(c *Conn) {
		c.logger = logger
	}
}

// WithConnMetrics sets the shared metrics collectors.
func WithConnMetrics(m *metrics.Metrics) ConnOption {
	return func(c *Conn) {
		c.metrics = m
	}
}

// NewConn wires a connection over an established transport. The decider and
// sink are the server-wide collaborators shared by every connection.
func NewConn(transport ports.Transport, decider ports.Decider, sink ports.ContextSink, opts ...ConnOption) *Conn {
	c := &Conn{
		transport: transport,
		decider:   decider,
		sink:      sink,
		logger:    logging.NewNop(),
		metrics:   metrics.NewNop(),
		registry:  registry.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("remote", transport.RemoteAddr())
	c.correlator = correlate.New(correlate.WithLogger(c.logger))
	return c
}

// GameTitle returns the title bound by the first startup command, or empty
// before one arrives.
func (c *Conn) GameTitle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameTitle
}

// Actions returns the currently registered actions sorted by name.
func (c *Conn) Actions() []command.Action {
	return c.registry.Snapshot()
}

// PendingActions returns the number of in-flight action requests.
func (c *Conn) PendingActions() int {
	return c.correlator.Pending()
}

// RemoteAddr identifies the peer.
func (c *Conn) RemoteAddr() string {
	return c.transport.RemoteAddr()
}

// Run drives the dispatch loop until the game reports shutdown readiness
// (nil), the context is canceled, or the transport fails. On every exit path
// the correlator is torn down and in-flight force rounds are waited out so
// no waiter blocks past connection end.
func (c *Conn) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		c.correlator.Teardown()
		cancel()
		c.rounds.Wait()
	}()

	for {
		raw, err := c.transport.Receive(ctx)
		if err != nil {
			return fmt.Errorf("receive: %w", err)
		}

		msg, err := command.Decode(raw)
		if err != nil {
			// Recoverable: a well-framed but structurally invalid envelope
			// is dropped, the connection lives on.
			c.metrics.MalformedTotal.Inc()
			c.logger.Warn("dropping malformed envelope", "err", err)
			continue
		}

		if done := c.dispatch(ctx, msg); done {
			return nil
		}
	}
}

// dispatch routes one decoded message. It reports true when the game has
// signaled shutdown readiness.
func (c *Conn) dispatch(ctx context.Context, msg command.Message) bool {
	c.countCommand(msg)

	switch m := msg.(type) {
	case command.Startup:
		c.handleStartup(m)
	case command.Context:
		c.handleContext(ctx, m)
	case command.RegisterActions:
		c.handleRegisterActions(m)
	case command.UnregisterActions:
		c.handleUnregisterActions(m)
	case command.ForceActions:
		c.handleForceActions(ctx, m)
	case command.ActionResult:
		c.handleActionResult(ctx, m)
	case command.ShutdownReady:
		c.checkGameTitle(m)
		c.logger.Info("game ready for shutdown")
		return true
	case command.Unknown:
		c.checkGameTitle(m)
		c.logger.Warn("ignoring unknown command", "command", m.Raw, "data", m.Data)
	}
	return false
}

func (c *Conn) countCommand(msg command.Message) {
	tag := msg.Tag()
	if _, ok := msg.(command.Unknown); ok {
		tag = "unknown"
	}
	c.metrics.CommandsTotal.WithLabelValues(tag).Inc()
}

// checkGameTitle verifies the envelope's title against the one bound at
// startup. Mismatches are protocol anomalies, logged but never fatal; the
// bound title stays in force.
func (c *Conn) checkGameTitle(msg command.Message) {
	c.mu.Lock()
	bound := c.gameTitle
	c.mu.Unlock()

	switch {
	case bound == "":
		c.logger.Warn("command arrived before startup, game title not bound",
			"command", msg.Tag(),
		)
	case bound != msg.GameTitle():
		c.logger.Warn("game title mismatch, keeping bound title",
			"bound", bound,
			"received", msg.GameTitle(),
		)
	}
}

// handleStartup binds the game title on first sight and clears the action
// registry. Later startups reset the registry but never rebind the title.
func (c *Conn) handleStartup(m command.Startup) {
	c.mu.Lock()
	if c.gameTitle == "" {
		c.gameTitle = m.Game
	}
	c.mu.Unlock()

	c.checkGameTitle(m)
	c.registry.Clear()
	c.logger.Info("startup received, registry cleared", "game", m.Game)
}

func (c *Conn) handleContext(ctx context.Context, m command.Context) {
	c.checkGameTitle(m)
	c.pushContext(ctx, m.Message, !m.Silent)
}

// handleRegisterActions validates every schema with the opaque validator
// before touching the registry; one bad schema drops the whole command,
// matching the all-or-nothing decode of the rest of the payload.
func (c *Conn) handleRegisterActions(m command.RegisterActions) {
	c.checkGameTitle(m)

	for _, action := range m.Actions {
		if err := jsonschema.Check(action.Schema); err != nil {
			c.metrics.MalformedTotal.Inc()
			c.logger.Warn("dropping actions/register with invalid schema",
				"action", action.Name,
				"err", err,
			)
			return
		}
	}
	for _, action := range m.Actions {
		c.registry.Register(action)
	}
	c.logger.Debug("actions registered", "count", len(m.Actions), "registry_size", c.registry.Len())
}

func (c *Conn) handleUnregisterActions(m command.UnregisterActions) {
	c.checkGameTitle(m)

	for _, name := range m.ActionNames {
		c.registry.Unregister(name)
	}
	c.logger.Debug("actions unregistered", "count", len(m.ActionNames), "registry_size", c.registry.Len())
}

// handleForceActions spawns the negotiation round on its own goroutine. The
// dispatch loop must keep consuming inbound frames while the round is
// suspended: the action result the round waits for arrives through this very
// loop.
func (c *Conn) handleForceActions(ctx context.Context, m command.ForceActions) {
	c.checkGameTitle(m)

	c.rounds.Add(1)
	go func() {
		defer c.rounds.Done()
		if err := c.performForcedAction(ctx, m); err != nil {
			if errors.Is(err, correlate.ErrClosed) || errors.Is(err, context.Canceled) {
				c.logger.Debug("force action round abandoned at teardown")
				return
			}
			c.logger.Error("force action round failed", "err", err)
		}
	}()
}

// handleActionResult forwards a non-empty result message into context and
// wakes the matching waiter. Results with no matching waiter are dropped
// with a warning inside the correlator.
func (c *Conn) handleActionResult(ctx context.Context, m command.ActionResult) {
	c.checkGameTitle(m)

	message := ""
	if m.Message != nil {
		message = *m.Message
	}
	if message != "" {
		c.pushContext(ctx, message, false)
	}
	if !c.correlator.Resolve(m.ID, m.Success, message) {
		c.metrics.UnknownResults.Inc()
	}
}

func (c *Conn) pushContext(ctx context.Context, message string, replyIfNotBusy bool) {
	entry := ports.ContextEntry{
		GameTitle:      c.GameTitle(),
		Message:        message,
		ReplyIfNotBusy: replyIfNotBusy,
		At:             now(),
	}
	if err := c.sink.PushContext(ctx, entry); err != nil {
		c.logger.Error("context sink rejected entry", "err", err)
	}
}

// SubmitAction sends one action request to the game and blocks until its
// correlated result arrives. Hosts use it for direct submissions outside a
// forced round.
func (c *Conn) SubmitAction(ctx context.Context, name string, data *string) (correlate.Result, error) {
	id := c.correlator.NextID()

	c.metrics.PendingActions.Inc()
	defer c.metrics.PendingActions.Dec()

	return c.correlator.Submit(ctx, id, func() error {
		raw, err := command.ActionCommand(id, name, data).Encode()
		if err != nil {
			return err
		}
		return c.transport.Send(ctx, raw)
	})
}

// RequestReregisterAll asks the game to drop and re-register every action.
func (c *Conn) RequestReregisterAll(ctx context.Context) error {
	return c.send(ctx, command.ReregisterAllCommand())
}

// RequestGracefulShutdown asks the game to shut down at its next graceful
// stopping point; wantsShutdown false cancels a previous request.
func (c *Conn) RequestGracefulShutdown(ctx context.Context, wantsShutdown bool) error {
	return c.send(ctx, command.ShutdownGracefulCommand(wantsShutdown))
}

// RequestImmediateShutdown demands the game shut down as soon as it has
// saved.
func (c *Conn) RequestImmediateShutdown(ctx context.Context) error {
	return c.send(ctx, command.ShutdownImmediateCommand())
}

func (c *Conn) send(ctx context.Context, env command.Envelope) error {
	raw, err := env.Encode()
	if err != nil {
		return err
	}
	return c.transport.Send(ctx, raw)
}
