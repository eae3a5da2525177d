package neuroapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/CoolCat467/Neuro-API/internal/logging"
	"github.com/CoolCat467/Neuro-API/internal/server"
	"github.com/CoolCat467/Neuro-API/pkg/command"
	"github.com/CoolCat467/Neuro-API/pkg/correlate"
	"github.com/CoolCat467/Neuro-API/pkg/ports"
)

// Version is the library version reported by the CLI and inspection
// surfaces.
var Version = "0.1.0"

// Controller is the high-level entry point for the library. It accepts game
// connections, maintains each connection's action registry, and routes
// forced choices to the configured decider.
type Controller struct {
	server *server.Server
	logger *slog.Logger
}

// Option defines a functional option for configuring the Controller.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	journal  ports.Journal
	sinks    []ports.ContextSink
	certFile string
	keyFile  string
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithJournal sets the journal that records context entries and backs the
// inspection surfaces.
func WithJournal(journal ports.Journal) Option {
	return func(o *options) {
		o.journal = journal
	}
}

// WithContextSink adds an extra context sink next to the journal. May be
// given more than once.
func WithContextSink(sink ports.ContextSink) Option {
	return func(o *options) {
		o.sinks = append(o.sinks, sink)
	}
}

// WithTLS serves the websocket endpoint over TLS with the given certificate
// pair.
func WithTLS(certFile, keyFile string) Option {
	return func(o *options) {
		o.certFile = certFile
		o.keyFile = keyFile
	}
}

// New initializes a Controller listening on addr once Run is called. The
// decider is consulted for every forced choice across all connections.
func New(addr string, decider ports.Decider, opts ...Option) *Controller {
	o := &options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	serverOpts := []server.Option{server.WithLogger(o.logger)}
	if o.journal != nil {
		serverOpts = append(serverOpts, server.WithJournal(o.journal))
	}
	for _, sink := range o.sinks {
		serverOpts = append(serverOpts, server.WithContextSink(sink))
	}
	if o.certFile != "" {
		serverOpts = append(serverOpts, server.WithTLS(o.certFile, o.keyFile))
	}

	return &Controller{
		server: server.New(addr, decider, serverOpts...),
		logger: o.logger,
	}
}

// Run serves until ctx is canceled.
func (c *Controller) Run(ctx context.Context) error {
	return c.server.Run(ctx)
}

// Handler returns the HTTP surface for embedding into an existing server
// instead of calling Run.
func (c *Controller) Handler() http.Handler {
	return c.server.Handler()
}

// Games lists the titles of the currently connected games.
func (c *Controller) Games() []string {
	return c.server.Games()
}

// Game returns a handle on a connected game by title.
func (c *Controller) Game(title string) (*Game, bool) {
	conn, ok := c.server.Client(title)
	if !ok {
		return nil, false
	}
	return &Game{conn: conn}, true
}

// Journal exposes the configured journal; nil when running without one.
func (c *Controller) Journal() ports.Journal {
	return c.server.Journal()
}

// Game is a handle on one connected game for host-initiated operations.
type Game struct {
	conn *server.Conn
}

// Title returns the game title bound at startup.
func (g *Game) Title() string {
	return g.conn.GameTitle()
}

// Remote identifies the peer address of the game's connection.
func (g *Game) Remote() string {
	return g.conn.RemoteAddr()
}

// Actions returns the game's registered actions, sorted by name.
func (g *Game) Actions() []command.Action {
	return g.conn.Actions()
}

// PendingActions returns the number of action requests awaiting results.
func (g *Game) PendingActions() int {
	return g.conn.PendingActions()
}

// SubmitAction asks the game to execute one registered action and blocks
// until its result arrives.
func (g *Game) SubmitAction(ctx context.Context, name string, data *string) (correlate.Result, error) {
	return g.conn.SubmitAction(ctx, name, data)
}

// RequestReregisterAll asks the game to drop and re-register every action.
func (g *Game) RequestReregisterAll(ctx context.Context) error {
	return g.conn.RequestReregisterAll(ctx)
}

// RequestGracefulShutdown asks the game to shut down at its next graceful
// stopping point; wantsShutdown false cancels a previous request.
func (g *Game) RequestGracefulShutdown(ctx context.Context, wantsShutdown bool) error {
	return g.conn.RequestGracefulShutdown(ctx, wantsShutdown)
}

// RequestImmediateShutdown demands the game shut down as soon as it has
// saved.
func (g *Game) RequestImmediateShutdown(ctx context.Context) error {
	return g.conn.RequestImmediateShutdown(ctx)
}
