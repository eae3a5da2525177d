// Package console adapts a human at a terminal into the decision
// collaborator: forced-choice prompts become numbered menus, narrative state
// is rendered as markdown, and context entries stream to the terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/CoolCat467/Neuro-API/internal/logging"
	"github.com/CoolCat467/Neuro-API/pkg/command"
	"github.com/CoolCat467/Neuro-API/pkg/jsonschema"
	"github.com/CoolCat467/Neuro-API/pkg/ports"
)

// Decider prompts a human on the terminal for every forced choice. One
// decider is shared by all connections, so prompts are serialized with an
// internal mutex to keep concurrent rounds from interleaving their menus.
type Decider struct {
	in      *bufio.Reader
	out     io.Writer
	profile termenv.Profile
	render  func(string) (string, error)
	logger  *slog.Logger

	mu sync.Mutex
}

// Option configures a Decider.
type Option func(*Decider)

// WithInput overrides the input stream, defaulting to stdin.
func WithInput(r io.Reader) Option {
	return func(d *Decider) {
		d.in = bufio.NewReader(r)
	}
}

// WithOutput overrides the output stream, defaulting to stdout.
func WithOutput(w io.Writer) Option {
	return func(d *Decider) {
		d.out = w
	}
}

// WithProfile overrides terminal color detection. Tests pass termenv.Ascii.
func WithProfile(p termenv.Profile) Option {
	return func(d *Decider) {
		d.profile = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decider) {
		d.logger = logger
	}
}

// New builds a terminal decider. Markdown rendering degrades to plain text
// when no renderer can be constructed for the environment.
func New(opts ...Option) *Decider {
	d := &Decider{
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		profile: termenv.ColorProfile(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	); err == nil && d.profile != termenv.Ascii {
		d.render = r.Render
	} else {
		d.render = func(markdown string) (string, error) { return markdown + "\n", nil }
	}
	return d
}

// Decide presents the forced choice as a numbered menu and blocks until the
// human picks a candidate and, for schema-carrying actions, supplies a data
// payload. Input reads run on a goroutine so ctx cancellation can abandon
// the prompt mid-read.
func (d *Decider) Decide(ctx context.Context, prompt ports.ForcePrompt) (ports.Decision, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.printPrompt(prompt)

	choice, err := d.readChoice(ctx, len(prompt.Actions))
	if err != nil {
		return ports.Decision{}, err
	}
	action := prompt.Actions[choice]

	if action.Schema == nil {
		return ports.Decision{Name: action.Name}, nil
	}

	data, err := d.readData(ctx, action)
	if err != nil {
		return ports.Decision{}, err
	}
	return ports.Decision{Name: action.Name, Data: data}, nil
}

func (d *Decider) printPrompt(prompt ports.ForcePrompt) {
	title := termenv.String(prompt.GameTitle).Bold().Foreground(d.profile.Color("#818cf8"))
	fmt.Fprintf(d.out, "\n%s wants you to act\n", title)

	if prompt.State != nil && *prompt.State != "" {
		if rendered, err := d.render(*prompt.State); err == nil {
			fmt.Fprint(d.out, rendered)
		} else {
			fmt.Fprintln(d.out, *prompt.State)
		}
	}
	query := termenv.String(prompt.Query).Bold()
	fmt.Fprintf(d.out, "%s\n", query)

	for i, action := range prompt.Actions {
		name := termenv.String(action.Name).Foreground(d.profile.Color("#c084fc"))
		fmt.Fprintf(d.out, "  %d) %s  %s\n", i+1, name, action.Description)
	}
}

// readChoice loops until the human enters a number inside the menu range.
func (d *Decider) readChoice(ctx context.Context, count int) (int, error) {
	for {
		line, err := d.readLine(ctx, fmt.Sprintf("choice [1-%d]: ", count))
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || n < 1 || n > count {
			fmt.Fprintf(d.out, "enter a number between 1 and %d\n", count)
			continue
		}
		return n - 1, nil
	}
}

// readData asks for the action's JSON payload. A payload failing the
// action's schema gets a warning but is sent anyway; the game has the final
// say and replies with an unsuccessful result if it disagrees.
func (d *Decider) readData(ctx context.Context, action command.Action) (*string, error) {
	validator, err := jsonschema.Compile(action.Schema)
	if err != nil {
		d.logger.Warn("action schema did not compile, skipping validation",
			"action", action.Name,
			"err", err,
		)
		validator = nil
	}

	line, err := d.readLine(ctx, fmt.Sprintf("data for %s (JSON, empty for none): ", action.Name))
	if err != nil {
		return nil, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	if validator != nil {
		if err := validator.Validate([]byte(line)); err != nil {
			warn := termenv.String("payload does not match the action's schema").Foreground(d.profile.Color("#fb7185"))
			fmt.Fprintf(d.out, "%s: %v\n", warn, err)
		}
	}
	return &line, nil
}

// readLine prints a prompt and reads one line, abandoning the read when ctx
// is canceled. The blocked read goroutine leaks until the next input
// arrives, which is acceptable for an interactive session ending anyway.
func (d *Decider) readLine(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(d.out, prompt)

	type lineResult struct {
		line string
		err  error
	}
	ch := make(chan lineResult, 1)
	go func() {
		line, err := d.in.ReadString('\n')
		ch <- lineResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil && (res.line == "" || res.err != io.EOF) {
			return "", fmt.Errorf("read input: %w", res.err)
		}
		return res.line, nil
	}
}

// Sink prints context entries to the terminal as they arrive. Entries the
// game marked silent print dimmed.
type Sink struct {
	out     io.Writer
	profile termenv.Profile

	mu sync.Mutex
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithSinkOutput overrides the output stream, defaulting to stdout.
func WithSinkOutput(w io.Writer) SinkOption {
	return func(s *Sink) {
		s.out = w
	}
}

// WithSinkProfile overrides terminal color detection.
func WithSinkProfile(p termenv.Profile) SinkOption {
	return func(s *Sink) {
		s.profile = p
	}
}

// NewSink builds a terminal context sink.
func NewSink(opts ...SinkOption) *Sink {
	s := &Sink{
		out:     os.Stdout,
		profile: termenv.ColorProfile(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PushContext prints one context entry.
func (s *Sink) PushContext(_ context.Context, entry ports.ContextEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	title := termenv.String("[" + entry.GameTitle + "]").Foreground(s.profile.Color("#a78bfa"))
	message := termenv.String(entry.Message)
	if !entry.ReplyIfNotBusy {
		message = message.Faint()
	}
	_, err := fmt.Fprintf(s.out, "%s %s\n", title, message)
	return err
}
