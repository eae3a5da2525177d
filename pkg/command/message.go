package command

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Message is the decoded form of one inbound envelope. It is a closed set of
// variants, one per command tag in the catalog, plus Unknown for tags outside
// the catalog. Dispatchers type-switch over it exhaustively.
type Message interface {
	// Tag returns the wire command tag this message decoded from.
	Tag() string
	// GameTitle returns the game title the envelope was sent under.
	GameTitle() string
}

// Startup binds the game title and asks for the action registry to be
// cleared.
type Startup struct {
	Game string
}

// Context is free-form narrative state pushed by the game.
type Context struct {
	Game    string
	Message string
	Silent  bool
}

// RegisterActions adds actions to the connection's registry.
type RegisterActions struct {
	Game    string
	Actions []Action
}

// UnregisterActions removes actions from the connection's registry.
type UnregisterActions struct {
	Game        string
	ActionNames []string
}

// ForceActions compels the controller to pick one action from a bounded
// candidate set, retrying until a submission is accepted.
type ForceActions struct {
	Game             string
	State            *string
	Query            string
	EphemeralContext bool
	ActionNames      []string
}

// ActionResult reports the outcome of a previously submitted action request.
type ActionResult struct {
	Game    string
	ID      string
	Success bool
	Message *string
}

// ShutdownReady signals the game is ready for an orderly connection close.
type ShutdownReady struct {
	Game string
}

// Unknown carries a command tag outside the catalog. Unknown commands are
// forward-compatible, not errors.
type Unknown struct {
	Game string
	Raw  string
	Data map[string]any
}

func (m Startup) Tag() string           { return TagStartup }
func (m Context) Tag() string           { return TagContext }
func (m RegisterActions) Tag() string   { return TagActionsRegister }
func (m UnregisterActions) Tag() string { return TagActionsUnregister }
func (m ForceActions) Tag() string      { return TagActionsForce }
func (m ActionResult) Tag() string      { return TagActionResult }
func (m ShutdownReady) Tag() string     { return TagShutdownReady }
func (m Unknown) Tag() string           { return m.Raw }

func (m Startup) GameTitle() string           { return m.Game }
func (m Context) GameTitle() string           { return m.Game }
func (m RegisterActions) GameTitle() string   { return m.Game }
func (m UnregisterActions) GameTitle() string { return m.Game }
func (m ForceActions) GameTitle() string      { return m.Game }
func (m ActionResult) GameTitle() string      { return m.Game }
func (m ShutdownReady) GameTitle() string     { return m.Game }
func (m Unknown) GameTitle() string           { return m.Game }

// payload shapes decoded out of Envelope.Data. Field presence is checked
// against the raw map, so optional fields need no pointer indirection unless
// null is a meaningful value.
type contextPayload struct {
	Message string `mapstructure:"message"`
	Silent  bool   `mapstructure:"silent"`
}

type registerActionsPayload struct {
	Actions []map[string]any `mapstructure:"actions"`
}

type actionPayload struct {
	Name        string         `mapstructure:"name"`
	Description string         `mapstructure:"description"`
	Schema      map[string]any `mapstructure:"schema"`
}

type unregisterActionsPayload struct {
	ActionNames []string `mapstructure:"action_names"`
}

type forceActionsPayload struct {
	State            *string  `mapstructure:"state"`
	Query            string   `mapstructure:"query"`
	EphemeralContext bool     `mapstructure:"ephemeral_context"`
	ActionNames      []string `mapstructure:"action_names"`
}

type actionResultPayload struct {
	ID      string  `mapstructure:"id"`
	Success bool    `mapstructure:"success"`
	Message *string `mapstructure:"message"`
}

// Decode parses one wire message into its typed variant. Tags outside the
// catalog decode into Unknown rather than failing; every structural problem
// with a known tag yields an error satisfying errors.Is(err, ErrMalformed).
func Decode(raw []byte) (Message, error) {
	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return nil, malformedf("%v", err)
	}
	if env.Command == "" {
		return nil, malformedf("command attribute must be set")
	}
	if env.Game == "" {
		return nil, malformedf("game attribute must be set")
	}

	switch env.Command {
	case TagStartup:
		return Startup{Game: env.Game}, nil

	case TagContext:
		var p contextPayload
		if err := decodeData(env.Command, env.Data, &p, "message", "silent"); err != nil {
			return nil, err
		}
		return Context{Game: env.Game, Message: p.Message, Silent: p.Silent}, nil

	case TagActionsRegister:
		actions, err := decodeActions(env.Command, env.Data)
		if err != nil {
			return nil, err
		}
		return RegisterActions{Game: env.Game, Actions: actions}, nil

	case TagActionsUnregister:
		var p unregisterActionsPayload
		if err := decodeData(env.Command, env.Data, &p, "action_names"); err != nil {
			return nil, err
		}
		return UnregisterActions{Game: env.Game, ActionNames: p.ActionNames}, nil

	case TagActionsForce:
		var p forceActionsPayload
		if err := decodeData(env.Command, env.Data, &p, "query", "action_names"); err != nil {
			return nil, err
		}
		if len(p.ActionNames) == 0 {
			return nil, malformedTagf(env.Command, "action_names must not be empty")
		}
		return ForceActions{
			Game:             env.Game,
			State:            p.State,
			Query:            p.Query,
			EphemeralContext: p.EphemeralContext,
			ActionNames:      p.ActionNames,
		}, nil

	case TagActionResult:
		var p actionResultPayload
		if err := decodeData(env.Command, env.Data, &p, "id", "success"); err != nil {
			return nil, err
		}
		return ActionResult{Game: env.Game, ID: p.ID, Success: p.Success, Message: p.Message}, nil

	case TagShutdownReady:
		return ShutdownReady{Game: env.Game}, nil

	default:
		return Unknown{Game: env.Game, Raw: env.Command, Data: env.Data}, nil
	}
}

// decodeData maps a raw payload into out, rejecting unknown keys, mistyped
// values, and absent or null required keys.
func decodeData(tag string, data map[string]any, out any, required ...string) error {
	if data == nil {
		return malformedTagf(tag, "data attribute must be set")
	}
	for _, key := range required {
		value, ok := data[key]
		if !ok || value == nil {
			return malformedTagf(tag, "missing required key %q", key)
		}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return fmt.Errorf("build payload decoder: %w", err)
	}
	if err := dec.Decode(data); err != nil {
		return malformedTagf(tag, "%v", err)
	}
	return nil
}

// decodeActions parses and validates the actions/register payload. The list
// must be non-empty and every action name must follow the protocol naming
// convention.
func decodeActions(tag string, data map[string]any) ([]Action, error) {
	var p registerActionsPayload
	if err := decodeData(tag, data, &p, "actions"); err != nil {
		return nil, err
	}
	if len(p.Actions) == 0 {
		return nil, malformedTagf(tag, "actions must not be empty")
	}

	actions := make([]Action, 0, len(p.Actions))
	for i, raw := range p.Actions {
		var ap actionPayload
		if err := decodeData(tag, raw, &ap, "name", "description"); err != nil {
			return nil, err
		}
		if err := CheckActionName(ap.Name); err != nil {
			return nil, malformedTagf(tag, "actions[%d]: %v", i, err)
		}
		actions = append(actions, Action{
			Name:        ap.Name,
			Description: ap.Description,
			Schema:      ap.Schema,
		})
	}
	return actions, nil
}
