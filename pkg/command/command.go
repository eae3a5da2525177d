// Package command implements the wire protocol spoken between a game and the
// controller: the `{command, game, data}` envelope, the closed catalog of
// command tags, strict payload decoding, and constructors for every outbound
// command.
package command

import (
	"encoding/json"
	"regexp"
)

// Command tags received from the game.
const (
	TagStartup           = "startup"
	TagContext           = "context"
	TagActionsRegister   = "actions/register"
	TagActionsUnregister = "actions/unregister"
	TagActionsForce      = "actions/force"
	TagActionResult      = "action/result"
	TagShutdownReady     = "shutdown/ready"
)

// Command tags sent to the game.
const (
	TagAction               = "action"
	TagActionsReregisterAll = "actions/reregister_all"
	TagShutdownGraceful     = "shutdown/graceful"
	TagShutdownImmediate    = "shutdown/immediate"
)

// Envelope is the outermost wire shape of every protocol message.
// Inbound envelopes always carry a game title; outbound ones never do.
type Envelope struct {
	Command string         `json:"command"`
	Game    string         `json:"game,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Encode serializes the envelope to wire text.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Action is one operation a game exposes for the controller to invoke.
// Immutable once registered. Schema, when present, is an opaque JSON-schema
// object describing the shape of the action's data payload.
type Action struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema,omitempty"`
}

// actionNameRe encodes the protocol's naming convention: lowercase words
// joined by underscores or hyphens.
var actionNameRe = regexp.MustCompile(`^[a-z0-9_-]+$`)

// CheckActionName validates an action name against the protocol convention.
func CheckActionName(name string) error {
	if name == "" {
		return malformedf("action name must not be empty")
	}
	if !actionNameRe.MatchString(name) {
		return malformedf("action name %q must be lowercase letters, digits, underscores or hyphens", name)
	}
	return nil
}

// ActionCommand builds the outbound request asking the game to execute a
// registered action. Data, when non-nil, is JSON-stringified content matching
// the action's registered schema.
func ActionCommand(id, name string, data *string) Envelope {
	payload := map[string]any{
		"id":   id,
		"name": name,
	}
	if data != nil {
		payload["data"] = *data
	}
	return Envelope{Command: TagAction, Data: payload}
}

// ReregisterAllCommand builds the outbound request telling the game to
// unregister every action and register them again. Part of the proposed API;
// some games do not support it.
func ReregisterAllCommand() Envelope {
	return Envelope{Command: TagActionsReregisterAll}
}

// ShutdownGracefulCommand builds the outbound request asking the game to shut
// down at its next graceful stopping point. A false wantsShutdown cancels a
// previous request. Part of the game automation API.
func ShutdownGracefulCommand(wantsShutdown bool) Envelope {
	return Envelope{
		Command: TagShutdownGraceful,
		Data:    map[string]any{"wants_shutdown": wantsShutdown},
	}
}

// ShutdownImmediateCommand builds the outbound request demanding the game
// shut down as soon as it has saved. Part of the game automation API.
func ShutdownImmediateCommand() Envelope {
	return Envelope{Command: TagShutdownImmediate}
}
