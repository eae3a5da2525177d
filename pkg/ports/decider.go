package ports

import (
	"context"

	"github.com/CoolCat467/Neuro-API/pkg/command"
)

// ForcePrompt is one forced-choice round presented to the decision
// collaborator. Actions is the candidate subset resolved against the
// connection's registry, so the collaborator can see descriptions and
// schemas.
type ForcePrompt struct {
	GameTitle string
	State     *string
	Query     string
	Ephemeral bool
	Actions   []command.Action
}

// Decision is the collaborator's choice: an action name from the prompt's
// candidate set and, when the action carries a schema, a JSON-stringified
// payload matching it.
type Decision struct {
	Name string
	Data *string
}

// Decider picks an action during a forced choice. One decider is shared by
// every connection; implementations serialize their own internal state.
type Decider interface {
	Decide(ctx context.Context, prompt ForcePrompt) (Decision, error)
}
