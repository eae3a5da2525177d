package server

import (
	"context"
	"fmt"
	"time"

	"github.com/CoolCat467/Neuro-API/pkg/command"
	"github.com/CoolCat467/Neuro-API/pkg/ports"
)

// now is swapped out by tests that need deterministic timestamps.
var now = func() time.Time { return time.Now().UTC() }

// performForcedAction runs one forced negotiation round: present the
// candidate actions to the decider, submit its choice, and retry with the
// same prompt until the game reports success. Candidate lookup happens fresh
// on every attempt so registry changes between retries take effect.
func (c *Conn) performForcedAction(ctx context.Context, force command.ForceActions) error {
	if !force.EphemeralContext {
		if state := stringOrEmpty(force.State); state != "" {
			c.pushContext(ctx, state, false)
		}
		c.pushContext(ctx, force.Query, false)
	}
	c.metrics.ForceRounds.Inc()

	for attempt := 0; ; attempt++ {
		candidates := c.registry.Lookup(force.ActionNames)
		if len(candidates) == 0 {
			return fmt.Errorf("no forced action is registered: %v", force.ActionNames)
		}

		prompt := ports.ForcePrompt{
			GameTitle: c.GameTitle(),
			State:     force.State,
			Query:     force.Query,
			Ephemeral: force.EphemeralContext,
			Actions:   candidates,
		}

		decision, err := c.decider.Decide(ctx, prompt)
		if err != nil {
			return fmt.Errorf("decide forced action: %w", err)
		}
		if !containsName(force.ActionNames, decision.Name) {
			c.logger.Warn("decider chose an action outside the forced set",
				"chosen", decision.Name,
				"offered", force.ActionNames,
			)
		}

		result, err := c.SubmitAction(ctx, decision.Name, decision.Data)
		if err != nil {
			return fmt.Errorf("submit forced action %q: %w", decision.Name, err)
		}
		if result.Success {
			c.logger.Debug("forced action succeeded",
				"action", decision.Name,
				"attempts", attempt+1,
			)
			return nil
		}

		c.metrics.ForceRetries.Inc()
		c.logger.Debug("forced action unsuccessful, retrying",
			"action", decision.Name,
			"message", result.Message,
		)
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
