/*
Package neuroapi implements the controller side of the Neuro game API: a
bidirectional, message-based negotiation protocol between games and a
decision-making controller over a persistent websocket connection.

Games connect, announce themselves with a startup command, and register
actions: named operations the controller may invoke, optionally carrying a
JSON schema describing their payload. The game streams narrative context,
and at decision points it forces a choice: the controller must pick one
action from a candidate set and keeps retrying until the game accepts a
submission.

The controller is decider-agnostic. Anything implementing ports.Decider can
sit at the center: a human at a terminal, a scripted policy, or an LLM
frontend. One decider is shared by every connected game.

# Architecture

The library follows a ports-and-adapters layout. The protocol codec
(pkg/command), per-connection action registry (pkg/registry), and
pending-action correlator (pkg/correlate) are pure domain packages. The
ports package defines the seams: Transport, Decider, ContextSink, and
Journal. Adapters supply terminals, websockets, and journal backends.

# Usage

	package main

	import (
		"context"
		"log"

		neuroapi "github.com/CoolCat467/Neuro-API"
		"github.com/CoolCat467/Neuro-API/pkg/ports"
	)

	type firstDecider struct{}

	func (firstDecider) Decide(ctx context.Context, prompt ports.ForcePrompt) (ports.Decision, error) {
		// Always pick the first candidate.
		return ports.Decision{Name: prompt.Actions[0].Name}, nil
	}

	func main() {
		controller := neuroapi.New("localhost:8000", firstDecider{})
		if err := controller.Run(context.Background()); err != nil {
			log.Fatal(err)
		}
	}

Games then connect with any Neuro API client library and the controller
answers their forced choices with the decider's picks.
*/
package neuroapi
