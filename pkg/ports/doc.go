// Package ports defines the interfaces between the negotiation core and its
// collaborators: the transport that frames messages, the decision
// collaborator that picks actions during forced choices, and the context
// sinks that receive narrative state from games. Adapters under
// internal/adapters provide the concrete implementations.
package ports
