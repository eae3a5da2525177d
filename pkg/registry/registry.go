// Package registry tracks the actions a single connection has registered.
// It is the source of truth for what the controller may currently invoke on
// that game.
package registry

import (
	"sort"
	"sync"

	"github.com/CoolCat467/Neuro-API/pkg/command"
)

// Registry is a per-connection action table. The dispatch goroutine mutates
// it while force-action rounds read it, so access is guarded internally.
// Every operation is a total function over the current set; none of them can
// fail.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]command.Action
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		actions: make(map[string]command.Action),
	}
}

// Register inserts an action if its name is absent. Re-registering an
// existing name is a no-op; registered actions are never overwritten.
func (r *Registry) Register(action command.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[action.Name]; exists {
		return
	}
	r.actions[action.Name] = action
}

// Unregister removes an action by name. Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.actions, name)
}

// Clear empties the registry. Called on every startup command.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = make(map[string]command.Action)
}

// Lookup returns the subset of currently registered actions matching the
// given names, preserving the order of the name list. Unknown names are
// skipped.
func (r *Registry) Lookup(names []string) []command.Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := make([]command.Action, 0, len(names))
	for _, name := range names {
		if action, ok := r.actions[name]; ok {
			found = append(found, action)
		}
	}
	return found
}

// Get returns the action registered under name.
func (r *Registry) Get(name string) (command.Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	action, ok := r.actions[name]
	return action, ok
}

// Snapshot returns every registered action sorted by name, for inspection
// surfaces.
func (r *Registry) Snapshot() []command.Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]command.Action, 0, len(r.actions))
	for _, action := range r.actions {
		all = append(all, action)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}
