// Package registry maps action type names to the handlers that execute them.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/stigoleg/coffeine/internal/scenario"
)

// Handler executes one action. It receives the descriptor's parameters
// verbatim and reports failure through the returned error.
type Handler func(ctx context.Context, params scenario.Parameters) error

// Registry is populated at setup time, before the scheduler starts. The lock
// only makes late registration memory-safe; nothing relies on it for ordering.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func New() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds handler to typ, replacing any earlier handler for the same
// type. Empty types and nil handlers are ignored.
func (r *Registry) Register(typ string, handler Handler) {
	if typ == "" || handler == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[typ] = handler
}

// Lookup returns the handler for typ.
func (r *Registry) Lookup(typ string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[typ]
	return h, ok
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Missing returns the types from want that have no handler, in input order.
func (r *Registry) Missing(want []string) []string {
	var out []string
	for _, t := range want {
		if _, ok := r.Lookup(t); !ok {
			out = append(out, t)
		}
	}
	return out
}
