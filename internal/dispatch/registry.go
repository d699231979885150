// Package dispatch routes extracted directives to their handlers, strictly
// in source order, and reduces the outcomes into the follow-up-turn
// decision.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/picobot/picobot/internal/directive"
)

// Outcome is the result of running one directive.
type Outcome struct {
	// Directive is the instruction this outcome belongs to.
	Directive directive.Directive
	// Success reports whether the handler completed its effect.
	Success bool
	// Detail is a short summary readable by both the user and the model.
	Detail string
	// SideEffectText carries text destined for the follow-up context block,
	// such as search results. Empty for purely side-effecting directives.
	SideEffectText string
	// TimedOut is set when the handler exceeded its execution limit.
	TimedOut bool
}

// Handler executes directives of a single kind.
type Handler interface {
	// Kind returns the directive kind this handler serves.
	Kind() directive.Kind

	// Handle executes the directive. now is the reference time the caller
	// supplied to Process; handlers must report failures through the
	// Outcome, not by panicking.
	Handle(ctx context.Context, d directive.Directive, now time.Time) Outcome
}

// Registry maps directive kinds to handlers.
// It provides thread-safe operations for registering and retrieving handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[directive.Kind]Handler
}

// NewRegistry creates a new empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[directive.Kind]Handler),
	}
}

// Register adds a handler to the registry.
// A handler already registered for the same kind is replaced.
func (r *Registry) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("cannot register nil handler")
	}
	kind := h.Kind()
	if !kind.Valid() {
		return fmt.Errorf("cannot register handler for invalid kind %q", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
	return nil
}

// Get retrieves the handler for a kind.
func (r *Registry) Get(kind directive.Kind) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds returns the registered kinds. The order is not guaranteed.
func (r *Registry) Kinds() []directive.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]directive.Kind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	return kinds
}
