// Package provider defines the contract every research backend implements
// and the registry the router selects from.
package provider

import (
	"sync"

	"github.com/communisaas/resolver-cli/internal/model"
)

// Provider is a pluggable research backend.
//
// CanResolve is a pure capability check: cheap, no side effects, and the
// sole authority for routing; Classes is informational only. Resolve may
// take seconds to minutes, must honor the request's cancellation context,
// and must return an empty result (not an error) for expected
// nothing-found outcomes.
type Provider interface {
	Name() string
	Classes() []model.TargetClass
	CanResolve(req *model.ResolutionRequest) bool
	Resolve(req *model.ResolutionRequest) (*model.ResolutionResult, error)
}

// Registration pairs a provider with its routing priority; higher wins.
type Registration struct {
	Provider Provider
	Priority int
}

// Registry holds provider registrations keyed by provider name.
// Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Registration)}
}

// Register adds or replaces a provider at the given priority.
func (r *Registry) Register(p Provider, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[p.Name()] = Registration{Provider: p, Priority: priority}
}

// Get returns the registration for a provider name.
func (r *Registry) Get(name string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[name]
	return reg, ok
}

// All returns every registration in unspecified order.
func (r *Registry) All() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Registration, 0, len(r.entries))
	for _, reg := range r.entries {
		out = append(out, reg)
	}
	return out
}

// Names returns all registered provider names in unspecified order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}
