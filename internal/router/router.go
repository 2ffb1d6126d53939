// Package router selects and invokes a provider by priority and
// capability, with a per-call timeout and optional ordered fallback.
package router

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/communisaas/resolver-cli/internal/model"
	"github.com/communisaas/resolver-cli/internal/provider"
)

// DefaultTimeout bounds a single provider resolve call. Multi-phase
// strategies legitimately run one to three minutes.
const DefaultTimeout = 2 * time.Minute

// Options control one routing decision.
type Options struct {
	// Preferred names a provider to try first. It is used only when its
	// CanResolve accepts the request; otherwise priority order applies.
	Preferred string

	// AllowFallback retries the next-highest-priority capable provider
	// when the selected one fails. Without it a single failure propagates.
	AllowFallback bool

	// Timeout overrides the router's per-call timeout for this request.
	Timeout time.Duration
}

// Router owns a provider registry and executes resolution requests
// against it.
type Router struct {
	registry *provider.Registry
	timeout  time.Duration
}

// New creates a router over a registry. A zero timeout selects
// DefaultTimeout.
func New(registry *provider.Registry, timeout time.Duration) *Router {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Router{registry: registry, timeout: timeout}
}

// Registry exposes the router's registry for composition and diagnostics.
func (r *Router) Registry() *provider.Registry { return r.registry }

// candidates returns capable registrations in selection order: the
// preferred provider first when it accepts the request, then the rest by
// descending priority.
func (r *Router) candidates(req *model.ResolutionRequest, opts Options) []provider.Registration {
	all := r.registry.All()
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Priority > all[j].Priority
	})

	var out []provider.Registration
	if opts.Preferred != "" {
		if reg, ok := r.registry.Get(opts.Preferred); ok && reg.Provider.CanResolve(req) {
			out = append(out, reg)
		}
	}
	for _, reg := range all {
		if opts.Preferred != "" && reg.Provider.Name() == opts.Preferred {
			continue
		}
		if reg.Provider.CanResolve(req) {
			out = append(out, reg)
		}
	}
	return out
}

// Resolve selects a provider and runs it under the per-call timeout.
//
// Failures are wrapped as BackendFailureError. With AllowFallback set, each
// failure moves on to the next capable provider; exhausting them all yields
// AllProvidersFailedError. With no capable provider at all, the error is
// CapabilityMismatchError naming the class and the registry contents.
func (r *Router) Resolve(ctx context.Context, req *model.ResolutionRequest, opts Options) (*model.ResolutionResult, error) {
	cands := r.candidates(req, opts)
	if len(cands) == 0 {
		return nil, &provider.CapabilityMismatchError{
			Class:      req.Class,
			Registered: r.registry.Names(),
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}

	var attempted []string
	var lastErr error

	for i, reg := range cands {
		name := reg.Provider.Name()
		attempted = append(attempted, name)

		result, err := r.runOne(ctx, reg.Provider, req, timeout)
		if err == nil {
			return result, nil
		}

		lastErr = &provider.BackendFailureError{Provider: name, Err: err}
		zap.L().Warn("router: provider failed",
			zap.String("provider", name),
			zap.String("class", string(req.Class)),
			zap.Bool("fallback", opts.AllowFallback && i < len(cands)-1),
			zap.Error(err),
		)

		if !opts.AllowFallback {
			return nil, lastErr
		}
	}

	return nil, &provider.AllProvidersFailedError{Attempted: attempted, Last: lastErr}
}

// runOne executes a single provider call under the timeout. The timeout
// context is threaded into the request so a well-behaved provider exits
// early; the select enforces the deadline even when it does not.
func (r *Router) runOne(ctx context.Context, p provider.Provider, req *model.ResolutionRequest, timeout time.Duration) (*model.ResolutionResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	scoped := *req
	scoped.Ctx = callCtx

	type outcome struct {
		result *model.ResolutionResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := p.Resolve(&scoped)
		done <- outcome{result: res, err: err}
	}()

	select {
	case <-callCtx.Done():
		return nil, callCtx.Err()
	case o := <-done:
		return o.result, o.err
	}
}
