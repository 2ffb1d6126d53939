package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communisaas/resolver-cli/internal/model"
	"github.com/communisaas/resolver-cli/internal/provider"
)

// fakeProvider implements provider.Provider with scripted behavior.
type fakeProvider struct {
	name     string
	can      bool
	err      error
	delay    time.Duration
	calls    int
	people   []model.ResolvedPerson
}

func (f *fakeProvider) Name() string                 { return f.name }
func (f *fakeProvider) Classes() []model.TargetClass { return nil }
func (f *fakeProvider) CanResolve(_ *model.ResolutionRequest) bool {
	return f.can
}
func (f *fakeProvider) Resolve(req *model.ResolutionRequest) (*model.ResolutionResult, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.ResolutionResult{Provider: f.name, People: f.people}, nil
}

func newRouter(regs ...provider.Registration) *Router {
	registry := provider.NewRegistry()
	for _, r := range regs {
		registry.Register(r.Provider, r.Priority)
	}
	return New(registry, time.Second)
}

func req() *model.ResolutionRequest {
	return &model.ResolutionRequest{Class: model.ClassOrganizational, EntityName: "Acme Corp"}
}

func TestResolve_SelectsHighestPriorityCapable(t *testing.T) {
	low := &fakeProvider{name: "low", can: true}
	high := &fakeProvider{name: "high", can: true}
	incapable := &fakeProvider{name: "incapable", can: false}

	r := newRouter(
		provider.Registration{Provider: low, Priority: 10},
		provider.Registration{Provider: high, Priority: 100},
		provider.Registration{Provider: incapable, Priority: 200},
	)

	res, err := r.Resolve(context.Background(), req(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "high", res.Provider)
	assert.Zero(t, low.calls)
	assert.Zero(t, incapable.calls)
}

func TestResolve_PreferredWinsRegardlessOfPriority(t *testing.T) {
	high := &fakeProvider{name: "high", can: true}
	pref := &fakeProvider{name: "pref", can: true}

	r := newRouter(
		provider.Registration{Provider: high, Priority: 100},
		provider.Registration{Provider: pref, Priority: 1},
	)

	res, err := r.Resolve(context.Background(), req(), Options{Preferred: "pref"})
	require.NoError(t, err)
	assert.Equal(t, "pref", res.Provider)
	assert.Zero(t, high.calls)
}

func TestResolve_PreferredIncapableFallsToPriorityOrder(t *testing.T) {
	high := &fakeProvider{name: "high", can: true}
	pref := &fakeProvider{name: "pref", can: false}

	r := newRouter(
		provider.Registration{Provider: high, Priority: 100},
		provider.Registration{Provider: pref, Priority: 1},
	)

	res, err := r.Resolve(context.Background(), req(), Options{Preferred: "pref"})
	require.NoError(t, err)
	assert.Equal(t, "high", res.Provider)
	assert.Zero(t, pref.calls)
}

func TestResolve_NoCapableProvider_CapabilityMismatch(t *testing.T) {
	r := newRouter(
		provider.Registration{Provider: &fakeProvider{name: "a", can: false}, Priority: 10},
	)

	_, err := r.Resolve(context.Background(), req(), Options{})
	var cm *provider.CapabilityMismatchError
	require.ErrorAs(t, err, &cm)
	assert.Equal(t, model.ClassOrganizational, cm.Class)
	assert.Contains(t, cm.Registered, "a")
}

func TestResolve_FailureWithoutFallbackPropagates(t *testing.T) {
	boom := errors.New("backend down")
	first := &fakeProvider{name: "first", can: true, err: boom}
	second := &fakeProvider{name: "second", can: true}

	r := newRouter(
		provider.Registration{Provider: first, Priority: 100},
		provider.Registration{Provider: second, Priority: 50},
	)

	_, err := r.Resolve(context.Background(), req(), Options{})
	var bf *provider.BackendFailureError
	require.ErrorAs(t, err, &bf)
	assert.Equal(t, "first", bf.Provider)
	assert.Zero(t, second.calls)
}

func TestResolve_FallbackRunsNextProvider(t *testing.T) {
	first := &fakeProvider{name: "first", can: true, err: errors.New("backend down")}
	second := &fakeProvider{name: "second", can: true}

	r := newRouter(
		provider.Registration{Provider: first, Priority: 100},
		provider.Registration{Provider: second, Priority: 50},
	)

	res, err := r.Resolve(context.Background(), req(), Options{AllowFallback: true})
	require.NoError(t, err)
	assert.Equal(t, "second", res.Provider)
	assert.Equal(t, 1, first.calls)
}

func TestResolve_FallbackExhausted_AllProvidersFailed(t *testing.T) {
	first := &fakeProvider{name: "first", can: true, err: errors.New("down")}
	second := &fakeProvider{name: "second", can: true, err: errors.New("also down")}

	r := newRouter(
		provider.Registration{Provider: first, Priority: 100},
		provider.Registration{Provider: second, Priority: 50},
	)

	_, err := r.Resolve(context.Background(), req(), Options{AllowFallback: true})
	var all *provider.AllProvidersFailedError
	require.ErrorAs(t, err, &all)
	assert.Equal(t, []string{"first", "second"}, all.Attempted)
	assert.Contains(t, err.Error(), "All providers failed")
}

func TestResolve_TimeoutIsFatalForAttempt(t *testing.T) {
	slow := &fakeProvider{name: "slow", can: true, delay: 500 * time.Millisecond}
	fast := &fakeProvider{name: "fast", can: true}

	r := newRouter(
		provider.Registration{Provider: slow, Priority: 100},
		provider.Registration{Provider: fast, Priority: 50},
	)

	res, err := r.Resolve(context.Background(), req(), Options{
		AllowFallback: true,
		Timeout:       50 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, "fast", res.Provider)
}

func TestResolve_CancellationThreadedIntoRequest(t *testing.T) {
	var sawCtx context.Context
	p := &fakeProvider{name: "p", can: true}
	registry := provider.NewRegistry()
	registry.Register(observingProvider{fakeProvider: p, saw: &sawCtx}, 10)
	r := New(registry, time.Second)

	_, err := r.Resolve(context.Background(), req(), Options{})
	require.NoError(t, err)
	require.NotNil(t, sawCtx)
	_, hasDeadline := sawCtx.Deadline()
	assert.True(t, hasDeadline)
}

// observingProvider captures the context the router threads into requests.
type observingProvider struct {
	*fakeProvider
	saw *context.Context
}

func (o observingProvider) Resolve(req *model.ResolutionRequest) (*model.ResolutionResult, error) {
	*o.saw = req.Context()
	return o.fakeProvider.Resolve(req)
}
