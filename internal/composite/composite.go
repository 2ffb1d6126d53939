// Package composite implements the default provider: a two-strategy
// orchestrator that resolves reasoning-backend-first for civic target
// classes and extraction-first for named-entity classes, combining phase
// outputs under the shared confidence model.
package composite

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/communisaas/resolver-cli/internal/cache"
	"github.com/communisaas/resolver-cli/internal/model"
	"github.com/communisaas/resolver-cli/pkg/firecrawl"
	"github.com/communisaas/resolver-cli/pkg/gemini"
)

// ProviderName is the composite's registry name.
const ProviderName = "composite"

// Strategy names recorded in result metadata.
const (
	strategyPrimary    = "primary-first"
	strategyExtraction = "extraction-first"
)

// Phase diagnostic keys.
const (
	phaseDiscovery    = "firecrawlDiscovery"
	phaseVerification = "geminiVerification"
)

// Composite orchestrates the two research strategies over the Gemini and
// Firecrawl backends. It implements provider.Provider.
type Composite struct {
	cfg       Config
	reasoning gemini.Client
	extract   firecrawl.Client
	store     cache.Store // optional
}

// New creates a composite orchestrator. store may be nil to disable
// discovery caching.
func New(cfg Config, reasoning gemini.Client, extract firecrawl.Client, store cache.Store) *Composite {
	return &Composite{
		cfg:       cfg,
		reasoning: reasoning,
		extract:   extract,
		store:     store,
	}
}

func (c *Composite) Name() string { return ProviderName }

// Classes lists the partition members. Informational only: routing
// authority rests in CanResolve.
func (c *Composite) Classes() []model.TargetClass {
	out := make([]model.TargetClass, 0, len(c.cfg.PrimaryClasses)+len(c.cfg.EntityClasses))
	out = append(out, c.cfg.PrimaryClasses...)
	out = append(out, c.cfg.EntityClasses...)
	return out
}

// CanResolve accepts any class in either partition; entity classes
// additionally require a named target entity.
func (c *Composite) CanResolve(req *model.ResolutionRequest) bool {
	if c.cfg.isPrimary(req.Class) {
		return true
	}
	if c.cfg.isEntity(req.Class) {
		return req.EntityName != ""
	}
	return false
}

// Resolve picks the strategy from the request's class partition and runs
// it. The choice depends on nothing but the class.
func (c *Composite) Resolve(req *model.ResolutionRequest) (*model.ResolutionResult, error) {
	start := time.Now()

	var (
		result *model.ResolutionResult
		err    error
	)
	if c.cfg.isEntity(req.Class) {
		result, err = c.resolveExtractionFirst(req)
	} else {
		result, err = c.resolvePrimaryFirst(req)
	}
	if err != nil {
		return nil, err
	}

	result.Provider = ProviderName
	result.Elapsed = time.Since(start)
	result.SortPeople()

	zap.L().Info("composite: resolution complete",
		zap.String("class", string(req.Class)),
		zap.String("strategy", result.Metadata.Strategy),
		zap.Int("people", len(result.People)),
		zap.Bool("cache_hit", result.CacheHit),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// checkCancel returns the context error once the caller has canceled, so
// strategies can bail at natural yield points.
func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
