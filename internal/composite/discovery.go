package composite

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/communisaas/resolver-cli/internal/cache"
	"github.com/communisaas/resolver-cli/internal/confidence"
	"github.com/communisaas/resolver-cli/internal/model"
	"github.com/communisaas/resolver-cli/internal/resilience"
	"github.com/communisaas/resolver-cli/pkg/firecrawl"
)

// retryableBackendError treats transient HTTP statuses from the extraction
// API as retryable, alongside the usual network-level failures.
func retryableBackendError(err error) bool {
	var apiErr *firecrawl.APIError
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return resilience.IsTransient(err)
}

// discoveryOutcome is what one discovery pass produced, fresh or cached.
type discoveryOutcome struct {
	people   []model.ResolvedPerson
	cacheHit bool
	elapsed  time.Duration
}

// discover gathers unverified candidates from the extraction backend,
// reading through the cache when one is configured. Cache failures are
// logged and treated as misses; a broken cache never blocks discovery.
func (c *Composite) discover(ctx context.Context, req *model.ResolutionRequest) (*discoveryOutcome, error) {
	start := time.Now()
	key := cache.Key(req)

	if c.store != nil {
		entry, err := c.store.Get(ctx, key)
		if err != nil {
			zap.L().Warn("composite: cache read failed",
				zap.String("key", key),
				zap.Error(err),
			)
		} else if entry != nil {
			people := make([]model.ResolvedPerson, len(entry.Result.People))
			copy(people, entry.Result.People)
			return &discoveryOutcome{
				people:   people,
				cacheHit: true,
				elapsed:  time.Since(start),
			}, nil
		}
	}

	extractReq := firecrawl.ExtractRequest{
		Prompt: extractionPrompt(req),
	}
	if req.EntityURL != "" {
		extractReq.URLs = []string{req.EntityURL}
		extractReq.PriorityURL = req.EntityURL
	} else {
		extractReq.EnableWebSearch = true
	}

	retry := resilience.DefaultConfig()
	retry.ShouldRetry = retryableBackendError
	retry.OnRetry = resilience.Logger("firecrawl", "extract")
	resp, err := resilience.Do(ctx, retry, func(ctx context.Context) (*firecrawl.ExtractResponse, error) {
		return c.extract.Extract(ctx, extractReq)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "composite: discovery for %q", req.EntityName)
	}
	if !resp.Success {
		return nil, eris.Errorf("composite: extraction backend reported failure for %q", req.EntityName)
	}

	people := make([]model.ResolvedPerson, 0, len(resp.Data.Leadership))
	seen := make(map[string]bool, len(resp.Data.Leadership))
	for _, rec := range resp.Data.Leadership {
		if rec.Name == "" {
			continue
		}
		// Extraction across several pages repeats people; keep the first.
		folded := foldName(rec.Name)
		if seen[folded] {
			continue
		}
		seen[folded] = true
		org := rec.Organization
		if org == "" {
			org = req.EntityName
		}
		p := model.ResolvedPerson{
			Name:         rec.Name,
			Title:        rec.Title,
			Organization: org,
			Email:        rec.Email,
			Source:       rec.SourceURL,
			Confidence:   confidence.Discovered(0),
			Power:        model.PowerFromTitle(rec.Title),
		}
		p.AppendProvenance("discovered via extraction")
		people = append(people, p)
	}

	out := &discoveryOutcome{people: people, elapsed: time.Since(start)}

	if c.store != nil && len(people) > 0 {
		cached := &model.ResolutionResult{
			People:   people,
			Provider: ProviderName,
		}
		if err := c.store.Put(ctx, key, cached, c.cfg.CacheTTL); err != nil {
			zap.L().Warn("composite: cache write failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
	return out, nil
}
