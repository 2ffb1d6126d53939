package composite

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/communisaas/resolver-cli/internal/confidence"
	"github.com/communisaas/resolver-cli/internal/model"
	"github.com/communisaas/resolver-cli/internal/resilience"
	"github.com/communisaas/resolver-cli/internal/stream"
	"github.com/communisaas/resolver-cli/pkg/gemini"
)

// resolvePrimaryFirst runs the reasoning backend and relabels its output as
// the composite's. When the backend fails and the request names both an
// entity and its URL, discovery alone recovers the result; otherwise the
// original failure propagates.
func (c *Composite) resolvePrimaryFirst(req *model.ResolutionRequest) (*model.ResolutionResult, error) {
	ctx := req.Context()
	emitter := stream.NewSimple(req.Sink)

	emitter.Emit(model.PhaseUnderstanding, "analyzing who holds authority over "+string(req.Class)+" targets")
	if req.Scope != "" {
		emitter.Emit(model.PhaseContext, "scoping research to "+req.Scope)
	}
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	retry := resilience.DefaultConfig()
	retry.OnRetry = resilience.Logger("gemini", "research")
	research, err := resilience.Do(ctx, retry, func(ctx context.Context) (*gemini.ResearchResult, error) {
		return c.reasoning.Research(ctx, researchPrompt(req))
	})
	if err != nil {
		if fallback := c.recoverViaExtraction(req, emitter, err); fallback != nil {
			return fallback, nil
		}
		return nil, eris.Wrap(err, "composite: primary research")
	}

	people, parseErr := model.ParsePeople(research.Text)
	if parseErr != nil {
		// Prose without a candidate array is still a usable summary.
		zap.L().Warn("composite: unstructured research response",
			zap.String("class", string(req.Class)),
			zap.Error(parseErr),
		)
	}
	for i := range people {
		people[i].Confidence = confidence.Discovered(people[i].Confidence)
		people[i].AppendProvenance("resolved via grounded research")
		emitter.Emit(model.PhaseLookup, describeCandidate(people[i]), people[i].Source)
	}

	if len(people) > 0 {
		emitter.Pin(model.PhaseRecommendation, "strongest contact: "+describeCandidate(people[0]))
	}
	emitter.Emit(model.PhaseComplete, "resolution complete")

	return &model.ResolutionResult{
		People:  people,
		Summary: research.Text,
		Metadata: &model.ResultMetadata{
			Strategy: strategyPrimary,
		},
	}, nil
}

// recoverViaExtraction attempts the extraction backend after a primary
// failure. Returns nil when the prerequisites are absent or extraction also
// fails; the caller then re-raises the primary error.
func (c *Composite) recoverViaExtraction(req *model.ResolutionRequest, emitter *stream.Simple, cause error) *model.ResolutionResult {
	if req.EntityURL == "" || req.EntityName == "" {
		return nil
	}

	zap.L().Warn("composite: primary backend failed, recovering via extraction",
		zap.String("entity", req.EntityName),
		zap.Error(cause),
	)
	emitter.Emit(model.PhaseLookup, "primary research unavailable, reading "+req.EntityURL+" directly")

	out, err := c.discover(req.Context(), req)
	if err != nil {
		zap.L().Warn("composite: extraction recovery failed",
			zap.String("entity", req.EntityName),
			zap.Error(err),
		)
		return nil
	}

	for i := range out.people {
		out.people[i].AppendProvenance("recovered via fallback")
		emitter.Emit(model.PhaseLookup, describeCandidate(out.people[i]), out.people[i].Source)
	}
	emitter.Emit(model.PhaseComplete, "resolution complete via fallback")

	return &model.ResolutionResult{
		People:   out.people,
		CacheHit: out.cacheHit,
		Metadata: &model.ResultMetadata{
			Strategy:      strategyPrimary,
			FallbackFrom:  "gemini",
			FallbackCause: cause.Error(),
		},
	}
}
