package composite

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/communisaas/resolver-cli/internal/confidence"
	"github.com/communisaas/resolver-cli/internal/model"
	"github.com/communisaas/resolver-cli/internal/stream"
	"github.com/communisaas/resolver-cli/pkg/gemini"
)

// resolveExtractionFirst runs the three-phase entity strategy: discovery
// through the extraction backend, batch verification through the reasoning
// backend, then combination. Verification failures degrade the result
// rather than failing it; discovery failures are fatal.
func (c *Composite) resolveExtractionFirst(req *model.ResolutionRequest) (*model.ResolutionResult, error) {
	ctx := req.Context()
	emitter := stream.NewPhased(req.Sink, c.cfg.SettleDelay)
	result := &model.ResolutionResult{
		Metadata: &model.ResultMetadata{Strategy: strategyExtraction},
	}

	// Phase 1: discovery.
	emitter.StartDiscovery()
	out, err := c.discover(ctx, req)
	if err != nil {
		return nil, eris.Wrapf(err, "composite: extraction-first discovery for %q", req.EntityName)
	}
	result.CacheHit = out.cacheHit

	ids := make([]int, len(out.people))
	for i, p := range out.people {
		ids[i] = emitter.EmitDiscovery(describeCandidate(p), p.Source)
	}
	result.SetPhase(phaseDiscovery, model.PhaseDiagnostic{
		FoundCount: len(out.people),
		Elapsed:    out.elapsed,
	})

	if len(out.people) == 0 {
		result.People = []model.ResolvedPerson{}
		result.SetPhase(phaseVerification, model.PhaseDiagnostic{
			Skipped: true,
			Note:    "skipped verification, no candidates",
		})
		emitter.Complete(false)
		return result, nil
	}
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	// Phase 2: verification.
	emitter.TransitionToVerification()
	verifyStart := time.Now()

	candidates := make([]gemini.Candidate, len(out.people))
	for i, p := range out.people {
		candidates[i] = gemini.Candidate{
			ID:           ids[i],
			Name:         p.Name,
			Title:        p.Title,
			Organization: p.Organization,
		}
	}

	verdicts, verifyErr := c.reasoning.VerifyBatch(ctx, candidates, c.cfg.VerifyTimeout)
	if verifyErr != nil {
		zap.L().Warn("composite: verification unavailable, returning unverified candidates",
			zap.String("entity", req.EntityName),
			zap.Error(verifyErr),
		)
		result.People = out.people
		result.Metadata.Degraded = true
		result.SetPhase(phaseVerification, model.PhaseDiagnostic{
			Degraded:        true,
			UnverifiedCount: len(out.people),
			Elapsed:         time.Since(verifyStart),
			Note:            "verification unavailable",
		})
		emitter.Degraded("candidates retain discovery confidence")
		return result, nil
	}

	// Phase 3: combination. Verdicts correlate back by discovery thought id;
	// verdicts whose id the backend dropped fall back to folded-name match.
	index := make(map[int]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	byName := make(map[string]int, len(out.people))
	for i, p := range out.people {
		folded := foldName(p.Name)
		if _, exists := byName[folded]; !exists {
			byName[folded] = i
		}
	}
	verified := 0
	for _, v := range verdicts {
		i, ok := index[v.ID]
		if !ok && v.Name != "" {
			i, ok = byName[foldName(v.Name)]
		}
		if !ok {
			continue
		}
		emitter.EmitVerification(ids[i], v.Confirmed, v.Source)
		if !v.Confirmed {
			continue
		}
		p := &out.people[i]
		p.Confidence = confidence.Verified(p.Confidence)
		p.AppendProvenance("verified against current sources")
		if p.Source == "" && v.Source != "" {
			p.Source = v.Source
		}
		verified++
	}

	result.People = out.people
	result.SetPhase(phaseVerification, model.PhaseDiagnostic{
		VerifiedCount:   verified,
		UnverifiedCount: len(out.people) - verified,
		Elapsed:         time.Since(verifyStart),
	})
	emitter.Complete(true)
	return result, nil
}
