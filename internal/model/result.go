package model

import (
	"sort"
	"time"
)

// PhaseDiagnostic records what one strategy phase did, for result metadata
// and post-hoc debugging.
type PhaseDiagnostic struct {
	Skipped         bool          `json:"skipped,omitempty"`
	Degraded        bool          `json:"degraded,omitempty"`
	FoundCount      int           `json:"found_count,omitempty"`
	VerifiedCount   int           `json:"verified_count,omitempty"`
	UnverifiedCount int           `json:"unverified_count,omitempty"`
	Elapsed         time.Duration `json:"elapsed,omitempty"`
	Note            string        `json:"note,omitempty"`
}

// ResultMetadata carries strategy-level diagnostics alongside a result.
type ResultMetadata struct {
	Strategy string                     `json:"strategy,omitempty"`
	Degraded bool                       `json:"degraded,omitempty"`
	Phases   map[string]PhaseDiagnostic `json:"phases,omitempty"`

	// FallbackFrom names the provider whose failure this result recovered
	// from, with the original error text preserved.
	FallbackFrom  string `json:"fallback_from,omitempty"`
	FallbackCause string `json:"fallback_cause,omitempty"`
}

// ResolutionResult is the standard shape every provider returns.
// People are sorted descending by confidence.
type ResolutionResult struct {
	People   []ResolvedPerson `json:"people"`
	Provider string           `json:"provider"`
	CacheHit bool             `json:"cache_hit,omitempty"`
	Elapsed  time.Duration    `json:"elapsed"`
	Summary  string           `json:"summary,omitempty"`
	Metadata *ResultMetadata  `json:"metadata,omitempty"`
}

// SortPeople orders candidates by descending confidence and clamps every
// score into [0,1]. Stable so equal-confidence candidates keep discovery
// order.
func (r *ResolutionResult) SortPeople() {
	for i := range r.People {
		r.People[i].ClampConfidence()
	}
	sort.SliceStable(r.People, func(i, j int) bool {
		return r.People[i].Confidence > r.People[j].Confidence
	})
}

// Phase returns the named phase diagnostic, creating metadata maps on
// demand so callers can assemble diagnostics incrementally.
func (r *ResolutionResult) SetPhase(name string, d PhaseDiagnostic) {
	if r.Metadata == nil {
		r.Metadata = &ResultMetadata{}
	}
	if r.Metadata.Phases == nil {
		r.Metadata.Phases = make(map[string]PhaseDiagnostic)
	}
	r.Metadata.Phases[name] = d
}
