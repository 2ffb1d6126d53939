package model

// ThoughtPhase tags where in the resolution a thought was emitted. Within
// one resolution phases are emitted in order: understanding → context →
// discovery/lookup → verification → recommendation/complete.
type ThoughtPhase string

const (
	PhaseUnderstanding  ThoughtPhase = "understanding"
	PhaseContext        ThoughtPhase = "context"
	PhaseDiscovery      ThoughtPhase = "discovery"
	PhaseLookup         ThoughtPhase = "lookup"
	PhaseVerification   ThoughtPhase = "verification"
	PhaseRecommendation ThoughtPhase = "recommendation"
	PhaseComplete       ThoughtPhase = "complete"
)

// Thought is one unit of streamed reasoning shown to the caller in real
// time. Thoughts are immutable after emission, with one exception: the
// phased emitter may republish a discovery thought once with boosted
// confidence when verification confirms it (ConfidenceUpdate is set and ID
// references the original thought).
type Thought struct {
	ID        int          `json:"id"`
	Phase     ThoughtPhase `json:"phase"`
	Content   string       `json:"content"`
	Citations []string     `json:"citations,omitempty"`

	// Confidence is set only by the phased emitter.
	Confidence *float64 `json:"confidence,omitempty"`

	// ConfidenceUpdate marks a republication of an earlier thought with a
	// revised confidence; ID identifies the thought being revised.
	ConfidenceUpdate bool `json:"confidence_update,omitempty"`

	// Pinned flags a thought the caller should keep visible as a key
	// moment.
	Pinned bool `json:"pinned,omitempty"`
}

// ThoughtSink receives thoughts one at a time, synchronously, in emission
// order. Implementations must be fast and must not block indefinitely.
type ThoughtSink func(Thought)
