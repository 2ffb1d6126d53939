package stream

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/communisaas/resolver-cli/internal/confidence"
	"github.com/communisaas/resolver-cli/internal/model"
)

// phasedState is the Phased emitter's internal state.
type phasedState int

const (
	stateIdle phasedState = iota
	stateDiscovering
	stateVerifying
	stateComplete
	stateDegraded
)

// Phased is the two-phase emitter: idle → discovering → verifying →
// {complete | degraded}. Discovery thoughts are stored by id so a later
// verification can republish them once with boosted confidence. Terminal
// states reject all further transitions and emissions.
//
// The id-to-thought map is guarded by a mutex; concurrent emitters for
// different candidates are independent.
type Phased struct {
	mu      sync.Mutex
	sink    model.ThoughtSink
	state   phasedState
	nextID  int
	stored  map[int]model.Thought
	settle  time.Duration
}

// NewPhased creates a two-phase emitter. settle is the pause inserted when
// transitioning to verification, for interactive callers that want pacing;
// zero is correct for non-interactive use.
func NewPhased(sink model.ThoughtSink, settle time.Duration) *Phased {
	return &Phased{
		sink:   sink,
		stored: make(map[int]model.Thought),
		settle: settle,
	}
}

func (p *Phased) emit(t model.Thought) {
	if p.sink != nil {
		p.sink(t)
	}
}

// StartDiscovery moves idle → discovering. Idempotent when already
// discovering; a no-op in any later state.
func (p *Phased) StartDiscovery() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != stateIdle {
		return
	}
	p.state = stateDiscovering
}

// EmitDiscovery publishes a discovery thought carrying the base confidence
// and returns its id for later verification correlation. Returns 0 without
// emitting when the emitter is not in the discovering state.
func (p *Phased) EmitDiscovery(content string, citations ...string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != stateDiscovering {
		return 0
	}

	p.nextID++
	conf := confidence.Base
	t := model.Thought{
		ID:         p.nextID,
		Phase:      model.PhaseDiscovery,
		Content:    content,
		Citations:  citations,
		Confidence: &conf,
	}
	p.stored[t.ID] = t
	p.emit(t)
	return t.ID
}

// TransitionToVerification moves discovering → verifying, publishing a
// phase-change event and pausing for the settle delay. A no-op in any other
// state.
func (p *Phased) TransitionToVerification() {
	p.mu.Lock()
	if p.state != stateDiscovering {
		p.mu.Unlock()
		return
	}
	p.state = stateVerifying
	p.nextID++
	t := model.Thought{
		ID:      p.nextID,
		Phase:   model.PhaseVerification,
		Content: "verifying discovered candidates",
	}
	settle := p.settle
	p.emit(t)
	p.mu.Unlock()

	if settle > 0 {
		time.Sleep(settle)
	}
}

// EmitVerification resolves a stored discovery thought. When confirmed, the
// thought is republished with boosted confidence as a confidence-update
// event referencing the original id. Disconfirmed thoughts keep their base
// confidence and produce no event. Unknown ids are silently ignored; the
// candidate may have been discovered by a path that never registered one.
func (p *Phased) EmitVerification(id int, confirmed bool, note string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != stateVerifying {
		return
	}

	orig, ok := p.stored[id]
	if !ok {
		zap.L().Debug("stream: verification for unknown thought id",
			zap.Int("id", id),
		)
		return
	}
	if !confirmed {
		return
	}

	prior := 0.0
	if orig.Confidence != nil {
		prior = *orig.Confidence
	}
	boosted := confidence.Verified(prior)

	update := model.Thought{
		ID:               orig.ID,
		Phase:            model.PhaseVerification,
		Content:          orig.Content,
		Citations:        orig.Citations,
		Confidence:       &boosted,
		ConfidenceUpdate: true,
	}
	if note != "" {
		update.Content = orig.Content + ": " + note
	}

	// A confirmation is applied at most once per id.
	delete(p.stored, id)
	p.emit(update)
}

// Complete moves the emitter to its successful terminal state, publishing a
// final recommendation or completion event.
func (p *Phased) Complete(success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == stateComplete || p.state == stateDegraded {
		return
	}
	p.state = stateComplete

	p.nextID++
	phase := model.PhaseComplete
	content := "resolution complete"
	if !success {
		content = "resolution complete, no candidates found"
	}
	p.emit(model.Thought{
		ID:      p.nextID,
		Phase:   phase,
		Content: content,
		Pinned:  success,
	})
}

// Degraded moves the emitter to the degraded terminal state: verification
// was unavailable and candidates retain their discovery confidence.
func (p *Phased) Degraded(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == stateComplete || p.state == stateDegraded {
		return
	}
	p.state = stateDegraded

	p.nextID++
	p.emit(model.Thought{
		ID:      p.nextID,
		Phase:   model.PhaseComplete,
		Content: "verification unavailable: " + reason,
	})
}
