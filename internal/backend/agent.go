package backend

import (
	"github.com/communisaas/resolver-cli/internal/agent"
	"github.com/communisaas/resolver-cli/internal/model"
	"github.com/communisaas/resolver-cli/internal/stream"
)

// AgentProvider resolves through the bounded tool-loop agent. Registered at
// the lowest priority: it is the slowest and most expensive path, reached
// only when everything above it has failed.
type AgentProvider struct {
	agent *agent.Agent
}

// NewAgentProvider wraps an investigation agent as a provider.
func NewAgentProvider(a *agent.Agent) *AgentProvider {
	return &AgentProvider{agent: a}
}

func (p *AgentProvider) Name() string { return "agent" }

func (p *AgentProvider) Classes() []model.TargetClass { return nil }

// CanResolve accepts everything: the agent can investigate any request.
func (p *AgentProvider) CanResolve(*model.ResolutionRequest) bool { return true }

func (p *AgentProvider) Resolve(req *model.ResolutionRequest) (*model.ResolutionResult, error) {
	emitter := stream.NewSimple(req.Sink)
	emitter.Emit(model.PhaseUnderstanding, "starting tool-loop investigation")

	outcome, err := p.agent.Investigate(req.Context(), req)
	if err != nil {
		return nil, err
	}

	for _, person := range outcome.People {
		emitter.Emit(model.PhaseLookup, person.Name+", "+person.Title, person.Source)
	}
	emitter.Emit(model.PhaseComplete, "investigation complete")

	result := &model.ResolutionResult{
		People:   outcome.People,
		Provider: p.Name(),
		Summary:  outcome.Summary,
	}
	result.SortPeople()
	return result, nil
}
