package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communisaas/resolver-cli/internal/agent"
	"github.com/communisaas/resolver-cli/internal/model"
	"github.com/communisaas/resolver-cli/pkg/anthropic"
	"github.com/communisaas/resolver-cli/pkg/perplexity"
)

type fakePerplexity struct {
	fn func(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error)
}

func (f *fakePerplexity) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	return f.fn(ctx, req)
}

type fakeLLM struct {
	loopFn func(ctx context.Context, req anthropic.ToolLoopRequest) (*anthropic.ToolLoopResult, error)
}

func (f *fakeLLM) CreateMessage(context.Context, anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return nil, errors.New("message not configured")
}

func (f *fakeLLM) RunToolLoop(ctx context.Context, req anthropic.ToolLoopRequest) (*anthropic.ToolLoopResult, error) {
	return f.loopFn(ctx, req)
}

func TestPerplexityProvider_Resolve(t *testing.T) {
	client := &fakePerplexity{
		fn: func(_ context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
			require.Len(t, req.Messages, 2)
			assert.Contains(t, req.Messages[1].Content, "City of Seattle")
			return &perplexity.ChatCompletionResponse{
				Choices: []perplexity.Choice{
					{Message: perplexity.Message{Content: `[{"name":"Pat Ruiz","title":"Transportation Director","organization":"City of Seattle","confidence":0.6}]`}},
				},
				SearchResults: []perplexity.SearchResult{
					{Title: "SDOT Leadership", URL: "https://seattle.example/sdot"},
				},
			}, nil
		},
	}

	p := NewPerplexityProvider(client)
	assert.True(t, p.CanResolve(&model.ResolutionRequest{Class: "anything"}))

	result, err := p.Resolve(&model.ResolutionRequest{
		Class:      model.ClassMunicipal,
		EntityName: "City of Seattle",
		Subject:    "bike lane expansion",
	})
	require.NoError(t, err)

	assert.Equal(t, "perplexity", result.Provider)
	require.Len(t, result.People, 1)
	assert.Equal(t, "Pat Ruiz", result.People[0].Name)
	assert.InDelta(t, 0.6, result.People[0].Confidence, 1e-9)
	assert.Equal(t, "https://seattle.example/sdot", result.People[0].Source)
}

func TestPerplexityProvider_BackendErrorPropagates(t *testing.T) {
	client := &fakePerplexity{
		fn: func(context.Context, perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
			return nil, errors.New("rate limited")
		},
	}

	_, err := NewPerplexityProvider(client).Resolve(&model.ResolutionRequest{Class: model.ClassMunicipal})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestAgentProvider_Resolve(t *testing.T) {
	llm := &fakeLLM{
		loopFn: func(context.Context, anthropic.ToolLoopRequest) (*anthropic.ToolLoopResult, error) {
			return &anthropic.ToolLoopResult{
				Text:       `[{"name":"Jane Doe","title":"CEO","organization":"Acme Corp","confidence":0.5}]`,
				Iterations: 2,
			}, nil
		},
	}

	var thoughts []model.Thought
	p := NewAgentProvider(agent.New(llm, nil, nil))
	result, err := p.Resolve(&model.ResolutionRequest{
		Class:      model.ClassCorporate,
		EntityName: "Acme Corp",
		Sink:       func(th model.Thought) { thoughts = append(thoughts, th) },
	})
	require.NoError(t, err)

	assert.Equal(t, "agent", result.Provider)
	require.Len(t, result.People, 1)
	assert.Equal(t, "Jane Doe", result.People[0].Name)

	// Understanding, one lookup per person, completion.
	require.Len(t, thoughts, 3)
	assert.Equal(t, model.PhaseComplete, thoughts[2].Phase)
}
