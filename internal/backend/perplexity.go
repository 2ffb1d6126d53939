// Package backend holds the standalone provider implementations registered
// below the composite: a Perplexity search provider and an Anthropic
// tool-loop agent provider.
package backend

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/communisaas/resolver-cli/internal/confidence"
	"github.com/communisaas/resolver-cli/internal/model"
	"github.com/communisaas/resolver-cli/internal/stream"
	"github.com/communisaas/resolver-cli/pkg/perplexity"
)

// PerplexityProvider resolves through a single search-grounded completion.
// It accepts every class, which makes it the natural fallback tier.
type PerplexityProvider struct {
	client perplexity.Client
}

// NewPerplexityProvider wraps a Perplexity client as a provider.
func NewPerplexityProvider(client perplexity.Client) *PerplexityProvider {
	return &PerplexityProvider{client: client}
}

func (p *PerplexityProvider) Name() string { return "perplexity" }

func (p *PerplexityProvider) Classes() []model.TargetClass { return nil }

// CanResolve accepts everything: a search query can be formed from any
// request.
func (p *PerplexityProvider) CanResolve(*model.ResolutionRequest) bool { return true }

func (p *PerplexityProvider) Resolve(req *model.ResolutionRequest) (*model.ResolutionResult, error) {
	emitter := stream.NewSimple(req.Sink)
	emitter.Emit(model.PhaseUnderstanding, "searching for decision-makers")

	resp, err := p.client.ChatCompletion(req.Context(), perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: "system", Content: "Answer with a JSON array only: " +
				`[{"name":"","title":"","organization":"","email":"","reasoning":"","source":"","confidence":0.0,"power":"primary|secondary|support"}]`},
			{Role: "user", Content: searchQuery(req)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "backend: perplexity completion")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("backend: empty perplexity response")
	}

	text := resp.Choices[0].Message.Content
	citations := make([]string, 0, len(resp.SearchResults))
	for _, sr := range resp.SearchResults {
		citations = append(citations, sr.URL)
	}

	people, parseErr := model.ParsePeople(text)
	if parseErr != nil {
		zap.L().Warn("backend: unstructured perplexity response",
			zap.String("class", string(req.Class)),
			zap.Error(parseErr),
		)
	}
	for i := range people {
		people[i].Confidence = confidence.Discovered(people[i].Confidence)
		people[i].AppendProvenance("resolved via search completion")
		if people[i].Source == "" && i < len(citations) {
			people[i].Source = citations[i]
		}
		emitter.Emit(model.PhaseLookup, people[i].Name+", "+people[i].Title, people[i].Source)
	}
	emitter.Emit(model.PhaseComplete, "search resolution complete", citations...)

	result := &model.ResolutionResult{
		People:   people,
		Provider: p.Name(),
		Summary:  text,
	}
	result.SortPeople()
	return result, nil
}

// searchQuery renders the user turn for the search completion.
func searchQuery(req *model.ResolutionRequest) string {
	q := fmt.Sprintf("Who are the decision-makers for a %s target", req.Class)
	if req.EntityName != "" {
		q += " at " + req.EntityName
	}
	if req.Scope != "" {
		q += " in " + req.Scope
	}
	q += "?"
	if req.Subject != "" {
		q += " The issue: " + req.Subject + "."
	}
	if len(req.Topics) > 0 {
		q += " Topics: " + strings.Join(req.Topics, ", ") + "."
	}
	return q
}
