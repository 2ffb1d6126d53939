// Package agent resolves decision-makers through a bounded tool-call loop:
// the model investigates with web search and page fetch tools until it
// produces a final candidate list or hits the iteration cap.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/communisaas/resolver-cli/internal/confidence"
	"github.com/communisaas/resolver-cli/internal/model"
	"github.com/communisaas/resolver-cli/internal/provider"
	"github.com/communisaas/resolver-cli/pkg/anthropic"
	"github.com/communisaas/resolver-cli/pkg/firecrawl"
	"github.com/communisaas/resolver-cli/pkg/perplexity"
)

const systemPrompt = `You are a research agent finding the people with real
decision-making authority over an issue. Investigate with the tools, then
answer with a JSON array only, one object per person:
[{"name":"","title":"","organization":"","email":"","reasoning":"","source":"","confidence":0.0,"power":"primary|secondary|support"}]`

// Agent drives the investigation loop over the Anthropic API, with
// Perplexity search and Firecrawl page fetches as its tools.
type Agent struct {
	llm    anthropic.Client
	search perplexity.Client
	crawl  firecrawl.Client

	model         string
	maxTokens     int64
	maxIterations int
}

// Option configures an Agent.
type Option func(*Agent)

// WithModel overrides the model passed to the Anthropic API.
func WithModel(m string) Option {
	return func(a *Agent) { a.model = m }
}

// WithMaxTokens overrides the per-turn token budget.
func WithMaxTokens(n int64) Option {
	return func(a *Agent) { a.maxTokens = n }
}

// WithMaxIterations overrides the tool-loop iteration cap.
func WithMaxIterations(n int) Option {
	return func(a *Agent) { a.maxIterations = n }
}

// New creates an agent. search and crawl may be nil; the matching tool is
// then withheld from the model.
func New(llm anthropic.Client, search perplexity.Client, crawl firecrawl.Client, opts ...Option) *Agent {
	a := &Agent{
		llm:           llm,
		search:        search,
		crawl:         crawl,
		maxTokens:     4096,
		maxIterations: anthropic.MaxToolIterations,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Outcome is the result of one investigation.
type Outcome struct {
	People     []model.ResolvedPerson
	Summary    string
	Iterations int
	ToolCalls  int
}

// Investigate runs the tool loop for one resolution request. Hitting the
// iteration cap returns ToolLoopExhaustedError with no partial results.
func (a *Agent) Investigate(ctx context.Context, req *model.ResolutionRequest) (*Outcome, error) {
	loopReq := anthropic.ToolLoopRequest{
		Model:         a.model,
		MaxTokens:     a.maxTokens,
		System:        systemPrompt,
		Prompt:        investigationPrompt(req),
		MaxIterations: a.maxIterations,
	}
	loopReq.Tools, loopReq.Execute = a.tools()

	result, err := a.llm.RunToolLoop(ctx, loopReq)
	if err != nil {
		if errors.Is(err, anthropic.ErrToolLoopExhausted) {
			return nil, &provider.ToolLoopExhaustedError{Iterations: a.maxIterations}
		}
		return nil, eris.Wrap(err, "agent: investigation")
	}

	people, parseErr := model.ParsePeople(result.Text)
	if parseErr != nil {
		zap.L().Warn("agent: unstructured final answer",
			zap.Error(parseErr),
		)
	}
	for i := range people {
		people[i].Confidence = confidence.Discovered(people[i].Confidence)
		people[i].AppendProvenance("resolved via tool-loop investigation")
	}

	result.Usage.LogCost(a.model, "agent-investigation")
	return &Outcome{
		People:     people,
		Summary:    result.Text,
		Iterations: result.Iterations,
		ToolCalls:  result.ToolCalls,
	}, nil
}

// tools declares the investigation tools backed by the configured clients.
func (a *Agent) tools() ([]anthropic.ToolDef, map[string]anthropic.ToolFunc) {
	var defs []anthropic.ToolDef
	execute := make(map[string]anthropic.ToolFunc)

	if a.search != nil {
		defs = append(defs, anthropic.ToolDef{
			Name:        "search_web",
			Description: "Search the web and return a grounded answer with source URLs.",
			Properties: map[string]any{
				"query": map[string]any{"type": "string"},
			},
			Required: []string{"query"},
		})
		execute["search_web"] = a.runSearch
	}

	if a.crawl != nil {
		defs = append(defs, anthropic.ToolDef{
			Name:        "fetch_page",
			Description: "Fetch one web page and return its content as markdown.",
			Properties: map[string]any{
				"url": map[string]any{"type": "string"},
			},
			Required: []string{"url"},
		})
		execute["fetch_page"] = a.runFetch
	}

	return defs, execute
}

func (a *Agent) runSearch(ctx context.Context, input json.RawMessage) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", eris.Wrap(err, "agent: search_web input")
	}

	resp, err := a.search.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: "user", Content: args.Query},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("agent: empty search response")
	}

	out := resp.Choices[0].Message.Content
	for _, sr := range resp.SearchResults {
		out += fmt.Sprintf("\nSource: %s (%s)", sr.URL, sr.Title)
	}
	return out, nil
}

func (a *Agent) runFetch(ctx context.Context, input json.RawMessage) (string, error) {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", eris.Wrap(err, "agent: fetch_page input")
	}

	resp, err := a.crawl.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     args.URL,
		Formats: []string{"markdown"},
	})
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", eris.Errorf("agent: fetch failed for %s", args.URL)
	}
	return resp.Data.Markdown, nil
}

// investigationPrompt renders the opening user turn.
func investigationPrompt(req *model.ResolutionRequest) string {
	p := fmt.Sprintf("Find the decision-makers for a %s target.", req.Class)
	if req.EntityName != "" {
		p += " Entity: " + req.EntityName + "."
	}
	if req.EntityURL != "" {
		p += " Website: " + req.EntityURL + "."
	}
	if req.Scope != "" {
		p += " Scope: " + req.Scope + "."
	}
	if req.Subject != "" {
		p += " Issue: " + req.Subject + "."
	}
	return p
}
