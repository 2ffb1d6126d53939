package agent

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/communisaas/resolver-cli/internal/confidence"
	"github.com/communisaas/resolver-cli/internal/model"
	"github.com/communisaas/resolver-cli/internal/runner"
	"github.com/communisaas/resolver-cli/pkg/anthropic"
	"github.com/communisaas/resolver-cli/pkg/firecrawl"
)

const documentPrompt = `Identify every person with decision-making authority
named in the document below. Answer with a JSON array only, one object per
person: [{"name":"","title":"","organization":"","confidence":0.0}]. Answer
with [] when the document names nobody.`

// DocumentAnalysis is the outcome for one analyzed document.
type DocumentAnalysis struct {
	URL    string
	People []model.ResolvedPerson
}

// AnalyzeDocuments fetches and analyzes documents concurrently, one
// result-or-error per URL in input order. A failing document never aborts
// its siblings.
func (a *Agent) AnalyzeDocuments(ctx context.Context, urls []string, concurrency int, itemTimeout time.Duration) []runner.Result[DocumentAnalysis] {
	opts := runner.Options{
		Concurrency: concurrency,
		ItemTimeout: itemTimeout,
	}
	return runner.Run(ctx, urls, opts, a.analyzeOne)
}

func (a *Agent) analyzeOne(ctx context.Context, url string) (DocumentAnalysis, error) {
	analysis := DocumentAnalysis{URL: url}

	page, err := a.crawl.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     url,
		Formats: []string{"markdown"},
	})
	if err != nil {
		return analysis, eris.Wrapf(err, "agent: fetch document %s", url)
	}
	if !page.Success {
		return analysis, eris.Errorf("agent: fetch failed for %s", url)
	}

	resp, err := a.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    documentPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: page.Data.Markdown},
		},
	})
	if err != nil {
		return analysis, eris.Wrapf(err, "agent: analyze document %s", url)
	}

	people, err := model.ParsePeople(resp.Text)
	if err != nil {
		return analysis, eris.Wrapf(err, "agent: document %s", url)
	}
	for i := range people {
		people[i].Confidence = confidence.Discovered(people[i].Confidence)
		if people[i].Source == "" {
			people[i].Source = url
		}
		people[i].AppendProvenance("extracted from document")
	}
	analysis.People = people
	return analysis, nil
}
