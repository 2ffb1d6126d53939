// Package gemini wraps the Google GenAI SDK for search-grounded research
// and the lightweight batch verification used by the resolution core.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// ResearchResult is the outcome of one grounded generation.
type ResearchResult struct {
	Text      string
	Citations []string
}

// Candidate is one (id, name, title, organization) tuple submitted for
// verification.
type Candidate struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Title        string `json:"title"`
	Organization string `json:"organization"`
}

// Verification is the per-candidate verdict. Name is echoed back so callers
// can correlate verdicts whose id the model dropped.
type Verification struct {
	ID         int     `json:"id"`
	Name       string  `json:"name,omitempty"`
	Confirmed  bool    `json:"confirmed"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
}

// Client defines the Gemini operations used by resolution.
type Client interface {
	// Research runs a search-grounded generation and returns the text with
	// its grounding citations.
	Research(ctx context.Context, prompt string) (*ResearchResult, error)

	// VerifyBatch checks whether each candidate currently holds the stated
	// role. The timeout bounds the whole batch independently of the
	// caller's deadline.
	VerifyBatch(ctx context.Context, candidates []Candidate, timeout time.Duration) ([]Verification, error)
}

// Option configures the sdkClient.
type Option func(*sdkClient)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *sdkClient) {
		c.model = model
	}
}

type sdkClient struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client backed by the GenAI SDK.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}

	c := &sdkClient{client: client, model: defaultModel}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *sdkClient) Research(ctx context.Context, prompt string) (*ResearchResult, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
		},
	)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: generate content")
	}

	result := &ResearchResult{Text: resp.Text()}
	for _, cand := range resp.Candidates {
		if cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk.Web != nil && chunk.Web.URI != "" {
				result.Citations = append(result.Citations, chunk.Web.URI)
			}
		}
	}
	return result, nil
}

func (c *sdkClient) VerifyBatch(ctx context.Context, candidates []Candidate, timeout time.Duration) ([]Verification, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	verifyCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		verifyCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := c.client.Models.GenerateContent(verifyCtx, c.model,
		genai.Text(VerifyPrompt(candidates)),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
		},
	)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: verify batch")
	}

	return ParseVerifications(resp.Text())
}

// VerifyPrompt renders the batch verification prompt. Each candidate is
// listed with its id so the model's verdicts can be correlated back.
func VerifyPrompt(candidates []Candidate) string {
	var b strings.Builder
	b.WriteString("Verify whether each person currently holds the stated role. ")
	b.WriteString("Respond with a JSON array only, one object per candidate: ")
	b.WriteString(`[{"id":<id>,"name":"<name>","confirmed":<bool>,"confidence":<0..1>,"source":"<url>"}]` + "\n\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "id=%d: %s, %s, %s\n", c.ID, c.Name, c.Title, c.Organization)
	}
	return b.String()
}

// ParseVerifications extracts the JSON verdict array from model output,
// tolerating markdown code fences and surrounding prose.
func ParseVerifications(text string) ([]Verification, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, eris.Errorf("gemini: no JSON array in verification response: %.120s", text)
	}

	var out []Verification
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, eris.Wrap(err, "gemini: parse verifications")
	}
	return out, nil
}
