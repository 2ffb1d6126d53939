// Package anthropic wraps the official anthropic-sdk-go behind the small
// surface resolution needs: single messages and a bounded tool-call loop.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// MaxToolIterations caps the tool-call loop. Exceeding it is a hard
// failure for that call: no partial results are returned.
const MaxToolIterations = 5

// ErrToolLoopExhausted is returned when a tool loop hits MaxToolIterations
// without the model producing a final answer.
var ErrToolLoopExhausted = errors.New("anthropic: tool loop exhausted")

// Client defines the Anthropic API operations used by resolution.
type Client interface {
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
	RunToolLoop(ctx context.Context, req ToolLoopRequest) (*ToolLoopResult, error)
}

// MessageRequest is our own request type for CreateMessage.
type MessageRequest struct {
	Model       string
	MaxTokens   int64
	System      string
	Messages    []Message
	Temperature *float64
}

// Message represents a single conversational message.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// MessageResponse is our own response type from CreateMessage.
type MessageResponse struct {
	ID         string
	Model      string
	Text       string
	StopReason string
	Usage      TokenUsage
}

// ToolDef declares one tool available to the model.
type ToolDef struct {
	Name        string
	Description string
	// Properties is the JSON-schema properties object for the tool input.
	Properties map[string]any
	Required   []string
}

// ToolFunc executes one tool call and returns its result text. A returned
// error is reported to the model as a tool error, not raised.
type ToolFunc func(ctx context.Context, input json.RawMessage) (string, error)

// ToolLoopRequest drives RunToolLoop.
type ToolLoopRequest struct {
	Model     string
	MaxTokens int64
	System    string
	Prompt    string
	Tools     []ToolDef
	// Execute maps tool name to implementation.
	Execute map[string]ToolFunc
	// MaxIterations overrides MaxToolIterations when positive.
	MaxIterations int
}

// ToolLoopResult is the final outcome of a completed tool loop.
type ToolLoopResult struct {
	Text       string
	Iterations int
	ToolCalls  int
	Usage      TokenUsage
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// Add accumulates usage across calls.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// LogCost logs token usage with structured zap fields.
func (u TokenUsage) LogCost(model, phase string) {
	zap.L().Info("cost attribution",
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
	)
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client sdk.Client
	model  string
}

// Option configures the sdkClient.
type Option func(*sdkClient)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *sdkClient) {
		c.model = model
	}
}

// WithRequestOptions passes options through to the underlying SDK client.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(c *sdkClient) {
		c.client = sdk.NewClient(opts...)
	}
}

// NewClient creates a new Anthropic client backed by the SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  string(sdk.ModelClaudeSonnet4_5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *sdkClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	params := sdk.MessageNewParams{
		Model:     c.resolveModel(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  toSDKMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}
	return fromSDKMessage(msg), nil
}

// RunToolLoop runs the bounded iterative tool-call loop: each model turn
// may request tool calls, which are executed and fed back before the model
// is re-invoked. The loop ends when a turn requests no tools; hitting the
// iteration cap fails the call with ErrToolLoopExhausted.
func (c *sdkClient) RunToolLoop(ctx context.Context, req ToolLoopRequest) (*ToolLoopResult, error) {
	maxIter := req.MaxIterations
	if maxIter <= 0 {
		maxIter = MaxToolIterations
	}

	params := sdk.MessageNewParams{
		Model:     c.resolveModel(req.Model),
		MaxTokens: req.MaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
		Tools: toSDKTools(req.Tools),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	result := &ToolLoopResult{}

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msg, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return nil, eris.Wrapf(err, "anthropic: tool loop iteration %d", iter+1)
		}
		result.Iterations = iter + 1
		result.Usage.Add(TokenUsage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		})

		params.Messages = append(params.Messages, msg.ToParam())

		var toolResults []sdk.ContentBlockParamUnion
		for _, block := range msg.Content {
			switch block.Type {
			case "text":
				result.Text = block.Text
			case "tool_use":
				result.ToolCalls++
				out, isErr := c.executeTool(ctx, req, block.Name, []byte(block.JSON.Input.Raw()))
				toolResults = append(toolResults, sdk.NewToolResultBlock(block.ID, out, isErr))
			}
		}

		if len(toolResults) == 0 {
			return result, nil
		}
		params.Messages = append(params.Messages, sdk.NewUserMessage(toolResults...))
	}

	return nil, eris.Wrapf(ErrToolLoopExhausted, "after %d iterations", maxIter)
}

func (c *sdkClient) executeTool(ctx context.Context, req ToolLoopRequest, name string, input json.RawMessage) (string, bool) {
	fn, ok := req.Execute[name]
	if !ok {
		return "unknown tool: " + name, true
	}
	out, err := fn(ctx, input)
	if err != nil {
		zap.L().Warn("anthropic: tool execution failed",
			zap.String("tool", name),
			zap.Error(err),
		)
		return err.Error(), true
	}
	return out, false
}

func (c *sdkClient) resolveModel(model string) sdk.Model {
	if model == "" {
		return sdk.Model(c.model)
	}
	return sdk.Model(model)
}

// --- SDK type conversion helpers ---

func toSDKMessages(msgs []Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, len(msgs))
	for i, m := range msgs {
		block := sdk.NewTextBlock(m.Content)
		switch m.Role {
		case "assistant":
			out[i] = sdk.NewAssistantMessage(block)
		default:
			out[i] = sdk.NewUserMessage(block)
		}
	}
	return out
}

func toSDKTools(tools []ToolDef) []sdk.ToolUnionParam {
	out := make([]sdk.ToolUnionParam, len(tools))
	for i, t := range tools {
		out[i] = sdk.ToolUnionParam{
			OfTool: &sdk.ToolParam{
				Name:        t.Name,
				Description: sdk.String(t.Description),
				InputSchema: sdk.ToolInputSchemaParam{
					Properties: t.Properties,
					Required:   t.Required,
				},
			},
		}
	}
	return out
}

func fromSDKMessage(msg *sdk.Message) *MessageResponse {
	resp := &MessageResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		StopReason: string(msg.StopReason),
		Usage: TokenUsage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
	for _, b := range msg.Content {
		if b.Type == "text" {
			resp.Text += b.Text
		}
	}
	return resp
}
