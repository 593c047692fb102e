package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/petasbytes/overview-agent/internal/apperr"
)

const DefaultModel = anthropic.ModelClaude3_7SonnetLatest
const APIVersion = "2023-06-01"

const defaultMaxTokens = 1024

// ClientConfig configures NewAnthropicClient. Empty fields fall back to the
// SDK defaults (ANTHROPIC_API_KEY from the env, the public base URL).
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewAnthropicClient returns a client configured from cfg. Extra options are
// applied last.
func NewAnthropicClient(cfg ClientConfig, extra ...option.RequestOption) *anthropic.Client {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	opts = append(opts, extra...)
	c := anthropic.NewClient(opts...)
	return &c
}

// Anthropic implements Model over the Messages API.
type Anthropic struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

var _ Model = (*Anthropic)(nil)

func NewAnthropic(client *anthropic.Client, model string, maxTokens int64) *Anthropic {
	m := anthropic.Model(model)
	if model == "" {
		m = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Anthropic{client: client, model: m, maxTokens: maxTokens}
}

func (a *Anthropic) Name() string { return string(a.model) }

func (a *Anthropic) Complete(ctx context.Context, req Request) (Reply, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.maxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: maxTokens,
		Messages:  toParams(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = make([]anthropic.ToolUnionParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: t.InputSchema,
			}})
		}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return Reply{}, apperr.ModelUnavailable(err)
	}

	var reply Reply
	var text []string
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			text = append(text, v.Text)
		case anthropic.ToolUseBlock:
			// Pass raw JSON input through to the tool implementation
			reply.ToolCalls = append(reply.ToolCalls, ToolCall{
				ID:    v.ID,
				Name:  v.Name,
				Input: json.RawMessage(v.JSON.Input.Raw()),
			})
		}
	}
	reply.Text = strings.Join(text, "\n")
	reply.StopReason = string(msg.StopReason)
	return reply, nil
}

// toParams converts neutral messages into Messages API params. Tool results
// lead their user message so each tool_use stays paired with its tool_result.
func toParams(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		var blocks []anthropic.ContentBlockParamUnion
		for _, r := range m.ToolResults {
			blocks = append(blocks, anthropic.NewToolResultBlock(r.CallID, r.Content, r.IsError))
		}
		if m.Text != "" {
			blocks = append(blocks, anthropic.NewTextBlock(m.Text))
		}
		for _, c := range m.ToolCalls {
			input := c.Input
			if len(input) == 0 {
				input = json.RawMessage("{}")
			}
			blocks = append(blocks, anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{
				ID:    c.ID,
				Name:  c.Name,
				Input: input,
			}})
		}
		if len(blocks) == 0 {
			continue
		}
		if m.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}
