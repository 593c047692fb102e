// Package provider is the language-model capability used by the agent core:
// vendor-neutral request and reply types plus the Anthropic implementation.
package provider

import (
	"context"
	"encoding/json"

	"github.com/petasbytes/overview-agent/tools"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResult is the observation returned for one ToolCall.
type ToolResult struct {
	CallID  string
	Content string
	IsError bool
}

// Message is one entry of the model context. An assistant message may carry
// ToolCalls; the user message that follows it carries their ToolResults.
type Message struct {
	Role        Role
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

type Request struct {
	System    string
	Messages  []Message
	Tools     []tools.ToolDefinition
	MaxTokens int64
}

// Reply is either a final answer (no ToolCalls) or a request to run tools.
type Reply struct {
	Text       string
	ToolCalls  []ToolCall
	StopReason string
}

// Model completes one request. Failures to reach the model are reported as
// apperr.ErrModelUnavailable.
type Model interface {
	Complete(ctx context.Context, req Request) (Reply, error)
	Name() string
}

func UserText(text string) Message { return Message{Role: RoleUser, Text: text} }

func AssistantText(text string) Message { return Message{Role: RoleAssistant, Text: text} }
