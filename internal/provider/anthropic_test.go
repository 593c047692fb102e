package provider_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/petasbytes/overview-agent/internal/apperr"
	"github.com/petasbytes/overview-agent/internal/provider"
	"github.com/petasbytes/overview-agent/tools"
)

type fakeTransport struct {
	respStatus int
	respBody   []byte
	err        error
	body       []byte
	calls      int
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	b, _ := io.ReadAll(req.Body)
	_ = req.Body.Close()
	f.body = b
	if f.err != nil {
		return nil, f.err
	}
	resp := &http.Response{
		StatusCode: f.respStatus,
		Body:       io.NopCloser(bytes.NewReader(f.respBody)),
		Header:     make(http.Header),
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

func newModel(rt http.RoundTripper) *provider.Anthropic {
	cli := provider.NewAnthropicClient(provider.ClientConfig{APIKey: "test-key"},
		option.WithHTTPClient(&http.Client{Transport: rt}),
		option.WithMaxRetries(0),
	)
	return provider.NewAnthropic(cli, "", 0)
}

type sentBody struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    []struct {
		Text string `json:"text"`
	} `json:"system"`
	Tools []struct {
		Name        string         `json:"name"`
		InputSchema map[string]any `json:"input_schema"`
	} `json:"tools"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type      string          `json:"type"`
			Text      string          `json:"text,omitempty"`
			ID        string          `json:"id,omitempty"`
			Name      string          `json:"name,omitempty"`
			Input     json.RawMessage `json:"input,omitempty"`
			ToolUseID string          `json:"tool_use_id,omitempty"`
			IsError   bool            `json:"is_error,omitempty"`
		} `json:"content"`
	} `json:"messages"`
}

func TestComplete_EncodesConversation(t *testing.T) {
	fake := &fakeTransport{respStatus: 200, respBody: []byte(`{"content":[{"type":"text","text":"done"}],"role":"assistant","stop_reason":"end_turn"}`)}
	m := newModel(fake)

	req := provider.Request{
		System: "be brief",
		Tools:  []tools.ToolDefinition{{Name: "fetch_notes", Description: "d", InputSchema: tools.GenerateSchema[tools.FetchNotesInput]()}},
		Messages: []provider.Message{
			provider.UserText("show notes"),
			{Role: provider.RoleAssistant, ToolCalls: []provider.ToolCall{{ID: "tu1", Name: "fetch_notes", Input: json.RawMessage(`{"user_id":"u1"}`)}}},
			{Role: provider.RoleUser, ToolResults: []provider.ToolResult{{CallID: "tu1", Content: "[]"}}},
		},
	}

	reply, err := m.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if reply.Text != "done" || len(reply.ToolCalls) != 0 || reply.StopReason != "end_turn" {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	var sb sentBody
	if err := json.Unmarshal(fake.body, &sb); err != nil {
		t.Fatalf("unmarshal body: %v\nbody=%s", err, string(fake.body))
	}
	if sb.Model != string(provider.DefaultModel) || sb.MaxTokens != 1024 {
		t.Fatalf("model/max_tokens = %s/%d", sb.Model, sb.MaxTokens)
	}
	if len(sb.System) != 1 || sb.System[0].Text != "be brief" {
		t.Fatalf("system not sent: %+v", sb.System)
	}
	if len(sb.Tools) != 1 || sb.Tools[0].Name != "fetch_notes" {
		t.Fatalf("tools not sent: %+v", sb.Tools)
	}
	if len(sb.Messages) != 3 {
		t.Fatalf("want 3 messages, got %d", len(sb.Messages))
	}
	use := sb.Messages[1]
	if use.Role != "assistant" || use.Content[0].Type != "tool_use" || use.Content[0].ID != "tu1" {
		t.Fatalf("unexpected tool_use message: %+v", use)
	}
	res := sb.Messages[2]
	if res.Role != "user" || res.Content[0].Type != "tool_result" || res.Content[0].ToolUseID != "tu1" {
		t.Fatalf("unexpected tool_result message: %+v", res)
	}
}

func TestComplete_DecodesToolUse(t *testing.T) {
	body := `{"role":"assistant","stop_reason":"tool_use","content":[
		{"type":"text","text":"looking"},
		{"type":"tool_use","id":"tu1","name":"fetch_account_details","input":{"account_id":"A-1"}}
	]}`
	m := newModel(&fakeTransport{respStatus: 200, respBody: []byte(body)})

	reply, err := m.Complete(context.Background(), provider.Request{Messages: []provider.Message{provider.UserText("hi")}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(reply.ToolCalls) != 1 {
		t.Fatalf("want 1 tool call, got %d", len(reply.ToolCalls))
	}
	call := reply.ToolCalls[0]
	if call.ID != "tu1" || call.Name != "fetch_account_details" {
		t.Fatalf("unexpected call: %+v", call)
	}
	var in map[string]string
	if err := json.Unmarshal(call.Input, &in); err != nil || in["account_id"] != "A-1" {
		t.Fatalf("raw input not passed through: %s (%v)", call.Input, err)
	}
	if reply.Text != "looking" || reply.StopReason != string(anthropic.StopReasonToolUse) {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestComplete_TransportErrorIsModelUnavailable(t *testing.T) {
	m := newModel(&fakeTransport{err: errors.New("connection refused")})

	_, err := m.Complete(context.Background(), provider.Request{Messages: []provider.Message{provider.UserText("hi")}})
	if !errors.Is(err, apperr.ErrModelUnavailable) {
		t.Fatalf("want ModelUnavailable, got %v", err)
	}
}

func TestComplete_ServerErrorIsModelUnavailable(t *testing.T) {
	fake := &fakeTransport{respStatus: 503, respBody: []byte(`{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`)}
	m := newModel(fake)

	_, err := m.Complete(context.Background(), provider.Request{Messages: []provider.Message{provider.UserText("hi")}})
	if !errors.Is(err, apperr.ErrModelUnavailable) {
		t.Fatalf("want ModelUnavailable, got %v", err)
	}
	if fake.calls != 1 {
		t.Fatalf("retries disabled: want 1 call, got %d", fake.calls)
	}
}

func TestNewAnthropic_Defaults(t *testing.T) {
	m := provider.NewAnthropic(nil, "", 0)
	if m.Name() != string(provider.DefaultModel) {
		t.Fatalf("name = %s", m.Name())
	}
	if got := provider.NewAnthropic(nil, "claude-x", 10).Name(); got != "claude-x" {
		t.Fatalf("name = %s", got)
	}
}
