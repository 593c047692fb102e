package runner

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/petasbytes/overview-agent/internal/apperr"
	"github.com/petasbytes/overview-agent/internal/provider"
	"github.com/petasbytes/overview-agent/internal/shaper"
	"github.com/petasbytes/overview-agent/tools"
)

// resolve runs the tool loop until the model answers without tool calls. It
// returns the final text and every tool invocation made, in order.
func (r *Runner) resolve(ctx context.Context, log *zap.Logger, msgs []provider.Message) (string, []shaper.Invocation, error) {
	var invs []shaper.Invocation
	for call := 1; call <= r.cfg.MaxToolRounds; call++ {
		start := time.Now()
		reply, err := r.model.Complete(ctx, provider.Request{
			System:    r.cfg.System,
			Messages:  msgs,
			Tools:     r.tools,
			MaxTokens: r.cfg.MaxTokens,
		})
		fields := map[string]any{
			"model":       r.model.Name(),
			"call":        call,
			"messages":    len(msgs),
			"duration_ms": time.Since(start).Milliseconds(),
			"error":       nil,
		}
		if err != nil {
			if !errors.Is(err, apperr.ErrModelUnavailable) {
				err = apperr.ModelUnavailable(err)
			}
			fields["error"] = string(apperr.KindModelUnavailable)
			r.rec.Emit(ctx, "model_call", fields)
			return "", invs, err
		}
		fields["stop_reason"] = reply.StopReason
		fields["tool_calls"] = len(reply.ToolCalls)
		r.rec.Emit(ctx, "model_call", fields)

		if len(reply.ToolCalls) == 0 {
			return reply.Text, invs, nil
		}
		if call == r.cfg.MaxToolRounds {
			log.Warn("tool loop exceeded",
				zap.Int("max_tool_rounds", r.cfg.MaxToolRounds),
				zap.Int("pending_tool_calls", len(reply.ToolCalls)))
			return "", invs, apperr.ToolLoopExceeded("model still requested tools after %d calls", call)
		}

		msgs = append(msgs, provider.Message{
			Role:      provider.RoleAssistant,
			Text:      reply.Text,
			ToolCalls: reply.ToolCalls,
		})
		results := make([]provider.ToolResult, 0, len(reply.ToolCalls))
		for _, tc := range reply.ToolCalls {
			inv, res := r.execTool(ctx, log, tc)
			invs = append(invs, inv)
			results = append(results, res)
		}
		msgs = append(msgs, provider.Message{Role: provider.RoleUser, ToolResults: results})
	}
	// Unreachable: the last iteration always returns.
	return "", invs, apperr.ToolLoopExceeded("no final answer after %d calls", r.cfg.MaxToolRounds)
}

// execTool runs one tool call. Failures, including unknown tool names, are
// returned as error observations for the model, never as Go errors.
func (r *Runner) execTool(ctx context.Context, log *zap.Logger, tc provider.ToolCall) (shaper.Invocation, provider.ToolResult) {
	args := tools.FlattenArgs(tc.Input)
	inv := shaper.Invocation{Name: tc.Name, Args: args}
	start := time.Now()

	var (
		res tools.Result
		err error
	)
	if def, ok := tools.Lookup(r.tools, tc.Name); ok {
		res, err = def.Function(ctx, tc.Input)
	} else {
		err = apperr.InvalidInput("unknown tool %q", tc.Name)
	}

	fields := map[string]any{
		"tool_name":   tc.Name,
		"duration_ms": time.Since(start).Milliseconds(),
		"input_size":  len(tc.Input),
		"output_size": 0,
		"error":       nil,
	}
	if err != nil {
		e := apperr.From(err)
		inv.Err = e
		fields["error"] = string(e.Kind)
		r.rec.Emit(ctx, "tool_exec", fields)
		log.Warn("tool failed",
			zap.String("tool", tc.Name),
			zap.Any("args", args),
			zap.String("kind", string(e.Kind)),
			zap.Error(err))
		return inv, provider.ToolResult{CallID: tc.ID, Content: e.ToolPayload(), IsError: true}
	}

	inv.Records = res.Records
	fields["output_size"] = len(res.Output)
	r.rec.Emit(ctx, "tool_exec", fields)
	log.Debug("tool executed", zap.String("tool", tc.Name), zap.Any("args", args))
	return inv, provider.ToolResult{CallID: tc.ID, Content: res.Output}
}
