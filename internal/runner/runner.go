package runner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/petasbytes/overview-agent/internal/apperr"
	"github.com/petasbytes/overview-agent/internal/provider"
	"github.com/petasbytes/overview-agent/internal/shaper"
	"github.com/petasbytes/overview-agent/internal/telemetry"
	"github.com/petasbytes/overview-agent/internal/windowing"
	"github.com/petasbytes/overview-agent/memory"
	"github.com/petasbytes/overview-agent/tools"
)

// DefaultMaxToolRounds is the number of model calls allowed per turn.
const DefaultMaxToolRounds = 4

type Config struct {
	// MaxToolRounds caps model calls per turn. A reply that still requests
	// tools on the last call aborts the turn with ToolLoopExceeded.
	MaxToolRounds int
	// TokenBudget bounds the estimated size of the context sent to the
	// model. Zero or less sends the whole history.
	TokenBudget int
	// HistoryTurnLimit keeps only the newest turns in the context. Zero keeps all.
	HistoryTurnLimit int
	// CreateOnFirstUse creates unknown thread ids instead of rejecting them.
	CreateOnFirstUse       bool
	DeterministicSummaries bool
	System                 string
	MaxTokens              int64
}

// Request is one user message addressed to a thread.
type Request struct {
	Message    string
	UserID     string
	AccountID  string
	FacilityID string
	ThreadID   string
}

func (r Request) normalized() Request {
	r.Message = strings.TrimSpace(r.Message)
	r.UserID = strings.TrimSpace(r.UserID)
	r.AccountID = strings.TrimSpace(r.AccountID)
	r.FacilityID = strings.TrimSpace(r.FacilityID)
	r.ThreadID = strings.TrimSpace(r.ThreadID)
	return r
}

func (r Request) validate() error {
	switch {
	case r.Message == "":
		return apperr.InvalidInput("message is required")
	case r.UserID == "":
		return apperr.InvalidInput("user_id is required")
	case r.ThreadID == "":
		return apperr.InvalidInput("thread_id is required")
	}
	return nil
}

type Runner struct {
	store   memory.Store
	model   provider.Model
	tools   []tools.ToolDefinition
	cfg     Config
	rec     *telemetry.Recorder
	logger  *zap.Logger
	counter windowing.TokenCounter
	now     func() time.Time
	turnID  func() string
}

type Option func(*Runner)

func WithTelemetry(rec *telemetry.Recorder) Option {
	return func(r *Runner) { r.rec = rec }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l.Named("runner")
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithTokenCounter replaces the heuristic counter used for windowing.
func WithTokenCounter(c windowing.TokenCounter) Option {
	return func(r *Runner) {
		if c != nil {
			r.counter = c
		}
	}
}

func New(store memory.Store, model provider.Model, defs []tools.ToolDefinition, cfg Config, opts ...Option) *Runner {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	if cfg.System == "" {
		cfg.System = DefaultSystemPrompt
	}
	r := &Runner{
		store:   store,
		model:   model,
		tools:   defs,
		cfg:     cfg,
		logger:  zap.NewNop(),
		counter: windowing.HeuristicCounter{},
		now:     time.Now,
		turnID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ModelName reports the configured model, for health output.
func (r *Runner) ModelName() string { return r.model.Name() }

// Chat runs one turn.
//
// A turn that cannot reach a final answer because the model is unavailable
// or the round cap is hit returns a degraded envelope together with the
// error; nothing is appended to the thread. Other errors return a nil
// envelope.
func (r *Runner) Chat(ctx context.Context, req Request) (*shaper.Envelope, error) {
	req = req.normalized()
	log := r.logger.With(zap.String("thread_id", req.ThreadID), zap.String("user_id", req.UserID))
	if err := req.validate(); err != nil {
		log.Warn("rejected request", zap.Error(err))
		return nil, err
	}

	if err := r.ensureThread(ctx, req); err != nil {
		log.Warn("thread unavailable", zap.Error(err))
		return nil, err
	}

	unlock, err := r.store.Lock(ctx, req.ThreadID)
	if err != nil {
		log.Warn("acquire thread lock", zap.Error(err))
		return nil, err
	}
	defer unlock()

	history, err := r.store.GetHistory(ctx, req.ThreadID)
	if err != nil {
		log.Warn("read history", zap.Error(err))
		return nil, err
	}

	turnID := r.turnID()
	ctx = telemetry.WithTurn(ctx, telemetry.Turn{ThreadID: req.ThreadID, TurnID: turnID})
	log = log.With(zap.String("turn_id", turnID))

	facts := CarriedFacts(history).merge(Facts{UserID: req.UserID, AccountID: req.AccountID, FacilityID: req.FacilityID})
	msgs := BuildContext(history, req.Message, facts, r.cfg.HistoryTurnLimit)
	if r.cfg.TokenBudget > 0 {
		window, stats, err := windowing.Prepare(msgs, r.cfg.TokenBudget, r.counter)
		r.rec.Emit(ctx, "window_prepared", map[string]any{
			"budget":             stats.Budget,
			"total_estimated":    stats.Total,
			"included_groups":    stats.IncludedGroups,
			"skipped_groups":     stats.SkippedGroups,
			"over_budget_newest": stats.OverBudgetNewest,
		})
		if err != nil {
			log.Warn("context window", zap.Error(err))
			return nil, err
		}
		msgs = trimLeadingAssistant(window)
	}

	r.rec.Emit(ctx, "turn_started", map[string]any{
		"model":         r.model.Name(),
		"history_turns": len(history),
		"message":       telemetry.CountFeatures(req.Message),
	})
	start := time.Now()

	text, invs, err := r.resolve(ctx, log, msgs)
	if err != nil {
		r.rec.Emit(ctx, "turn_aborted", map[string]any{
			"error":       string(apperr.KindOf(err)),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if errors.Is(err, apperr.ErrModelUnavailable) || errors.Is(err, apperr.ErrToolLoopExceeded) {
			log.Error("turn aborted", zap.Error(err))
			env := shaper.Degraded(req.ThreadID, err)
			return &env, err
		}
		log.Warn("turn failed", zap.Error(err))
		return nil, err
	}

	env := shaper.Shape(shaper.Input{
		ThreadID:    req.ThreadID,
		Message:     req.Message,
		AccountHint: req.AccountID,
		FinalText:   text,
		Invocations: invs,
	}, shaper.Options{DeterministicSummaries: r.cfg.DeterministicSummaries})

	if err := r.record(ctx, req, env, invs); err != nil {
		log.Error("append turns", zap.Error(err))
		return nil, err
	}

	r.rec.Emit(ctx, "turn_completed", map[string]any{
		"card_key":    string(env.CardKey),
		"tool_calls":  len(invs),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	log.Info("turn completed", zap.String("card_key", string(env.CardKey)), zap.Int("tool_calls", len(invs)))
	return &env, nil
}

func (r *Runner) ensureThread(ctx context.Context, req Request) error {
	if r.cfg.CreateOnFirstUse {
		_, created, err := r.store.EnsureThread(ctx, req.ThreadID, req.UserID)
		if created {
			r.logger.Debug("thread created on first use", zap.String("thread_id", req.ThreadID))
		}
		return err
	}
	_, err := r.store.GetThread(ctx, req.ThreadID)
	return err
}

// record appends the user turn then the agent turn.
func (r *Runner) record(ctx context.Context, req Request, env shaper.Envelope, invs []shaper.Invocation) error {
	now := r.now()
	if _, err := r.store.AppendTurn(ctx, req.ThreadID, memory.Turn{
		Role:      memory.RoleUser,
		Text:      req.Message,
		Timestamp: now,
	}); err != nil {
		return err
	}

	var calls []memory.ToolCall
	for _, inv := range invs {
		calls = append(calls, memory.ToolCall{Name: inv.Name, Args: inv.Args, Failed: inv.Err != nil})
	}
	_, err := r.store.AppendTurn(ctx, req.ThreadID, memory.Turn{
		Role:      memory.RoleAgent,
		Text:      env.FinalText,
		Timestamp: r.now(),
		ToolCalls: calls,
	})
	return err
}
