package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/petasbytes/overview-agent/internal/config"
	"github.com/petasbytes/overview-agent/internal/datastore"
	"github.com/petasbytes/overview-agent/internal/provider"
	"github.com/petasbytes/overview-agent/internal/runner"
	"github.com/petasbytes/overview-agent/internal/telemetry"
	"github.com/petasbytes/overview-agent/memory"
	"github.com/petasbytes/overview-agent/tools"
)

// app is the wired object graph shared by serve and chat.
type app struct {
	data    *datastore.SQLiteStore
	threads *memory.MemoryStore
	runner  *runner.Runner
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	if cfg.Model.APIKey == "" {
		return nil, errors.New("missing ANTHROPIC_API_KEY; export it or set model.api_key")
	}

	data, err := datastore.NewSQLiteStore(cfg.Data.Path, datastore.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open datastore: %w", err)
	}
	if cfg.Data.Seed {
		if err := data.Seed(ctx); err != nil {
			_ = data.Close()
			return nil, fmt.Errorf("seed datastore: %w", err)
		}
	}

	threads := memory.NewMemoryStore(
		memory.WithIdleTTL(cfg.Threads.IdleTTL),
		memory.WithLogger(logger),
	)
	if cfg.Threads.IdleTTL > 0 {
		threads.StartSweeper(cfg.Threads.SweepInterval)
	}

	client := provider.NewAnthropicClient(provider.ClientConfig{
		APIKey:  cfg.Model.APIKey,
		BaseURL: cfg.Model.BaseURL,
		Timeout: cfg.Model.Timeout,
	})
	model := provider.NewAnthropic(client, cfg.Model.Name, cfg.Model.MaxTokens)

	rec := telemetry.New(telemetry.Config{
		Enabled: cfg.Telemetry.Enabled,
		Dir:     cfg.Telemetry.Dir,
	}, logger)

	r := runner.New(threads, model, tools.Registry(data), runner.Config{
		MaxToolRounds:          cfg.Agent.MaxToolRounds,
		TokenBudget:            cfg.Agent.TokenBudget,
		HistoryTurnLimit:       cfg.Agent.HistoryTurnLimit,
		CreateOnFirstUse:       cfg.Threads.CreateOnFirstUse,
		DeterministicSummaries: cfg.Agent.DeterministicSummaries,
		System:                 cfg.Agent.SystemPrompt,
		MaxTokens:              cfg.Model.MaxTokens,
	}, runner.WithLogger(logger), runner.WithTelemetry(rec))

	logger.Info("agent ready",
		zap.String("model", model.Name()),
		zap.String("data_path", cfg.Data.Path),
		zap.Int("max_tool_rounds", cfg.Agent.MaxToolRounds),
		zap.Int("token_budget", cfg.Agent.TokenBudget),
		zap.String("events", rec.Path()),
	)
	return &app{data: data, threads: threads, runner: r}, nil
}

func (a *app) Close() {
	a.threads.Close()
	_ = a.data.Close()
}
