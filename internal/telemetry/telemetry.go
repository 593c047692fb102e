// Package telemetry writes turn and tool events as JSON lines.
//
// Events carry the event name, an RFC3339Nano UTC time, and the thread and
// turn ids found in the context. A nil or disabled *Recorder drops events.
package telemetry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const fileName = "events.jsonl"

type Config struct {
	Enabled bool
	Dir     string // defaults to .agent
}

type Recorder struct {
	mu     sync.Mutex
	path   string
	now    func() time.Time
	logger *zap.Logger
}

// New returns a Recorder, or nil when cfg is disabled.
func New(cfg Config, logger *zap.Logger) *Recorder {
	if !cfg.Enabled {
		return nil
	}
	dir := cfg.Dir
	if dir == "" {
		dir = ".agent"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		path:   filepath.Join(dir, fileName),
		now:    time.Now,
		logger: logger.Named("telemetry"),
	}
}

// Path is the JSONL file events are appended to.
func (r *Recorder) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// Emit appends one event. Write failures are logged, never returned.
func (r *Recorder) Emit(ctx context.Context, name string, fields map[string]any) {
	if r == nil {
		return
	}

	// Copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = r.now().UTC().Format(time.RFC3339Nano)
	m["event"] = name
	if t, ok := TurnFromContext(ctx); ok {
		m["turn_id"] = t.TurnID
		if t.ThreadID != "" {
			m["thread_id"] = t.ThreadID
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		r.logger.Warn("marshal event", zap.String("event", name), zap.Error(err))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		r.logger.Warn("create events dir", zap.String("path", r.path), zap.Error(err))
		return
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		r.logger.Warn("open events file", zap.String("path", r.path), zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		r.logger.Warn("write event", zap.String("path", r.path), zap.Error(err))
	}
}
