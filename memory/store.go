package memory

import (
	"context"
	"maps"
	"time"

	"github.com/petasbytes/overview-agent/internal/apperr"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// ToolCall is the audit record of one tool invocation.
type ToolCall struct {
	Name   string            `json:"name"`
	Args   map[string]string `json:"args,omitempty"`
	Failed bool              `json:"failed,omitempty"`
}

// Turn is one message in a thread.
type Turn struct {
	Seq       int        `json:"seq"`
	Role      Role       `json:"role"`
	Text      string     `json:"text"`
	Timestamp time.Time  `json:"timestamp"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Clone returns a deep copy so callers cannot alias stored turns.
func (t Turn) Clone() Turn {
	if t.ToolCalls == nil {
		return t
	}
	calls := make([]ToolCall, len(t.ToolCalls))
	for i, c := range t.ToolCalls {
		calls[i] = ToolCall{Name: c.Name, Args: maps.Clone(c.Args), Failed: c.Failed}
	}
	t.ToolCalls = calls
	return t
}

type Thread struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// ThreadInfo is the listing view of a thread.
type ThreadInfo struct {
	Thread
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// Store holds conversation threads.
//
// Lookups of unknown or deleted ids fail with apperr.ErrNotFound.
type Store interface {
	// CreateThread allocates a fresh id. It does not fail in practice.
	CreateThread(ctx context.Context, owner string) (Thread, error)
	// EnsureThread returns the thread with id, creating it when the id has
	// never been seen. created reports whether it was created now.
	EnsureThread(ctx context.Context, id, owner string) (th Thread, created bool, err error)
	GetThread(ctx context.Context, id string) (ThreadInfo, error)
	GetHistory(ctx context.Context, id string) ([]Turn, error)
	// AppendTurn stores a copy of turn with its sequence number and
	// timestamp assigned, and returns it.
	AppendTurn(ctx context.Context, id string, turn Turn) (Turn, error)
	// DeleteThread is idempotent.
	DeleteThread(ctx context.Context, id string) error
	// ListThreads returns threads most recently updated first. An empty
	// owner lists all threads.
	ListThreads(ctx context.Context, owner string) ([]ThreadInfo, error)
	// Lock waits for exclusive use of the thread. The returned func releases
	// it and is safe to call more than once.
	Lock(ctx context.Context, id string) (unlock func(), err error)
}

func errThreadNotFound(id string) error {
	return apperr.NotFound("thread %s not found", id)
}
