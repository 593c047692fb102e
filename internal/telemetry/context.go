package telemetry

import "context"

// Turn identifies the unit of work an event belongs to.
type Turn struct {
	ThreadID string
	TurnID   string
}

// turnKey is the context key type used to store a Turn.
type turnKey struct{}

// WithTurn returns a child context that carries turn.
// If ctx is nil, context.Background() is used
func WithTurn(ctx context.Context, turn Turn) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, turnKey{}, turn)
}

// TurnFromContext returns the Turn stored in ctx.
// Returns false when none is present or the turn id is empty.
func TurnFromContext(ctx context.Context) (Turn, bool) {
	if ctx == nil {
		return Turn{}, false
	}
	t, ok := ctx.Value(turnKey{}).(Turn)
	if !ok || t.TurnID == "" {
		return Turn{}, false
	}
	return t, true
}
