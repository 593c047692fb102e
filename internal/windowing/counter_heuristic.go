package windowing

import (
	"unicode/utf8"

	"github.com/petasbytes/overview-agent/internal/provider"
)

// TokenCounter estimates input-token cost for messages or groups.
type TokenCounter interface {
	CountMessage(m provider.Message) int
	CountGroup(g Group, all []provider.Message) int
}

// HeuristicCounter is the default deterministic estimator.
// Rules:
// - text: rune count plus overhead
// - each tool call: rune count of its raw input plus overhead
// - each tool result: rune count of its content plus overhead
// A message with no parts costs one overhead.
type HeuristicCounter struct{}

// Fixed per-part overhead for deterministic counts; changing this requires updating the guard test.
const blockOverhead = 4

func (HeuristicCounter) CountMessage(m provider.Message) int {
	total := 0
	for _, r := range m.ToolResults {
		total += utf8.RuneCountInString(r.Content) + blockOverhead
	}
	for _, c := range m.ToolCalls {
		total += utf8.RuneCount(c.Input) + blockOverhead
	}
	if m.Text != "" || total == 0 {
		total += utf8.RuneCountInString(m.Text) + blockOverhead
	}
	return total
}

func (h HeuristicCounter) CountGroup(g Group, all []provider.Message) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += h.CountMessage(all[i])
	}
	return total
}
