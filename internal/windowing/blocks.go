package windowing

import "github.com/petasbytes/overview-agent/internal/provider"

// GroupKind denotes the atomic unit type when preparing a send window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupPair
)

// Group describes a contiguous span of messages [Start, End) in the input slice.
// Kind indicates whether it is a singleton or a validated pair.
type Group struct {
	Kind  GroupKind
	Start int // inclusive index into msgs
	End   int // exclusive index into msgs
}

// GroupBlocks groups messages into atomic units that preserve tool-call pairs.
// Invariants:
// - A pair is exactly two adjacent messages: assistant(tool calls) then user(tool results).
// - Parallel completeness: every call id in the assistant message has a result
// in the following user message, and there are no results for other ids.
// - Error results are treated the same as successful ones.
func GroupBlocks(msgs []provider.Message) []Group {
	groups := make([]Group, 0, len(msgs))
	for i := 0; i < len(msgs); {
		m := msgs[i]
		if m.Role == provider.RoleAssistant && len(m.ToolCalls) > 0 &&
			i+1 < len(msgs) && msgs[i+1].Role == provider.RoleUser &&
			sameIDs(callIDs(m), resultIDs(msgs[i+1])) {
			groups = append(groups, Group{Kind: GroupPair, Start: i, End: i + 2})
			i += 2
			continue
		}
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups
}

func callIDs(m provider.Message) map[string]struct{} {
	ids := make(map[string]struct{}, len(m.ToolCalls))
	for _, c := range m.ToolCalls {
		if c.ID != "" {
			ids[c.ID] = struct{}{}
		}
	}
	return ids
}

func resultIDs(m provider.Message) map[string]struct{} {
	ids := make(map[string]struct{}, len(m.ToolResults))
	for _, r := range m.ToolResults {
		if r.CallID != "" {
			ids[r.CallID] = struct{}{}
		}
	}
	return ids
}

// sameIDs reports whether every call has a result and no result is extra.
func sameIDs(calls, results map[string]struct{}) bool {
	if len(calls) == 0 || len(calls) != len(results) {
		return false
	}
	for id := range calls {
		if _, ok := results[id]; !ok {
			return false
		}
	}
	return true
}
