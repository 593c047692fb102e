package windowing

import (
	"github.com/petasbytes/overview-agent/internal/apperr"
	"github.com/petasbytes/overview-agent/internal/provider"
)

// Stats summarizes the result of window preparation.
//
// Total counts included groups only. OverBudgetNewest is set when the newest
// group alone exceeds Budget.
type Stats struct {
	Total            int
	Budget           int
	IncludedGroups   int
	SkippedGroups    int
	OverBudgetNewest bool
}

// PrepareSendWindow returns the longest suffix of msgs (oldest→newest) whose
// whole groups fit within budget.
//
// Rules:
// - Groups are added newest→oldest and scanning stops at the first that does not fit.
// - If the newest group alone exceeds budget, or budget ≤ 0, the window is empty
// and OverBudgetNewest is set.
func PrepareSendWindow(msgs []provider.Message, budget int, c TokenCounter) ([]provider.Message, Stats) {
	stats := Stats{Budget: budget}
	if len(msgs) == 0 {
		return nil, stats
	}

	groups := GroupBlocks(msgs)
	stats.SkippedGroups = len(groups)

	start := len(msgs)
	for gi := len(groups) - 1; gi >= 0; gi-- {
		cost := c.CountGroup(groups[gi], msgs)
		if stats.Total+cost > budget {
			if stats.IncludedGroups == 0 {
				stats.OverBudgetNewest = true
			}
			break
		}
		stats.Total += cost
		stats.IncludedGroups++
		stats.SkippedGroups--
		start = groups[gi].Start
	}

	if stats.IncludedGroups == 0 {
		stats.Total = 0
		return nil, stats
	}
	return msgs[start:], stats
}

// Prepare is PrepareSendWindow that rejects a window whose newest group does
// not fit: the request cannot be sent without dropping the new message.
func Prepare(msgs []provider.Message, budget int, c TokenCounter) ([]provider.Message, Stats, error) {
	if c == nil {
		c = HeuristicCounter{}
	}
	window, stats := PrepareSendWindow(msgs, budget, c)
	if stats.OverBudgetNewest {
		return nil, stats, apperr.InvalidInput("newest message exceeds the token budget of %d", budget)
	}
	return window, stats, nil
}
