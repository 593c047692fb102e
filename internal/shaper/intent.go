package shaper

import "strings"

// Intent is the coarse purpose of a user message.
type Intent int

const (
	IntentGeneral  Intent = iota
	IntentOverview        // wants the whole record
	IntentNarrow          // asks about one field
)

func (i Intent) String() string {
	switch i {
	case IntentOverview:
		return "overview"
	case IntentNarrow:
		return "narrow"
	default:
		return "general"
	}
}

var overviewKeywords = []string{
	"overview",
	"summary",
	"summarize",
	"summarise",
	"show account",
	"show me the account",
	"show me my account",
	"show facility",
	"show me the facility",
	"account details",
	"facility details",
	"full details",
}

var narrowKeywords = []string{
	"how many",
	"how much",
	"what's",
	"what is",
	"which",
	"when",
	"status",
	"points",
	"tier",
	"reward",
	"free vial",
	"balance",
	"loyalty",
}

var rewardsKeywords = []string{"reward", "loyalty", "points", "tier", "free vial"}

// DetectIntent classifies message by keyword. Overview wins over narrow so
// "account summary with points" still shows the card.
func DetectIntent(message string) Intent {
	m := strings.ToLower(message)
	if containsAny(m, overviewKeywords) {
		return IntentOverview
	}
	if containsAny(m, narrowKeywords) {
		return IntentNarrow
	}
	return IntentGeneral
}

func isRewardsQuestion(message string) bool {
	return containsAny(strings.ToLower(message), rewardsKeywords)
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
