package runner

import (
	"strings"

	"github.com/petasbytes/overview-agent/internal/provider"
	"github.com/petasbytes/overview-agent/memory"
)

// DefaultSystemPrompt is sent with every model call unless Config.System
// overrides it. The card shown to the user is decided from tool results, so
// the prompt asks only for a plain-language answer.
const DefaultSystemPrompt = `You are a helpful assistant for a medical aesthetics supplier's account team.

You can:
1. Fetch account details (status, balances, loyalty and rewards, facilities)
2. Fetch facility details (licenses, agreements, status)
3. Save notes or meeting minutes for a user
4. Fetch a user's notes by date or recent history

Guidelines:
- Use tools to answer questions about accounts, facilities and notes; never invent record values.
- When an account_id is in context and the user asks about the account, call fetch_account_details.
- When a facility_id is in context and the user asks about the facility, call fetch_facility_details.
- Use the user_id from context for save_note and fetch_notes.
- When saving notes, confirm what was saved.
- If a tool reports an error, explain it briefly and ask for what is missing.
- Answer in plain, friendly prose. Do not output JSON.`

// Facts are the entity ids the model should treat as known for a turn.
type Facts struct {
	UserID     string
	AccountID  string
	FacilityID string
}

// CarriedFacts returns the most recent account_id and facility_id that
// appeared in the arguments of tools called earlier in the thread. Calls
// that failed are ignored.
func CarriedFacts(history []memory.Turn) Facts {
	var f Facts
	for i := len(history) - 1; i >= 0; i-- {
		calls := history[i].ToolCalls
		for j := len(calls) - 1; j >= 0; j-- {
			if calls[j].Failed {
				continue
			}
			if f.AccountID == "" {
				f.AccountID = calls[j].Args["account_id"]
			}
			if f.FacilityID == "" {
				f.FacilityID = calls[j].Args["facility_id"]
			}
		}
		if f.AccountID != "" && f.FacilityID != "" {
			break
		}
	}
	return f
}

// merge overlays the ids set in o onto f.
func (f Facts) merge(o Facts) Facts {
	if o.UserID != "" {
		f.UserID = o.UserID
	}
	if o.AccountID != "" {
		f.AccountID = o.AccountID
	}
	if o.FacilityID != "" {
		f.FacilityID = o.FacilityID
	}
	return f
}

func (f Facts) render() string {
	var b strings.Builder
	if f.UserID != "" {
		b.WriteString("Context: user_id: " + f.UserID + ". ")
	}
	if f.AccountID != "" {
		b.WriteString("Context: User is asking about account_id: " + f.AccountID + ". ")
	}
	if f.FacilityID != "" {
		b.WriteString("Context: User is asking about facility_id: " + f.FacilityID + ". ")
	}
	return strings.TrimSpace(b.String())
}

// BuildContext renders the thread history plus the new message as model
// messages, oldest first. Only the last limit turns are used when limit > 0,
// and the result always opens with a user message. Facts are prepended to
// the new message, never to stored turns.
func BuildContext(history []memory.Turn, message string, facts Facts, limit int) []provider.Message {
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]provider.Message, 0, len(history)+1)
	for _, t := range history {
		if t.Text == "" {
			continue
		}
		switch t.Role {
		case memory.RoleUser:
			out = append(out, provider.UserText(t.Text))
		case memory.RoleAgent:
			out = append(out, provider.AssistantText(t.Text))
		}
	}

	text := message
	if ctx := facts.render(); ctx != "" {
		text = ctx + "\n\n" + message
	}
	return trimLeadingAssistant(append(out, provider.UserText(text)))
}

// trimLeadingAssistant drops assistant messages at the start of a window;
// the model context must open with a user message.
func trimLeadingAssistant(msgs []provider.Message) []provider.Message {
	for len(msgs) > 1 && msgs[0].Role != provider.RoleUser {
		msgs = msgs[1:]
	}
	return msgs
}
