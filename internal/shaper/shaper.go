// Package shaper turns the facts of one turn into the response envelope.
//
// The card key is decided here from tool outcomes and the user's message,
// never from anything the model claims. Policy, first match wins:
//
//  1. account lookup succeeded and the message asks for an overview (or is
//     neutral while the caller pinned an account) → account_overview
//  2. facility lookup succeeded → facility_overview
//  3. note fetch succeeded, even with no notes → note_overview
//  4. otherwise → other
//
// Only the slot named by the card key is filled. Rewards and order slots are
// always null; the note slot is an empty array rather than null.
package shaper

import (
	"errors"

	"github.com/petasbytes/overview-agent/internal/apperr"
	"github.com/petasbytes/overview-agent/internal/records"
	"github.com/petasbytes/overview-agent/tools"
)

type CardKey string

const (
	CardAccountOverview  CardKey = "account_overview"
	CardFacilityOverview CardKey = "facility_overview"
	CardNoteOverview     CardKey = "note_overview"
	CardOther            CardKey = "other"
)

const fallbackText = "I'm here to help! How can I assist you?"

// Invocation is the outcome of one tool call made during the turn. Records is
// the adapter's typed result when Err is nil.
type Invocation struct {
	Name    string
	Args    map[string]string
	Records any
	Err     error
}

// Input is everything the shaper needs from a finished turn.
type Input struct {
	ThreadID    string
	Message     string
	AccountHint string
	FinalText   string
	Invocations []Invocation
}

type Options struct {
	// DeterministicSummaries replaces the model's text with a summary built
	// from the records whenever one applies.
	DeterministicSummaries bool
}

type Envelope struct {
	ThreadID         string             `json:"thread_id"`
	FinalText        string             `json:"final_text"`
	CardKey          CardKey            `json:"card_key"`
	AccountOverview  []records.Account  `json:"account_overview"`
	RewardsOverview  []any              `json:"rewards_overview"`
	FacilityOverview []records.Facility `json:"facility_overview"`
	OrderOverview    []any              `json:"order_overview"`
	NoteOverview     []records.Note     `json:"note_overview"`
}

// facts are the successful lookups of a turn.
type facts struct {
	accounts    []records.Account
	facilities  []records.Facility
	notes       []records.Note
	notesLooked bool
}

func collect(invs []Invocation) facts {
	var f facts
	seenAcct := map[string]bool{}
	seenFac := map[string]bool{}
	for _, inv := range invs {
		if inv.Err != nil {
			continue
		}
		switch inv.Name {
		case tools.FetchAccountName:
			if a, ok := inv.Records.(records.Account); ok && !seenAcct[a.AccountID] {
				seenAcct[a.AccountID] = true
				f.accounts = append(f.accounts, a)
			}
		case tools.FetchFacilityName:
			if fac, ok := inv.Records.(records.Facility); ok && !seenFac[fac.ID] {
				seenFac[fac.ID] = true
				f.facilities = append(f.facilities, fac)
			}
		case tools.FetchNotesName:
			if ns, ok := inv.Records.([]records.Note); ok {
				f.notes = ns
				f.notesLooked = true
			}
		}
	}
	return f
}

// Classify picks the card key for a turn.
func Classify(in Input) CardKey {
	return classify(in, collect(in.Invocations))
}

func classify(in Input, f facts) CardKey {
	intent := DetectIntent(in.Message)
	switch {
	case len(f.accounts) > 0 && (intent == IntentOverview || (intent == IntentGeneral && in.AccountHint != "")):
		return CardAccountOverview
	case len(f.facilities) > 0:
		return CardFacilityOverview
	case f.notesLooked:
		return CardNoteOverview
	default:
		return CardOther
	}
}

// Shape builds the envelope for a turn that reached a final answer.
func Shape(in Input, opts Options) Envelope {
	f := collect(in.Invocations)
	card := classify(in, f)

	env := Envelope{
		ThreadID:     in.ThreadID,
		CardKey:      card,
		NoteOverview: []records.Note{},
	}
	switch card {
	case CardAccountOverview:
		env.AccountOverview = f.accounts
	case CardFacilityOverview:
		env.FacilityOverview = f.facilities
	case CardNoteOverview:
		if f.notes != nil {
			env.NoteOverview = f.notes
		}
	}

	env.FinalText = in.FinalText
	if env.FinalText == "" || opts.DeterministicSummaries {
		if s := summarize(in.Message, card, f); s != "" {
			env.FinalText = s
		}
	}
	if env.FinalText == "" {
		env.FinalText = fallbackText
	}
	return env
}

// Degraded is the envelope for a turn aborted before a final answer.
func Degraded(threadID string, err error) Envelope {
	return Envelope{
		ThreadID:     threadID,
		FinalText:    degradedText(err),
		CardKey:      CardOther,
		NoteOverview: []records.Note{},
	}
}

func degradedText(err error) string {
	switch {
	case errors.Is(err, apperr.ErrToolLoopExceeded):
		return "I couldn't finish looking that up within the allowed number of steps. Please try again or ask a narrower question."
	case errors.Is(err, apperr.ErrModelUnavailable):
		return "The assistant is temporarily unavailable. Please try again in a moment."
	default:
		return "Something went wrong while processing your request. Please try again."
	}
}
