package tools

import (
	"context"
	"strings"
	"time"

	"github.com/petasbytes/overview-agent/internal/apperr"
	"github.com/petasbytes/overview-agent/internal/datastore"
	"github.com/petasbytes/overview-agent/internal/records"
)

const (
	SaveNoteName   = "save_note"
	FetchNotesName = "fetch_notes"
)

// defaultLastN is the fallback count when last_n <= 0.
const defaultLastN = 5

type SaveNoteInput struct {
	UserID  string `json:"user_id" jsonschema_description:"The user ID to save the note for."`
	Content string `json:"content" jsonschema_description:"The note content or meeting minutes to save."`
}

type FetchNotesInput struct {
	UserID string `json:"user_id" jsonschema_description:"The user whose notes to fetch."`
	Date   string `json:"date,omitempty" jsonschema_description:"Only notes created on this day, YYYY-MM-DD or DD/MM/YYYY."`
	LastN  int    `json:"last_n,omitempty" jsonschema_description:"Maximum number of notes to return (default 5)."`
	Order  string `json:"order,omitempty" jsonschema:"enum=asc,enum=desc" jsonschema_description:"asc for oldest first, desc for newest first (default desc)."`
}

// SaveNoteDefinition stores one note. Each successful call is exactly one
// write; retried turns may create duplicates.
func SaveNoteDefinition(store datastore.Store) ToolDefinition {
	return define(SaveNoteName,
		"Save notes or meeting minutes for a user.",
		func(in *SaveNoteInput) error {
			in.UserID = strings.TrimSpace(in.UserID)
			if in.UserID == "" {
				return apperr.InvalidInput("user_id is required")
			}
			if strings.TrimSpace(in.Content) == "" {
				return apperr.InvalidInput("content is required")
			}
			return nil
		},
		func(ctx context.Context, in SaveNoteInput) (any, error) {
			return store.SaveNote(ctx, in.UserID, in.Content)
		},
	)
}

// FetchNotesDefinition lists a user's notes: filtered by day, ordered, then
// truncated to last_n. No match is an empty list, not a failure.
func FetchNotesDefinition(store datastore.Store) ToolDefinition {
	return define(FetchNotesName,
		"Retrieve a user's notes, optionally for one date, limited to the last N, in asc or desc order.",
		func(in *FetchNotesInput) error {
			in.UserID = strings.TrimSpace(in.UserID)
			if in.UserID == "" {
				return apperr.InvalidInput("user_id is required")
			}
			if in.LastN <= 0 {
				in.LastN = defaultLastN
			}
			order := strings.ToLower(strings.TrimSpace(in.Order))
			switch records.Order(order) {
			case "":
				in.Order = string(records.OrderDesc)
			case records.OrderAsc, records.OrderDesc:
				in.Order = order
			default:
				return apperr.InvalidInput("order must be asc or desc, got %q", in.Order)
			}
			if in.Date != "" {
				if _, err := ParseNoteDate(in.Date); err != nil {
					return err
				}
			}
			return nil
		},
		func(ctx context.Context, in FetchNotesInput) (any, error) {
			q := records.NoteQuery{
				UserID: in.UserID,
				Limit:  in.LastN,
				Order:  records.Order(in.Order),
			}
			if in.Date != "" {
				day, err := ParseNoteDate(in.Date)
				if err != nil {
					return nil, err
				}
				q.Date = &day
			}
			return store.ListNotes(ctx, q)
		},
	)
}

// ParseNoteDate accepts YYYY-MM-DD or DD/MM/YYYY and returns midnight UTC.
func ParseNoteDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layout := "2006-01-02"
	if strings.Contains(s, "/") {
		layout = "2/1/2006"
	}
	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return time.Time{}, apperr.InvalidInput("date %q is not YYYY-MM-DD or DD/MM/YYYY", s)
	}
	return t, nil
}
