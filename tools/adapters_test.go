package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/petasbytes/overview-agent/internal/apperr"
	"github.com/petasbytes/overview-agent/internal/records"
	"github.com/petasbytes/overview-agent/tools"
)

func TestFetchAccount_Success(t *testing.T) {
	def := tools.FetchAccountDefinition(seededStore(t))

	res, err := def.Function(context.Background(), args(t, map[string]string{"account_id": "A-011977763"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	acct, ok := res.Records.(records.Account)
	if !ok {
		t.Fatalf("records type = %T, want records.Account", res.Records)
	}
	if acct.Name != "Dimod Account" || acct.PointsToNextTier != 40 {
		t.Fatalf("unexpected account: %+v", acct)
	}
	if !strings.Contains(res.Output, `"account_id":"A-011977763"`) {
		t.Fatalf("output missing account id: %s", res.Output)
	}
}

func TestFetchAccount_Failures(t *testing.T) {
	def := tools.FetchAccountDefinition(seededStore(t))
	ctx := context.Background()

	cases := []struct {
		name  string
		input json.RawMessage
		want  error
	}{
		{"unknown id", json.RawMessage(`{"account_id":"A-000"}`), apperr.ErrNotFound},
		{"missing id", json.RawMessage(`{}`), apperr.ErrInvalidInput},
		{"blank id", json.RawMessage(`{"account_id":"  "}`), apperr.ErrInvalidInput},
		{"malformed json", json.RawMessage(`{"account_id":`), apperr.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := def.Function(ctx, tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestFetchFacility(t *testing.T) {
	def := tools.FetchFacilityDefinition(seededStore(t))
	ctx := context.Background()

	res, err := def.Function(ctx, args(t, map[string]string{"facility_id": "F-013203268"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fac := res.Records.(records.Facility)
	if fac.Status != "INACTIVE" {
		t.Fatalf("status = %q, want INACTIVE", fac.Status)
	}

	if _, err := def.Function(ctx, args(t, map[string]string{"facility_id": "F-404"})); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("want NotFound, got %v", err)
	}
}

func TestSaveNote_EmptyContentIsInvalid(t *testing.T) {
	store := newStore(t)
	def := tools.SaveNoteDefinition(store)
	ctx := context.Background()

	_, err := def.Function(ctx, args(t, map[string]string{"user_id": "u1", "content": "   "}))
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("want InvalidInput, got %v", err)
	}

	notes, err := store.ListNotes(ctx, records.NoteQuery{UserID: "u1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("rejected save must not write, found %d notes", len(notes))
	}
}

func TestSaveThenFetch_RoundTrip(t *testing.T) {
	store := newStore(t)
	save := tools.SaveNoteDefinition(store)
	fetch := tools.FetchNotesDefinition(store)
	ctx := context.Background()

	for _, c := range []string{"older", "X"} {
		if _, err := save.Function(ctx, args(t, map[string]string{"user_id": "u1", "content": c})); err != nil {
			t.Fatalf("save %q: %v", c, err)
		}
	}

	res, err := fetch.Function(ctx, args(t, map[string]any{"user_id": "u1", "order": "desc"}))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	notes := res.Records.([]records.Note)
	if len(notes) == 0 || notes[0].Content != "X" {
		t.Fatalf("first note = %+v, want content X", notes)
	}
}

func TestFetchNotes_LastNAscending(t *testing.T) {
	store := newStore(t)
	save := tools.SaveNoteDefinition(store)
	fetch := tools.FetchNotesDefinition(store)
	ctx := context.Background()

	for _, c := range []string{"n1", "n2", "n3", "n4", "n5"} {
		if _, err := save.Function(ctx, args(t, map[string]string{"user_id": "u1", "content": c})); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	res, err := fetch.Function(ctx, args(t, map[string]any{"user_id": "u1", "last_n": 3, "order": "asc"}))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	notes := res.Records.([]records.Note)
	var got []string
	for _, n := range notes {
		got = append(got, n.Content)
	}
	if strings.Join(got, ",") != "n1,n2,n3" {
		t.Fatalf("got %v, want [n1 n2 n3]", got)
	}
}

func TestFetchNotes_DefaultsAndEmpty(t *testing.T) {
	store := newStore(t)
	save := tools.SaveNoteDefinition(store)
	fetch := tools.FetchNotesDefinition(store)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		if _, err := save.Function(ctx, args(t, map[string]string{"user_id": "u1", "content": "n"})); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	res, err := fetch.Function(ctx, args(t, map[string]any{"user_id": "u1"}))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	notes := res.Records.([]records.Note)
	if len(notes) != 5 {
		t.Fatalf("default last_n should be 5, got %d", len(notes))
	}
	if !notes[0].CreatedAt.After(notes[4].CreatedAt) {
		t.Fatalf("default order should be newest first")
	}

	res, err = fetch.Function(ctx, args(t, map[string]any{"user_id": "nobody"}))
	if err != nil {
		t.Fatalf("empty fetch must not fail: %v", err)
	}
	if res.Output != "[]" {
		t.Fatalf("empty output = %s, want []", res.Output)
	}
}

func TestFetchNotes_DateFormats(t *testing.T) {
	fetch := tools.FetchNotesDefinition(seededStore(t))
	ctx := context.Background()
	user := "kaushal.sethia.c@evolus.com"

	for _, date := range []string{"2025-10-29", "29/10/2025"} {
		res, err := fetch.Function(ctx, args(t, map[string]any{"user_id": user, "date": date}))
		if err != nil {
			t.Fatalf("%s: %v", date, err)
		}
		if n := len(res.Records.([]records.Note)); n != 1 {
			t.Fatalf("%s: got %d notes, want 1", date, n)
		}
	}
}

func TestFetchNotes_InvalidInput(t *testing.T) {
	fetch := tools.FetchNotesDefinition(newStore(t))
	ctx := context.Background()

	cases := map[string]map[string]any{
		"missing user": {"order": "asc"},
		"bad order":    {"user_id": "u1", "order": "sideways"},
		"bad date":     {"user_id": "u1", "date": "next tuesday"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := fetch.Function(ctx, args(t, in)); !errors.Is(err, apperr.ErrInvalidInput) {
				t.Fatalf("want InvalidInput, got %v", err)
			}
		})
	}
}

func TestParseNoteDate(t *testing.T) {
	a, err := tools.ParseNoteDate("29/10/2025")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b, err := tools.ParseNoteDate("2025-10-29")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !a.Equal(b) {
		t.Fatalf("formats disagree: %v vs %v", a, b)
	}
}
