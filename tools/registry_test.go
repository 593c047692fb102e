package tools_test

import (
	"encoding/json"
	"testing"

	"github.com/petasbytes/overview-agent/tools"
)

func TestRegistry_ToolNames(t *testing.T) {
	defs := tools.Registry(newStore(t))
	want := map[string]struct{}{
		"fetch_account_details":  {},
		"fetch_facility_details": {},
		"save_note":              {},
		"fetch_notes":            {},
	}
	if len(defs) != len(want) {
		t.Fatalf("unexpected number of tools: got %d want %d", len(defs), len(want))
	}

	// Unexpected names detected
	for _, d := range defs {
		if _, ok := want[d.Name]; !ok {
			t.Fatalf("unexpected tool in registry: %q", d.Name)
		}
	}

	// Missing expected names
	for name := range want {
		if _, ok := tools.Lookup(defs, name); !ok {
			t.Errorf("missing expected tool: %q", name)
		}
	}

	if t.Failed() {
		t.FailNow()
	}
}

func TestGenerateSchema_RequiredFollowsOmitempty(t *testing.T) {
	schema := tools.GenerateSchema[tools.FetchNotesInput]()
	if len(schema.Required) != 1 || schema.Required[0] != "user_id" {
		t.Fatalf("required = %v, want [user_id]", schema.Required)
	}

	b, err := json.Marshal(schema.Properties)
	if err != nil {
		t.Fatalf("marshal properties: %v", err)
	}
	var props map[string]any
	if err := json.Unmarshal(b, &props); err != nil {
		t.Fatalf("unmarshal properties: %v", err)
	}
	for _, k := range []string{"user_id", "date", "last_n", "order"} {
		if _, ok := props[k]; !ok {
			t.Errorf("missing property %q", k)
		}
	}
}

func TestFlattenArgs(t *testing.T) {
	got := tools.FlattenArgs(json.RawMessage(`{"user_id":"u1","last_n":3,"order":"asc"}`))
	want := map[string]string{"user_id": "u1", "last_n": "3", "order": "asc"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: got %q want %q", k, got[k], v)
		}
	}

	if got := tools.FlattenArgs(json.RawMessage(`"nope"`)); len(got) != 0 {
		t.Fatalf("non-object input should flatten to empty, got %v", got)
	}
}
