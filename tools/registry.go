package tools

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/petasbytes/overview-agent/internal/datastore"
)

// Registry returns all tool definitions wired for the agent
func Registry(store datastore.Store) []ToolDefinition {
	return []ToolDefinition{
		FetchAccountDefinition(store),
		FetchFacilityDefinition(store),
		SaveNoteDefinition(store),
		FetchNotesDefinition(store),
	}
}

// Lookup finds a definition by name.
func Lookup(defs []ToolDefinition, name string) (ToolDefinition, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return ToolDefinition{}, false
}

// FlattenArgs renders the top-level members of a tool's raw JSON arguments as
// strings, for history records and log fields. Non-object input yields an
// empty map.
func FlattenArgs(raw json.RawMessage) map[string]string {
	out := map[string]string{}
	res := gjson.ParseBytes(raw)
	if !res.IsObject() {
		return out
	}
	res.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = value.String()
		return true
	})
	return out
}
