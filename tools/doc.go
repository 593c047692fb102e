// Package tools defines tool contracts and the domain tool adapters.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - Domain tools: fetch_account_details, fetch_facility_details, save_note, fetch_notes.
//   - Invariants: handlers return a Result or an *apperr.Error and never panic;
//     save_note is the only tool with a side effect.
package tools
