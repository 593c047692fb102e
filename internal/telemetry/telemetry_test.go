package telemetry_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/petasbytes/overview-agent/internal/telemetry"
)

func readEvents(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	var out []map[string]any
	for i, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var ev map[string]any
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("line %d invalid JSON: %v", i+1, err)
		}
		out = append(out, ev)
	}
	return out
}

func TestNew_DisabledIsNil(t *testing.T) {
	r := telemetry.New(telemetry.Config{Enabled: false, Dir: t.TempDir()}, nil)
	if r != nil {
		t.Fatalf("disabled recorder should be nil")
	}
	// nil recorder is safe to use
	r.Emit(context.Background(), "ignored", nil)
	if r.Path() != "" {
		t.Fatalf("nil recorder has no path")
	}
}

func TestEmit_HappyPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	r := telemetry.New(telemetry.Config{Enabled: true, Dir: dir}, nil)

	ctx := telemetry.WithTurn(context.Background(), telemetry.Turn{ThreadID: "th-1", TurnID: "turn-1"})
	r.Emit(ctx, "test_event", map[string]any{"foo": "bar", "num": 42})

	events := readEvents(t, r.Path())
	if len(events) != 1 {
		t.Fatalf("expected 1 line, got %d", len(events))
	}
	ev := events[0]
	if ev["event"] != "test_event" || ev["foo"] != "bar" || ev["num"] != float64(42) {
		t.Errorf("unexpected event: %v", ev)
	}
	if ev["turn_id"] != "turn-1" || ev["thread_id"] != "th-1" {
		t.Errorf("turn not propagated: %v", ev)
	}
	ts, ok := ev["time"].(string)
	if !ok {
		t.Fatal("expected time field as string")
	}
	if _, err := time.Parse(time.RFC3339Nano, ts); err != nil {
		t.Errorf("time field not valid RFC3339Nano: %v", err)
	}
}

func TestEmit_AppendsInOrder(t *testing.T) {
	r := telemetry.New(telemetry.Config{Enabled: true, Dir: t.TempDir()}, nil)
	for _, name := range []string{"event1", "event2", "event3"} {
		r.Emit(context.Background(), name, nil)
	}

	events := readEvents(t, r.Path())
	if len(events) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(events))
	}
	for i, want := range []string{"event1", "event2", "event3"} {
		if events[i]["event"] != want {
			t.Errorf("line %d: expected event=%s, got %v", i+1, want, events[i]["event"])
		}
	}
}

func TestEmit_MapIsolation(t *testing.T) {
	r := telemetry.New(telemetry.Config{Enabled: true, Dir: t.TempDir()}, nil)
	fields := map[string]any{"key": "value"}
	r.Emit(context.Background(), "test", fields)

	if len(fields) != 1 || fields["key"] != "value" {
		t.Errorf("caller map mutated: %v", fields)
	}
}

func TestEmit_UnwritableDirDoesNotPanic(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Dir is a regular file, so MkdirAll fails.
	r := telemetry.New(telemetry.Config{Enabled: true, Dir: filepath.Join(blocker, "sub")}, nil)
	r.Emit(context.Background(), "test", map[string]any{"foo": "bar"})
}

func TestTurn_RoundTrip(t *testing.T) {
	ctx := telemetry.WithTurn(context.Background(), telemetry.Turn{ThreadID: "th", TurnID: "turn-123"})
	got, ok := telemetry.TurnFromContext(ctx)
	if !ok || got.TurnID != "turn-123" || got.ThreadID != "th" {
		t.Fatalf("want turn-123,true; got %+v,%v", got, ok)
	}
}

func TestTurn_EmptyIDRejectedOnRead(t *testing.T) {
	ctx := telemetry.WithTurn(context.Background(), telemetry.Turn{ThreadID: "th"})
	if _, ok := telemetry.TurnFromContext(ctx); ok {
		t.Fatalf("empty turn id should not be reported")
	}
	if _, ok := telemetry.TurnFromContext(context.Background()); ok {
		t.Fatalf("missing turn should not be reported")
	}
}

func TestCountFeatures(t *testing.T) {
	cases := []struct {
		in   string
		want telemetry.TextFeatures
	}{
		{"", telemetry.TextFeatures{}},
		{"show account", telemetry.TextFeatures{Bytes: 12, Runes: 12, Words: 2, Lines: 1}},
		{"a\nb é", telemetry.TextFeatures{Bytes: 6, Runes: 5, Words: 3, Lines: 2}},
	}
	for _, c := range cases {
		if got := telemetry.CountFeatures(c.in); got != c.want {
			t.Errorf("CountFeatures(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}
