package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/petasbytes/overview-agent/internal/config"
	"github.com/petasbytes/overview-agent/internal/datastore"
	"github.com/petasbytes/overview-agent/internal/records"
	"github.com/petasbytes/overview-agent/internal/shaper"
	"github.com/petasbytes/overview-agent/memory"
)

func plain(a ...any) string { return fmt.Sprint(a...) }

func TestPrintEnvelope(t *testing.T) {
	env := shaper.Envelope{
		CardKey:      shaper.CardNoteOverview,
		FinalText:    "Here are your notes.",
		NoteOverview: []records.Note{{NoteID: "N-000001"}, {NoteID: "N-000002"}},
	}
	var buf bytes.Buffer
	printEnvelope(&buf, &env, plain, plain)
	assert.Equal(t, "[note_overview 2 note(s)]\nAgent: Here are your notes.\n", buf.String())
}

func TestSaveTranscript(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryStore()
	th, err := store.CreateThread(ctx, "u1")
	require.NoError(t, err)
	_, err = store.AppendTurn(ctx, th.ID, memory.Turn{Role: memory.RoleUser, Text: "hi"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "thread.json")
	require.NoError(t, saveTranscript(ctx, store, th.ID, path))

	tr, err := memory.LoadTranscript(path)
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, th.ID, tr.Thread.ID)
	require.Len(t, tr.Turns, 1)
	assert.Equal(t, "hi", tr.Turns[0].Text)

	assert.Error(t, saveTranscript(ctx, store, "missing", path))
}

func TestNewApp_RequiresAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.Data.Path = filepath.Join(t.TempDir(), "data.db")
	_, err := newApp(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "ANTHROPIC_API_KEY"))
}

func TestNewApp_WiresSeededStore(t *testing.T) {
	cfg := config.Default()
	cfg.Model.APIKey = "test-key"
	cfg.Data.Path = filepath.Join(t.TempDir(), "data.db")
	a, err := newApp(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	acct, err := a.data.GetAccount(context.Background(), datastore.DemoAccountID)
	require.NoError(t, err)
	assert.Equal(t, datastore.DemoAccountID, acct.AccountID)
	assert.NotEmpty(t, a.runner.ModelName())
}
