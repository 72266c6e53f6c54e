package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/docmirror/docmirror/internal/config"
	"github.com/docmirror/docmirror/internal/mirror/query"
	"github.com/docmirror/docmirror/internal/mirror/schema"
	mirror "github.com/docmirror/docmirror/internal/mirror/sync"
	"github.com/docmirror/docmirror/internal/ui"
)

var sampleDocs = []schema.DocumentView{
	{Filename: "plan.txt", Folder: "projects", Content: "ship it", UpdatedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)},
	{Filename: "todo.txt", Folder: "notes", Content: "buy milk", UpdatedAt: time.Date(2026, 3, 4, 6, 0, 0, 0, time.UTC)},
}

// useTestConfig points the command globals at a scratch store.
func useTestConfig(t *testing.T) string {
	t.Helper()

	prev := cfg
	t.Cleanup(func() { cfg = prev })

	cfg = config.DefaultConfig()
	cfg.Store.DSN = filepath.Join(t.TempDir(), "documents.db")
	return cfg.Store.DSN
}

func TestWriteDocuments_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDocuments(&buf, "json", sampleDocs))

	var got []schema.DocumentView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleDocs, got)
}

func TestWriteDocuments_JSONEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDocuments(&buf, "json", nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestWriteDocuments_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDocuments(&buf, "yaml", sampleDocs))

	var got []schema.DocumentView
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleDocs, got)
}

func TestWriteDocuments_TOML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDocuments(&buf, "toml", sampleDocs))

	var got struct {
		Documents []schema.DocumentView `toml:"documents"`
	}
	_, err := toml.Decode(buf.String(), &got)
	require.NoError(t, err)
	require.Len(t, got.Documents, 2)
	assert.Equal(t, "plan.txt", got.Documents[0].Filename)
	assert.Equal(t, "notes", got.Documents[1].Folder)
	assert.True(t, sampleDocs[0].UpdatedAt.Equal(got.Documents[0].UpdatedAt))
}

func TestWriteDocuments_Text(t *testing.T) {
	ui.DisableColor()

	var buf bytes.Buffer
	require.NoError(t, writeDocuments(&buf, "text", sampleDocs))
	assert.Contains(t, buf.String(), "Filename: plan.txt\nFolder: projects\n")
}

func TestWriteDocuments_UnknownFormat(t *testing.T) {
	assert.Error(t, writeDocuments(&bytes.Buffer{}, "xml", sampleDocs))
}

func TestParseSince(t *testing.T) {
	now := time.Date(2026, 5, 6, 12, 0, 0, 0, time.UTC)

	got, err := parseSince("2026-05-01T00:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parseSince("2 hours ago", now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(-2*time.Hour), got, time.Minute)

	_, err = parseSince("zzqx", now)
	assert.Error(t, err)
}

func TestInitThenList(t *testing.T) {
	useTestConfig(t)

	require.NoError(t, runInit(true))

	// Seed one document through the engine the way watch does.
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "notes")
	database, err := openStore(ctx, false)
	require.NoError(t, err)
	engine := mirror.New(database, mirror.Options{Root: root})
	path := filepath.Join(root, "todo.txt")
	require.NoError(t, writeTestFile(path, "buy milk"))
	require.NoError(t, engine.ApplyUpsert(ctx, path))
	require.NoError(t, database.Close())

	var buf bytes.Buffer
	require.NoError(t, runList(&buf, "json", query.Filter{}))

	var docs []schema.DocumentView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "todo.txt", docs[0].Filename)
	assert.Equal(t, "notes", docs[0].Folder)
	assert.Equal(t, "buy milk", docs[0].Content)

	buf.Reset()
	require.NoError(t, runList(&buf, "json", query.Filter{Folder: "elsewhere"}))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestRunWatch_RequiresRoot(t *testing.T) {
	useTestConfig(t)

	err := runWatch(false)
	assert.ErrorIs(t, err, config.ErrNoRoot)
}

func TestDisplayAddr(t *testing.T) {
	assert.Equal(t, "localhost:8080", displayAddr("[::]:8080"))
	assert.Equal(t, "localhost:8080", displayAddr(":8080"))
	assert.Equal(t, "127.0.0.1:9000", displayAddr("127.0.0.1:9000"))
}
