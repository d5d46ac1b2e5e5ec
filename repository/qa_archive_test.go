package repository_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teenai/paperchat-be/repository"
)

func TestQAArchive_AppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "storage.json")
	archive, err := repository.NewQAArchive(path)
	require.NoError(t, err)

	require.NoError(t, archive.Append(repository.QAEntry{
		ChatID:   "chat-1",
		Question: "what is attention?",
		Answer:   "a mechanism",
		Engine:   "vector",
	}))
	require.NoError(t, archive.Append(repository.QAEntry{
		Question: "summarize the paper",
		Answer:   "it is about transformers",
		Engine:   "summary",
	}))

	entries, err := archive.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "what is attention?", entries[0].Question)
	assert.Equal(t, "summary", entries[1].Engine)

	_, err = time.Parse(time.RFC3339, entries[0].Timestamp)
	assert.NoError(t, err)
}

func TestQAArchive_FileLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	archive, err := repository.NewQAArchive(path)
	require.NoError(t, err)

	require.NoError(t, archive.Append(repository.QAEntry{Question: "q", Answer: "a"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed struct {
		Entries     []repository.QAEntry `json:"entries"`
		LastUpdated *string              `json:"lastUpdated"`
		Metadata    map[string]string    `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Len(t, parsed.Entries, 1)
	require.NotNil(t, parsed.LastUpdated)
	assert.Equal(t, "1.0", parsed.Metadata["version"])
}

func TestQAArchive_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	archive, err := repository.NewQAArchive(path)
	require.NoError(t, err)

	entries, err := archive.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
