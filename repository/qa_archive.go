package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// QAEntry is one archived question/answer pair
type QAEntry struct {
	ChatID    string `json:"chat_id,omitempty"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Engine    string `json:"engine,omitempty"`
	Timestamp string `json:"timestamp"`
}

type archiveFile struct {
	Entries     []QAEntry         `json:"entries"`
	LastUpdated *string           `json:"lastUpdated"`
	Metadata    map[string]string `json:"metadata"`
}

// QAArchive keeps an append-only JSON log of every answered question
type QAArchive struct {
	mu   sync.Mutex
	path string
}

func NewQAArchive(path string) (*QAArchive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return &QAArchive{path: path}, nil
}

func (a *QAArchive) Append(entry QAEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	storage := a.read()
	now := time.Now().Format(time.RFC3339)
	entry.Timestamp = now
	storage.Entries = append(storage.Entries, entry)
	storage.LastUpdated = &now

	data, err := json.MarshalIndent(storage, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(a.path, data, 0644)
}

func (a *QAArchive) Entries() ([]QAEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.read().Entries, nil
}

func (a *QAArchive) read() *archiveFile {
	storage := &archiveFile{
		Entries: []QAEntry{},
		Metadata: map[string]string{
			"version":     "1.0",
			"description": "Q&A archive for the paper assistant",
		},
	}
	data, err := os.ReadFile(a.path)
	if err != nil {
		return storage
	}
	if err := json.Unmarshal(data, storage); err != nil {
		return &archiveFile{
			Entries: []QAEntry{},
			Metadata: map[string]string{
				"version":     "1.0",
				"description": "Q&A archive for the paper assistant",
			},
		}
	}
	return storage
}
