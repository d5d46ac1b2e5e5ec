package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teenai/paperchat-be/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "ai_provider: gemini\n")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "8501", cfg.Port)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, "gemini", cfg.AIProvider)
	assert.Equal(t, "models/gemini-1.5-pro", cfg.Gemini.Model)
	assert.Equal(t, "models/embedding-001", cfg.Gemini.EmbedModel)
	assert.Equal(t, 1024, cfg.Chunking.MaxChunkSize)
	assert.Equal(t, 128, cfg.Chunking.OverlapSize)
	assert.Equal(t, "paperchat", cfg.MongoDatabase)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "data/storage.json", cfg.ArchivePath)
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
port: "9000"
ai_provider: openai
openai:
  endpoint: http://localhost:1234/v1
  model: local-model
chunking:
  max_chunk_size: 512
  overlap_size: 64
storage:
  backend: minio
  minio:
    endpoint: localhost:9000
    bucket: papers
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "openai", cfg.AIProvider)
	assert.Equal(t, "http://localhost:1234/v1", cfg.OpenAI.Endpoint)
	assert.Equal(t, "local-model", cfg.OpenAI.Model)
	assert.Equal(t, 512, cfg.Chunking.MaxChunkSize)
	assert.Equal(t, 64, cfg.Chunking.OverlapSize)
	assert.Equal(t, "minio", cfg.Storage.Backend)
	assert.Equal(t, "papers", cfg.Storage.MinIO.Bucket)
}

func TestLoadConfig_EnvSecrets(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gm-key")
	t.Setenv("OPENAI_API_KEY", "oa-key")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")

	path := writeConfig(t, "ai_provider: gemini\n")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Contains(t, cfg.Gemini.APIKeys, "gm-key")
	assert.Equal(t, "oa-key", cfg.OpenAI.APIKey)
	assert.Equal(t, "mongodb://db:27017", cfg.MongoURI)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
