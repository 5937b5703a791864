package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
  request_timeout: 15s
corpus:
  paths: ["./docs/report.pdf"]
llm:
  model: "llama-3.1-8b-instant"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLM.Model)
	assert.False(t, cfg.Debug, "debug should default to false when unset")
}

func TestLoad_debugTrue(t *testing.T) {
	path := writeConfig(t, `
debug: true
corpus:
  paths: ["a.txt"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
}

func TestLoad_expandPathsRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
corpus:
  paths: ["./docs/report.pdf", "notes/q1.md"]
storage:
  database_path: "./data/db/kotae.db"
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "docs", "report.pdf"), cfg.Corpus.Paths[0])
	assert.Equal(t, filepath.Join(dir, "notes", "q1.md"), cfg.Corpus.Paths[1])
	assert.Equal(t, filepath.Join(dir, "data", "db", "kotae.db"), cfg.Storage.DatabasePath)
	assert.Equal(t, filepath.Join(dir, "models", "all-MiniLM-L6-v2.onnx"), cfg.Embedding.ModelPath)
}

func TestLoad_errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config")
	})
	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "corpus: [unclosed"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config")
	})
	t.Run("no corpus", func(t *testing.T) {
		_, err := Load(writeConfig(t, "debug: false\n"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrConfiguration))
	})
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 800, cfg.Chunking.ChunkSize)
	assert.Equal(t, 150, cfg.Chunking.Overlap())
	assert.Equal(t, 10, cfg.Retrieval.KSearch)
	assert.Equal(t, 3, cfg.Retrieval.KKeep)
	assert.Equal(t, "cosine", cfg.Retrieval.Metric)
	assert.Equal(t, ProviderONNX, cfg.Embedding.Provider)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
	assert.Equal(t, "GROQ_API_KEY", cfg.LLM.APIKeyEnv)
	assert.True(t, cfg.Synthesis.VerifyNumbersOrDefault())
}

func TestApplyDefaults_explicitZeroOverlapKept(t *testing.T) {
	zero := 0
	cfg := &Config{Chunking: ChunkingConfig{ChunkOverlap: &zero}}
	ApplyDefaults(cfg)
	assert.Equal(t, 0, cfg.Chunking.Overlap())
}

func TestApplyDefaults_providerSpecific(t *testing.T) {
	cfg := &Config{
		Embedding: EmbeddingConfig{Provider: ProviderOllama},
		LLM:       LLMConfig{Provider: ProviderOllama},
	}
	ApplyDefaults(cfg)
	assert.Equal(t, "http://localhost:11434", cfg.Embedding.BaseURL)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
	assert.Empty(t, cfg.Embedding.ModelPath)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
	assert.Empty(t, cfg.LLM.APIKeyEnv)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Corpus: CorpusConfig{Paths: []string{"/docs/a.pdf"}}}
		ApplyDefaults(cfg)
		return cfg
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overlap equals size", func(c *Config) { o := 800; c.Chunking.ChunkOverlap = &o }},
		{"negative overlap", func(c *Config) { o := -1; c.Chunking.ChunkOverlap = &o }},
		{"negative size", func(c *Config) { c.Chunking.ChunkSize = -5 }},
		{"k_search below k_keep", func(c *Config) { c.Retrieval.KSearch = 2; c.Retrieval.KKeep = 3 }},
		{"k_keep zero", func(c *Config) { c.Retrieval.KKeep = -1 }},
		{"unknown metric", func(c *Config) { c.Retrieval.Metric = "dot" }},
		{"positive floor with l2", func(c *Config) { c.Retrieval.Metric = "l2"; c.Retrieval.MinScore = 0.5 }},
		{"cosine floor above 1", func(c *Config) { c.Retrieval.MinScore = 1.5 }},
		{"unknown embedder", func(c *Config) { c.Embedding.Provider = "word2vec" }},
		{"unknown llm", func(c *Config) { c.LLM.Provider = "bard" }},
	}
	require.NoError(t, valid().Validate())
	l2 := valid()
	l2.Retrieval.Metric = "l2"
	l2.Retrieval.MinScore = -0.8
	require.NoError(t, l2.Validate(), "negative floor is valid for l2")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrConfiguration))
		})
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := Default()
	cfg.Server.Port = 9090
	cfg.Corpus.Paths = []string{"/tmp/docs/report.pdf"}
	cfg.Storage.DatabasePath = "/tmp/kotae.db"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, loaded.Server.Port)
	assert.Equal(t, []string{"/tmp/docs/report.pdf"}, loaded.Corpus.Paths)
	assert.Equal(t, 150, loaded.Chunking.Overlap())
}
