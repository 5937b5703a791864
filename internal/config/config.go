// Package config provides configuration loading and structs for the kotae server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Storage   StorageConfig   `yaml:"storage"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CorpusConfig lists the documents ingested at startup.
type CorpusConfig struct {
	Paths []string `yaml:"paths"`
	// Watch logs a warning and marks the index stale when a corpus file changes.
	Watch bool `yaml:"watch"`
}

// ChunkingConfig holds chunker settings. ChunkOverlap is a pointer so that an
// explicit 0 is distinguishable from unset.
type ChunkingConfig struct {
	ChunkSize    int  `yaml:"chunk_size"`
	ChunkOverlap *int `yaml:"chunk_overlap"`
}

// Overlap returns the configured overlap, or the default when unset.
func (c ChunkingConfig) Overlap() int {
	if c.ChunkOverlap != nil {
		return *c.ChunkOverlap
	}
	return DefaultChunkOverlap
}

// RetrievalConfig holds the over-fetch then truncate policy: KSearch candidates
// are pulled from the index and only the first KKeep by similarity are kept.
type RetrievalConfig struct {
	KSearch  int     `yaml:"k_search"`
	KKeep    int     `yaml:"k_keep"`
	// MinScore drops candidates scoring below it; 0 disables the floor.
	// Cosine scores lie in [-1, 1]. L2 scores are negated distances, so an
	// l2 floor is zero or negative.
	MinScore float64 `yaml:"min_score"`
	// Metric is cosine or l2.
	Metric string `yaml:"metric"`
}

// EmbeddingConfig selects and configures the embedder.
type EmbeddingConfig struct {
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	ModelPath         string        `yaml:"model_path"`
	LibraryPath       string        `yaml:"library_path"`
	Dimensions        int           `yaml:"dimensions"`
	MaxTokens         int           `yaml:"max_tokens"`
	BaseURL           string        `yaml:"base_url"`
	APIKeyEnv         string        `yaml:"api_key_env"`
	BatchSize         int           `yaml:"batch_size"`
	CacheSize         int           `yaml:"cache_size"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
}

// LLMConfig selects and configures the language model. Temperature is not
// configurable: generation always runs at 0.
type LLMConfig struct {
	Provider          string        `yaml:"provider"`
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	APIKeyEnv         string        `yaml:"api_key_env"`
	MaxTokens         int           `yaml:"max_tokens"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
}

// SynthesisConfig holds answer synthesis settings.
type SynthesisConfig struct {
	// VerifyNumbers logs numbers stated in an answer that do not occur in its context.
	VerifyNumbers *bool `yaml:"verify_numbers"`
}

// VerifyNumbersOrDefault returns whether the grounding check runs; defaults to true when unset.
func (s SynthesisConfig) VerifyNumbersOrDefault() bool {
	if s.VerifyNumbers != nil {
		return *s.VerifyNumbers
	}
	return true
}

// StorageConfig holds the catalog database location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	Disabled     bool   `yaml:"disabled"`
}

// Default returns a config with only defaults applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, applies defaults, expands paths and validates.
// Returns an error if the file cannot be read or parsed, or if validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	cfg.ExpandPaths(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ExpandPaths resolves corpus, model and database paths against baseDir.
func (c *Config) ExpandPaths(baseDir string) {
	for i := range c.Corpus.Paths {
		c.Corpus.Paths[i] = expandPath(c.Corpus.Paths[i], baseDir)
	}
	c.Embedding.ModelPath = expandPath(c.Embedding.ModelPath, baseDir)
	c.Embedding.LibraryPath = expandPath(c.Embedding.LibraryPath, baseDir)
	c.Storage.DatabasePath = expandPath(c.Storage.DatabasePath, baseDir)
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. "~/" is relative to the home directory;
// other relative paths are relative to baseDir. Empty stays empty.
func expandPath(path string, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
		return path
	}
	return filepath.Join(baseDir, path)
}
