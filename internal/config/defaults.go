package config

import "time"

// Defaults for chunking and retrieval.
const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 150
	DefaultKSearch      = 10
	DefaultKKeep        = 3

	DefaultRequestTimeout = 60 * time.Second
)

// Provider names.
const (
	ProviderONNX    = "onnx"
	ProviderOpenAI  = "openai"
	ProviderOllama  = "ollama"
	ProviderHashing = "hashing"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = DefaultChunkSize
	}
	if cfg.Chunking.ChunkOverlap == nil {
		overlap := DefaultChunkOverlap
		cfg.Chunking.ChunkOverlap = &overlap
	}
	if cfg.Retrieval.KSearch == 0 {
		cfg.Retrieval.KSearch = DefaultKSearch
	}
	if cfg.Retrieval.KKeep == 0 {
		cfg.Retrieval.KKeep = DefaultKKeep
	}
	if cfg.Retrieval.Metric == "" {
		cfg.Retrieval.Metric = "cosine"
	}
	applyEmbeddingDefaults(&cfg.Embedding)
	applyLLMDefaults(&cfg.LLM)
	if cfg.Synthesis.VerifyNumbers == nil {
		verify := true
		cfg.Synthesis.VerifyNumbers = &verify
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/kotae.db"
	}
}

func applyEmbeddingDefaults(e *EmbeddingConfig) {
	if e.Provider == "" {
		e.Provider = ProviderONNX
	}
	if e.Model == "" {
		switch e.Provider {
		case ProviderOpenAI:
			e.Model = "text-embedding-3-small"
		case ProviderOllama:
			e.Model = "nomic-embed-text"
		default:
			e.Model = "all-MiniLM-L6-v2"
		}
	}
	if e.ModelPath == "" && e.Provider == ProviderONNX {
		e.ModelPath = "./models/all-MiniLM-L6-v2.onnx"
	}
	if e.Dimensions == 0 {
		switch e.Provider {
		case ProviderOpenAI:
			e.Dimensions = 1536
		case ProviderOllama:
			e.Dimensions = 768
		default:
			e.Dimensions = 384
		}
	}
	if e.MaxTokens == 0 {
		e.MaxTokens = 256
	}
	if e.BaseURL == "" {
		switch e.Provider {
		case ProviderOpenAI:
			e.BaseURL = "https://api.openai.com/v1"
		case ProviderOllama:
			e.BaseURL = "http://localhost:11434"
		}
	}
	if e.APIKeyEnv == "" && e.Provider == ProviderOpenAI {
		e.APIKeyEnv = "OPENAI_API_KEY"
	}
	if e.BatchSize == 0 {
		e.BatchSize = 32
	}
	if e.CacheSize == 0 {
		e.CacheSize = 1000
	}
	if e.Timeout == 0 {
		e.Timeout = 30 * time.Second
	}
}

func applyLLMDefaults(l *LLMConfig) {
	if l.Provider == "" {
		l.Provider = ProviderOpenAI
	}
	if l.BaseURL == "" {
		if l.Provider == ProviderOllama {
			l.BaseURL = "http://localhost:11434"
		} else {
			l.BaseURL = "https://api.groq.com/openai/v1"
		}
	}
	if l.Model == "" {
		if l.Provider == ProviderOllama {
			l.Model = "llama3.2"
		} else {
			l.Model = "llama-3.3-70b-versatile"
		}
	}
	if l.APIKeyEnv == "" && l.Provider == ProviderOpenAI {
		l.APIKeyEnv = "GROQ_API_KEY"
	}
	if l.MaxTokens == 0 {
		l.MaxTokens = 1024
	}
	if l.Timeout == 0 {
		l.Timeout = 60 * time.Second
	}
}
