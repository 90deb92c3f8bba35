// Package config provides configuration loading and structs for the chat backend.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Documents DocumentsConfig `yaml:"documents"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Chat      ChatConfig      `yaml:"chat"`
	AI        AIConfig        `yaml:"ai"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DocumentsConfig holds the corpus layout and chunking parameters.
// Documents live under {root}/{lang}/, index artifacts under {index_root}/{lang}/.
type DocumentsConfig struct {
	Root         string   `yaml:"root"`
	IndexRoot    string   `yaml:"index_root"`
	Watch        bool     `yaml:"watch"`
	Extensions   []string `yaml:"extensions"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
}

// EmbeddingConfig holds embedder settings. Provider selects the implementation:
// "openai" (remote API), "onnx" (local model, build tag onnx), or "hash"
// (deterministic offline embedder, for development and tests).
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
	ModelPath  string `yaml:"model_path"`
	MaxTokens  int    `yaml:"max_tokens"`
}

// RetrievalConfig holds similarity-search and MMR defaults. Per-request values
// in ChatRequest override these.
type RetrievalConfig struct {
	DefaultK         int     `yaml:"default_k"`
	MaxK             int     `yaml:"max_k"`
	UseMMR           *bool   `yaml:"use_mmr"`
	FetchK           int     `yaml:"fetch_k"`
	MMRLambda        float64 `yaml:"mmr_lambda"`
	MinScore         float64 `yaml:"min_score"`
	MaxCharsPerChunk int     `yaml:"max_chars_per_chunk"`
}

// UseMMROrDefault returns whether MMR re-ranking is enabled; defaults to true when unset.
func (r *RetrievalConfig) UseMMROrDefault() bool {
	if r.UseMMR != nil {
		return *r.UseMMR
	}
	return true
}

// ChatConfig holds conversation and streaming settings.
type ChatConfig struct {
	HistoryTurns      int      `yaml:"history_turns"`
	HistoryTTLMinutes int      `yaml:"history_ttl_minutes"`
	IncludeCitations  *bool    `yaml:"include_citations"`
	Languages         []string `yaml:"languages"`
	DefaultLanguage   string   `yaml:"default_language"`
}

// IncludeCitationsOrDefault returns whether sources events are emitted; defaults to true.
func (c *ChatConfig) IncludeCitationsOrDefault() bool {
	if c.IncludeCitations != nil {
		return *c.IncludeCitations
	}
	return true
}

// AIConfig selects the answer generator.
type AIConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// AnalyticsConfig holds the optional chat-event/feedback store settings.
type AnalyticsConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// Load reads and parses the config file at path, applies defaults, and expands paths.
// Returns an error if the file cannot be read or parsed, or if the resulting
// configuration is invalid.
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

	configDir := filepath.Dir(path)
	cfg.Documents.Root = expandPath(cfg.Documents.Root, configDir)
	cfg.Documents.IndexRoot = expandPath(cfg.Documents.IndexRoot, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Analytics.DatabasePath = expandPath(cfg.Analytics.DatabasePath, configDir)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that would corrupt the pipeline at runtime.
func Validate(cfg *Config) error {
	if cfg.Documents.ChunkOverlap < 0 || cfg.Documents.ChunkOverlap >= cfg.Documents.ChunkSize {
		return fmt.Errorf("chunk_overlap must satisfy 0 <= overlap < chunk_size (got %d/%d)",
			cfg.Documents.ChunkOverlap, cfg.Documents.ChunkSize)
	}
	if cfg.Retrieval.MMRLambda < 0 || cfg.Retrieval.MMRLambda > 1 {
		return fmt.Errorf("mmr_lambda must be in [0,1] (got %g)", cfg.Retrieval.MMRLambda)
	}
	if cfg.Retrieval.DefaultK > cfg.Retrieval.MaxK {
		return fmt.Errorf("default_k %d exceeds max_k %d", cfg.Retrieval.DefaultK, cfg.Retrieval.MaxK)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to
// configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
