package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Defaults.
const (
	// DefaultModel is a code-optimized embedding model.
	DefaultModel = "jina-embeddings-v2-base-code"

	// DefaultDimension matches DefaultModel's output.
	DefaultDimension = 768

	// DefaultChunkSize is the fallback window length in bytes (~512 tokens).
	DefaultChunkSize = 2000

	// DefaultChunkOverlap is the fallback window overlap in bytes.
	DefaultChunkOverlap = 200

	// DefaultMaxFileSize is the largest file the scanner will admit (1 MiB).
	DefaultMaxFileSize = 1 << 20

	// DefaultBatchSize is the embedding dispatch batch size.
	DefaultBatchSize = 50

	// DefaultBatchTimeoutSeconds bounds one embedding batch call.
	DefaultBatchTimeoutSeconds = 30

	// DefaultResultLimit is the top-K for queries.
	DefaultResultLimit = 10

	// DefaultContextLines is the display context around a result.
	DefaultContextLines = 2

	DefaultProvider = "ollama"
	DefaultStore    = "chromem"
)

// Config is the per-workspace configuration persisted in
// .qsearch/config.json. A change to Model or Dimension invalidates every
// stored vector and forces a full reindex.
type Config struct {
	// Model is the embedding model name passed to the provider.
	Model string `json:"model"`

	// Provider selects the embedding capability: "ollama" or "openai".
	Provider string `json:"provider"`

	// Dimension is the expected embedding vector width.
	Dimension int `json:"dimension"`

	// ChunkSize is the fallback window length in bytes.
	ChunkSize int `json:"chunk_size"`

	// ChunkOverlap is the fallback window overlap in bytes.
	ChunkOverlap int `json:"chunk_overlap"`

	// MaxFileSize excludes larger files from scanning (bytes).
	MaxFileSize int64 `json:"max_file_size"`

	// IncludeExtensions, when non-empty, is an allowlist (without dots).
	IncludeExtensions []string `json:"include_extensions"`

	// ExcludeExtensions always wins over includes.
	ExcludeExtensions []string `json:"exclude_extensions"`

	// IgnorePatterns are extra glob patterns applied on top of .gitignore.
	IgnorePatterns []string `json:"ignore_patterns"`

	// Store selects the vector store backend: "chromem" or "sqlite".
	Store string `json:"store"`

	// BatchSize caps how many chunk texts go into one embedding call.
	BatchSize int `json:"batch_size"`

	// BatchTimeoutSeconds bounds one embedding batch call.
	BatchTimeoutSeconds int `json:"batch_timeout_seconds"`

	// Workers bounds indexing parallelism; 0 means NumCPU.
	Workers int `json:"workers,omitempty"`
}

// Default returns a config populated with defaults.
func Default() *Config {
	return &Config{
		Model:               DefaultModel,
		Provider:            DefaultProvider,
		Dimension:           DefaultDimension,
		ChunkSize:           DefaultChunkSize,
		ChunkOverlap:        DefaultChunkOverlap,
		MaxFileSize:         DefaultMaxFileSize,
		Store:               DefaultStore,
		BatchSize:           DefaultBatchSize,
		BatchTimeoutSeconds: DefaultBatchTimeoutSeconds,
	}
}

// Load reads the config file at path. A missing file yields defaults, so a
// freshly initialized workspace works without edits.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as pretty-printed JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyDefaults fills zero values left out of a hand-edited file.
func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Dimension == 0 {
		c.Dimension = DefaultDimension
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = DefaultChunkOverlap
	}
	if c.MaxFileSize == 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.Store == "" {
		c.Store = DefaultStore
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchTimeoutSeconds == 0 {
		c.BatchTimeoutSeconds = DefaultBatchTimeoutSeconds
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", c.Dimension)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", c.ChunkOverlap)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive, got %d", c.MaxFileSize)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	return nil
}
