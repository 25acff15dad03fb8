package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the vendor index.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IndexConfig holds chunking and index lifecycle configuration.
type IndexConfig struct {
	Chunker string `yaml:"chunker"` // "sentence" or "window"

	// ChunkSize bounds each chunk: in bytes for the sentence chunker, in
	// runes for the window chunker. The two differ on non-ASCII text.
	ChunkSize        int           `yaml:"chunk_size"`
	ChunkOverlap     int           `yaml:"chunk_overlap"` // window chunker only
	ReindexTolerance time.Duration `yaml:"reindex_tolerance"`
	EmbedConcurrency int           `yaml:"embed_concurrency"`
	MaxVendors       int           `yaml:"max_vendors"` // 0 keeps every vendor index loaded
	Includes         []string      `yaml:"includes"`
	Excludes         []string      `yaml:"excludes"`
}

// RetrieveConfig holds search defaults.
type RetrieveConfig struct {
	Limit         int     `yaml:"limit"`
	MinSimilarity float64 `yaml:"min_similarity"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // "openai", "ollama", "hash"
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	BaseURL        string `yaml:"base_url"`
	Dimension      int    `yaml:"dimension"`
	QueryCacheSize int    `yaml:"query_cache_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Chunker:          "sentence",
			ChunkSize:        1000,
			ChunkOverlap:     0,
			ReindexTolerance: 500 * time.Millisecond,
			EmbedConcurrency: 4,
			MaxVendors:       0,
			Includes:         []string{"**/*.md", "**/*.txt"},
			Excludes:         []string{"**/.git/**", "**/node_modules/**", "**/.vendorrag/**"},
		},
		Retrieve: RetrieveConfig{
			Limit:         3,
			MinSimilarity: 0.1,
		},
		Embedding: EmbeddingConfig{
			Provider:       "hash",
			Model:          "text-embedding-3-small",
			APIKeyEnv:      "OPENAI_API_KEY",
			Dimension:      256,
			QueryCacheSize: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for vendorrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "vendorrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".vendorrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StoreDBPath returns the path to the document store database.
func StoreDBPath(dir string) string {
	return filepath.Join(dir, ".vendorrag", "documents.db")
}

// EnsureDataDir ensures the .vendorrag directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".vendorrag"), 0755)
}
