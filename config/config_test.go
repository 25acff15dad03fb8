package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Index.Chunker != "sentence" {
		t.Errorf("expected Chunker=sentence, got %s", cfg.Index.Chunker)
	}
	if cfg.Index.ReindexTolerance != 500*time.Millisecond {
		t.Errorf("expected ReindexTolerance=500ms, got %s", cfg.Index.ReindexTolerance)
	}
	if cfg.Retrieve.Limit != 3 {
		t.Errorf("expected Limit=3, got %d", cfg.Retrieve.Limit)
	}
	if cfg.Retrieve.MinSimilarity != 0.1 {
		t.Errorf("expected MinSimilarity=0.1, got %f", cfg.Retrieve.MinSimilarity)
	}
	if cfg.Index.MaxVendors != 0 {
		t.Errorf("expected unbounded vendors by default, got %d", cfg.Index.MaxVendors)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "vendorrag.yaml")

	content := `
index:
  chunk_size: 256
  reindex_tolerance: 2s
retrieve:
  limit: 5
embedding:
  provider: ollama
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Index.ChunkSize != 256 {
		t.Errorf("expected ChunkSize=256, got %d", cfg.Index.ChunkSize)
	}
	if cfg.Index.ReindexTolerance != 2*time.Second {
		t.Errorf("expected ReindexTolerance=2s, got %s", cfg.Index.ReindexTolerance)
	}
	if cfg.Retrieve.Limit != 5 {
		t.Errorf("expected Limit=5, got %d", cfg.Retrieve.Limit)
	}
	if cfg.Embedding.Provider != "ollama" {
		t.Errorf("expected Provider=ollama, got %s", cfg.Embedding.Provider)
	}
	// untouched fields keep their defaults
	if cfg.Retrieve.MinSimilarity != 0.1 {
		t.Errorf("expected MinSimilarity=0.1, got %f", cfg.Retrieve.MinSimilarity)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "vendorrag.yaml")
	if err := os.WriteFile(configPath, []byte("index: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := EnsureDataDir(tmpDir); err != nil {
		t.Fatal(err)
	}

	content := `
retrieve:
  min_similarity: 0.3
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".vendorrag", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Retrieve.MinSimilarity != 0.3 {
		t.Errorf("expected MinSimilarity=0.3, got %f", cfg.Retrieve.MinSimilarity)
	}
}

func TestSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "vendorrag.yaml")

	cfg := DefaultConfig()
	cfg.Index.ChunkSize = 300
	cfg.Logging.Format = "json"

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if loaded.Index.ChunkSize != 300 {
		t.Errorf("expected ChunkSize=300, got %d", loaded.Index.ChunkSize)
	}
	if loaded.Logging.Format != "json" {
		t.Errorf("expected Format=json, got %s", loaded.Logging.Format)
	}
}
