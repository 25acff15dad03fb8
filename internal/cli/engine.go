package cli

import (
	"fmt"
	"os"

	"vendorrag/config"
	"vendorrag/internal/adapter/cache"
	"vendorrag/internal/adapter/chunker"
	"vendorrag/internal/adapter/embedding"
	"vendorrag/internal/adapter/store"
	"vendorrag/internal/usecase"
)

// openStore opens the document store under the data directory, creating it
// when create is set.
func openStore(create bool) (*store.BoltStore, error) {
	dir := GetRootDir()
	dbPath := config.StoreDBPath(dir)

	if create {
		if err := config.EnsureDataDir(dir); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	} else if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no document store found. Run 'vendorindex import' first")
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}
	return st, nil
}

// prepareSchema brings the store schema up to date. With strict set it
// refuses stores whose embeddings were produced under a different chunking or
// embedding configuration.
func prepareSchema(st *store.BoltStore, strict bool) error {
	result, err := st.CheckMigration(GetConfig())
	if err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}
	if result.NeedsReindex {
		if strict {
			return fmt.Errorf("%s. Run 'vendorindex rebuild' first", result.Reason)
		}
		return nil
	}
	if result.NeedsMigration {
		GetLogger().Info("migrating document store", "reason", result.Reason)
		if err := st.Migrate(GetConfig()); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// newIndexManager wires the manager from the loaded configuration.
func newIndexManager(st *store.BoltStore, onIndexed func(vendorID, documentID string)) (*usecase.IndexManager, error) {
	cfg := GetConfig()
	log := GetLogger()

	emb, err := embedding.NewFromConfig(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	chk, err := chunker.NewFromConfig(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}

	registry := usecase.NewIndexRegistry(cfg.Index.MaxVendors, func(vendorID string) {
		log.Debug("vendor index evicted", "vendor", vendorID)
	})

	return usecase.NewIndexManager(st, emb, chk, usecase.ManagerOptions{
		Registry:          registry,
		ReindexTolerance:  cfg.Index.ReindexTolerance,
		EmbedConcurrency:  cfg.Index.EmbedConcurrency,
		QueryEmbedder:     cache.NewCachedEmbedder(emb, cfg.Embedding.QueryCacheSize),
		Logger:            log,
		OnDocumentIndexed: onIndexed,
	}), nil
}
