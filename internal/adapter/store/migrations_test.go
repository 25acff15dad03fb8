package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vendorrag/config"
	"vendorrag/internal/domain"
)

func TestCheckMigrationFreshStore(t *testing.T) {
	st, err := NewBoltStore(filepath.Join(t.TempDir(), "documents.db"))
	require.NoError(t, err)
	defer st.Close()

	cfg := config.DefaultConfig()
	result, err := st.CheckMigration(cfg)
	require.NoError(t, err)
	assert.True(t, result.NeedsMigration)
	assert.False(t, result.NeedsReindex)

	require.NoError(t, st.Migrate(cfg))

	result, err = st.CheckMigration(cfg)
	require.NoError(t, err)
	assert.False(t, result.NeedsMigration)
	assert.False(t, result.NeedsReindex)
}

func TestCheckMigrationModelChange(t *testing.T) {
	st, err := NewBoltStore(filepath.Join(t.TempDir(), "documents.db"))
	require.NoError(t, err)
	defer st.Close()

	cfg := config.DefaultConfig()
	require.NoError(t, st.Migrate(cfg))

	cfg.Embedding.Dimension = 512
	result, err := st.CheckMigration(cfg)
	require.NoError(t, err)
	assert.True(t, result.NeedsReindex)
	assert.NotEmpty(t, result.Reason)
}

func TestComputeFingerprint(t *testing.T) {
	a := config.DefaultConfig()
	b := config.DefaultConfig()
	assert.Equal(t, ComputeFingerprint(a), ComputeFingerprint(b))

	// overlap only matters for the window chunker
	b.Index.ChunkOverlap = 50
	assert.Equal(t, ComputeFingerprint(a), ComputeFingerprint(b))

	b.Index.Chunker = "window"
	assert.NotEqual(t, ComputeFingerprint(a), ComputeFingerprint(b))
}

func TestClearIndexData(t *testing.T) {
	st, err := NewBoltStore(filepath.Join(t.TempDir(), "documents.db"))
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, domain.Document{ID: "doc-a", VendorID: "v", IsActive: true}))
	require.NoError(t, st.Put(ctx, domain.Document{ID: "doc-b", VendorID: "v", IsActive: true}))
	_, err = st.Update(ctx, "doc-a", domain.DocumentUpdate{
		Chunks:      []domain.Chunk{{ID: "doc-a_0", Embedding: domain.Vector{1}}},
		LastIndexed: time.Now(),
	})
	require.NoError(t, err)

	cleared, err := st.ClearIndexData(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	doc, err := st.Get(ctx, "doc-a")
	require.NoError(t, err)
	assert.Empty(t, doc.Chunks)
	assert.Nil(t, doc.LastIndexed)
}
