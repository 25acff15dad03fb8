package memstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vendorrag/internal/domain"
)

func testDocument(id string, vectors ...domain.Vector) domain.Document {
	doc := domain.Document{
		ID:       id,
		VendorID: "vendor-1",
		Title:    "Title " + id,
		Type:     "policy",
		Category: "warranty",
		Content:  "content of " + id,
		IsActive: true,
	}
	for i, v := range vectors {
		doc.Chunks = append(doc.Chunks, domain.Chunk{
			Content:   "chunk",
			Ordinal:   i,
			Embedding: v,
		})
	}
	return doc
}

func TestVendorIndexAddDocument(t *testing.T) {
	idx := NewVendorIndex("vendor-1")

	require.NoError(t, idx.AddDocument(testDocument("doc-a", domain.Vector{1, 0}, domain.Vector{0, 1})))

	assert.Equal(t, 1, idx.DocumentCount())
	assert.Equal(t, 2, idx.ChunkCount())
	assert.Equal(t, 2, idx.EmbeddingCount())
	assert.Equal(t, 2, idx.Dimension())
	assert.Equal(t, []string{"doc-a_0", "doc-a_1"}, idx.ChunkIDs())

	c, ok := idx.Chunk("doc-a_1")
	require.True(t, ok)
	assert.Equal(t, "doc-a", c.DocumentID)
	assert.Equal(t, "Title doc-a", c.DocumentTitle)

	p, ok := idx.Document("doc-a")
	require.True(t, ok)
	assert.Equal(t, "policy", p.Type)
	assert.Equal(t, "warranty", p.Category)
	assert.Len(t, p.Chunks, 2)
}

func TestVendorIndexReAddRemovesOrphans(t *testing.T) {
	idx := NewVendorIndex("vendor-1")
	require.NoError(t, idx.AddDocument(testDocument("doc-a", domain.Vector{1, 0}, domain.Vector{0, 1}, domain.Vector{1, 1})))
	require.NoError(t, idx.AddDocument(testDocument("doc-b", domain.Vector{1, 0})))

	require.NoError(t, idx.AddDocument(testDocument("doc-a", domain.Vector{0, 1})))

	assert.Equal(t, 2, idx.DocumentCount())
	assert.Equal(t, 2, idx.ChunkCount())
	assert.Equal(t, 2, idx.EmbeddingCount())
	_, ok := idx.Chunk("doc-a_1")
	assert.False(t, ok)
	_, ok = idx.Chunk("doc-a_2")
	assert.False(t, ok)

	// a re-added document keeps its original position
	a, _ := idx.Document("doc-a")
	b, _ := idx.Document("doc-b")
	assert.Less(t, a.Seq(), b.Seq())
}

func TestVendorIndexEmbeddingOnlyWhenPresent(t *testing.T) {
	idx := NewVendorIndex("vendor-1")

	require.NoError(t, idx.AddDocument(testDocument("doc-a", domain.Vector{1, 0}, nil)))

	assert.Equal(t, 2, idx.ChunkCount())
	assert.Equal(t, 1, idx.EmbeddingCount())
	embedded := idx.EmbeddedChunks()
	require.Len(t, embedded, 1)
	assert.Equal(t, "doc-a_0", embedded[0].Chunk.ID)
}

func TestVendorIndexRejectsMixedDimensions(t *testing.T) {
	idx := NewVendorIndex("vendor-1")
	require.NoError(t, idx.AddDocument(testDocument("doc-a", domain.Vector{1, 0})))

	err := idx.AddDocument(testDocument("doc-b", domain.Vector{1, 0}, domain.Vector{1, 0, 0}))

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 1, idx.DocumentCount())
	assert.Equal(t, 1, idx.ChunkCount())
}

func TestVendorIndexReplacingSoleDocumentChangesDimension(t *testing.T) {
	idx := NewVendorIndex("vendor-1")
	require.NoError(t, idx.AddDocument(testDocument("doc-a", make(domain.Vector, 64))))
	require.Equal(t, 64, idx.Dimension())

	next := idx.Clone()
	require.NoError(t, next.AddDocument(testDocument("doc-a", domain.Vector{1, 0, 0}, domain.Vector{0, 1, 0})))
	assert.Equal(t, 3, next.Dimension())
	assert.Equal(t, 2, next.EmbeddingCount())
	assert.Equal(t, 64, idx.Dimension())

	err := next.AddDocument(testDocument("doc-b", domain.Vector{1, 0}))
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "expected 3, got 2")
	assert.NotContains(t, err.Error(), "query")
}

func TestVendorIndexReplacingOneOfManyKeepsDimension(t *testing.T) {
	idx := NewVendorIndex("vendor-1")
	require.NoError(t, idx.AddDocument(testDocument("doc-a", domain.Vector{1, 0})))
	require.NoError(t, idx.AddDocument(testDocument("doc-b", domain.Vector{0, 1})))

	err := idx.AddDocument(testDocument("doc-a", domain.Vector{1, 0, 0}))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 2, idx.Dimension())
	assert.Equal(t, 2, idx.EmbeddingCount())
}

func TestVendorIndexRejectsEmptyID(t *testing.T) {
	err := NewVendorIndex("vendor-1").AddDocument(domain.Document{})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVendorIndexOrdersChunksByOrdinal(t *testing.T) {
	idx := NewVendorIndex("vendor-1")
	doc := testDocument("doc-a")
	doc.Chunks = []domain.Chunk{
		{Content: "second", Ordinal: 1, Embedding: domain.Vector{0, 1}},
		{Content: "first", Ordinal: 0, Embedding: domain.Vector{1, 0}},
	}

	require.NoError(t, idx.AddDocument(doc))

	c, _ := idx.Chunk("doc-a_0")
	assert.Equal(t, "first", c.Content)
}

func TestVendorIndexClone(t *testing.T) {
	idx := NewVendorIndex("vendor-1")
	require.NoError(t, idx.AddDocument(testDocument("doc-a", domain.Vector{1, 0})))
	idx.MarkLoaded(time.Now())

	clone := idx.Clone()
	require.NoError(t, clone.AddDocument(testDocument("doc-b", domain.Vector{0, 1})))
	require.NoError(t, clone.AddDocument(testDocument("doc-a")))

	assert.Equal(t, 1, idx.DocumentCount())
	assert.Equal(t, 1, idx.EmbeddingCount())
	assert.True(t, idx.Loaded())
	assert.False(t, clone.Loaded())
	assert.Equal(t, 2, clone.DocumentCount())
	assert.Equal(t, 1, clone.EmbeddingCount())
}

func TestVendorIndexStats(t *testing.T) {
	idx := NewVendorIndex("vendor-1")
	require.NoError(t, idx.AddDocument(testDocument("doc-a", domain.Vector{1, 0})))
	now := time.Now()
	idx.MarkLoaded(now)

	stats := idx.Stats()

	assert.Equal(t, 1, stats.TotalDocuments)
	assert.Equal(t, 1, stats.IndexedChunks)
	assert.True(t, stats.IsLoaded)
	assert.Equal(t, now, stats.LastUpdate)
	assert.Positive(t, stats.MemoryUsage)
}

func TestVendorIndexRemoveDocument(t *testing.T) {
	idx := NewVendorIndex("vendor-1")
	require.NoError(t, idx.AddDocument(testDocument("doc-a", domain.Vector{1, 0})))
	require.NoError(t, idx.AddDocument(testDocument("doc-b", domain.Vector{0, 1}, domain.Vector{1, 1})))

	assert.True(t, idx.RemoveDocument("doc-b"))
	assert.False(t, idx.RemoveDocument("doc-b"))

	assert.Equal(t, []string{"doc-a"}, idx.DocumentIDs())
	assert.Equal(t, []string{"doc-a_0"}, idx.ChunkIDs())
	assert.Equal(t, 1, idx.EmbeddingCount())

	assert.True(t, idx.RemoveDocument("doc-a"))
	assert.Zero(t, idx.Dimension())
	require.NoError(t, idx.AddDocument(testDocument("doc-c", domain.Vector{1, 0, 0})))
	assert.Equal(t, 3, idx.Dimension())
}
