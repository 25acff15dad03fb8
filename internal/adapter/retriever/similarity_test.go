package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vendorrag/internal/adapter/memstore"
	"vendorrag/internal/domain"
)

func buildIndex(t *testing.T, docs map[string][]domain.Vector, order ...string) *memstore.VendorIndex {
	t.Helper()
	idx := memstore.NewVendorIndex("vendor-1")
	for _, id := range order {
		doc := domain.Document{ID: id, VendorID: "vendor-1", Title: "T-" + id, Content: "full " + id, Type: "faq"}
		for i, v := range docs[id] {
			doc.Chunks = append(doc.Chunks, domain.Chunk{Content: id + "-chunk", Ordinal: i, Embedding: v})
		}
		require.NoError(t, idx.AddDocument(doc))
	}
	return idx
}

func TestRankDeduplicatesByDocument(t *testing.T) {
	idx := buildIndex(t, map[string][]domain.Vector{
		"doc-a": {{1, 0.2}, {1, 0}, {1, 0.5}},
		"doc-b": {{0, 1}},
	}, "doc-a", "doc-b")

	results, err := NewSimilarityRanker().Rank(domain.Vector{1, 0}, idx, RankOptions{Limit: 5})
	require.NoError(t, err)

	require.Len(t, results, 1)
	got := results[0]
	assert.Equal(t, "doc-a", got.DocumentID)
	assert.Equal(t, "T-doc-a", got.Title)
	assert.Equal(t, "full doc-a", got.Content)
	assert.Equal(t, "faq", got.Type)
	require.Len(t, got.MatchingChunks, 3)

	maxScore := 0.0
	for _, c := range got.MatchingChunks {
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}
	assert.InDelta(t, maxScore, got.RelevanceScore, 1e-9)
	assert.InDelta(t, 1.0, got.RelevanceScore, 1e-6)
	assert.Equal(t, "doc-a_1", got.MatchingChunks[0].ChunkID)
	assert.GreaterOrEqual(t, got.MatchingChunks[1].Score, got.MatchingChunks[2].Score)
}

func TestRankSortsAndTruncates(t *testing.T) {
	idx := buildIndex(t, map[string][]domain.Vector{
		"doc-a": {{1, 1}},
		"doc-b": {{1, 0}},
		"doc-c": {{1, 0.5}},
		"doc-d": {{0.9, 0.1}},
	}, "doc-a", "doc-b", "doc-c", "doc-d")

	results, err := NewSimilarityRanker().Rank(domain.Vector{1, 0}, idx, RankOptions{})
	require.NoError(t, err)

	require.Len(t, results, DefaultLimit)
	assert.Equal(t, "doc-b", results[0].DocumentID)
	assert.Equal(t, "doc-d", results[1].DocumentID)
	assert.Equal(t, "doc-c", results[2].DocumentID)
}

func TestRankTieBreakIsInsertionOrder(t *testing.T) {
	idx := buildIndex(t, map[string][]domain.Vector{
		"doc-z": {{1, 0}},
		"doc-a": {{1, 0}},
		"doc-m": {{1, 0}},
	}, "doc-z", "doc-a", "doc-m")

	for i := 0; i < 5; i++ {
		results, err := NewSimilarityRanker().Rank(domain.Vector{2, 0}, idx, RankOptions{Limit: 3})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "doc-z", results[0].DocumentID)
		assert.Equal(t, "doc-a", results[1].DocumentID)
		assert.Equal(t, "doc-m", results[2].DocumentID)
	}
}

func TestRankThreshold(t *testing.T) {
	idx := buildIndex(t, map[string][]domain.Vector{
		"doc-a": {{1, 0}},
		"doc-b": {{0.05, 1}},
		"doc-c": {{-1, 0}},
	}, "doc-a", "doc-b", "doc-c")
	ranker := NewSimilarityRanker()

	results, err := ranker.Rank(domain.Vector{1, 0}, idx, RankOptions{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = ranker.Rank(domain.Vector{1, 0}, idx, RankOptions{Limit: 10, MinSimilarity: 0.01})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = ranker.Rank(domain.Vector{1, 0}, idx, RankOptions{Limit: 10, MinSimilarity: -1})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestRankDimensionMismatch(t *testing.T) {
	idx := buildIndex(t, map[string][]domain.Vector{
		"doc-a": {{1, 0, 0}},
	}, "doc-a")

	_, err := NewSimilarityRanker().Rank(domain.Vector{1, 0}, idx, RankOptions{})

	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	var dm *domain.DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 3, dm.Got)
	assert.Equal(t, "doc-a_0", dm.ChunkID)
}

func TestRankZeroNormScoresZero(t *testing.T) {
	idx := buildIndex(t, map[string][]domain.Vector{
		"doc-a": {{0, 0}},
	}, "doc-a")

	results, err := NewSimilarityRanker().Rank(domain.Vector{1, 0}, idx, RankOptions{MinSimilarity: -1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Zero(t, results[0].RelevanceScore)

	results, err = NewSimilarityRanker().Rank(domain.Vector{0, 0}, idx, RankOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRankEmptyIndex(t *testing.T) {
	results, err := NewSimilarityRanker().Rank(domain.Vector{1}, memstore.NewVendorIndex("v"), RankOptions{})

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
}
