package retriever

import (
	"math"
	"sort"

	"vendorrag/internal/adapter/memstore"
	"vendorrag/internal/domain"
)

const (
	DefaultLimit         = 3
	DefaultMinSimilarity = 0.1
)

// RankOptions controls thresholding and truncation. A zero MinSimilarity
// selects DefaultMinSimilarity and a negative one disables the threshold.
// A non-positive Limit selects DefaultLimit.
type RankOptions struct {
	MinSimilarity float64
	Limit         int
}

func (o RankOptions) threshold() float64 {
	switch {
	case o.MinSimilarity < 0:
		return math.Inf(-1)
	case o.MinSimilarity == 0:
		return DefaultMinSimilarity
	default:
		return o.MinSimilarity
	}
}

func (o RankOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultLimit
	}
	return o.Limit
}

// SimilarityRanker scores every embedded chunk of a vendor index against a
// query vector by brute-force cosine similarity and collapses the hits to
// one result per document.
type SimilarityRanker struct{}

func NewSimilarityRanker() *SimilarityRanker {
	return &SimilarityRanker{}
}

type documentHits struct {
	result domain.DocumentResult
	seq    uint64
}

// Rank returns at most opts.Limit documents ordered by their best chunk
// score. Equal scores keep document insertion order. Every stored vector must
// have the query's dimension.
func (r *SimilarityRanker) Rank(query domain.Vector, idx *memstore.VendorIndex, opts RankOptions) ([]domain.DocumentResult, error) {
	if idx == nil || idx.EmbeddingCount() == 0 {
		return []domain.DocumentResult{}, nil
	}

	threshold := opts.threshold()
	byDoc := make(map[string]*documentHits)
	var ordered []*documentHits

	for _, ic := range idx.EmbeddedChunks() {
		if ic.Embedding.Dim() != query.Dim() {
			return nil, &domain.DimensionMismatchError{
				Expected: query.Dim(),
				Got:      ic.Embedding.Dim(),
				ChunkID:  ic.Chunk.ID,
			}
		}

		score, err := query.Cosine(ic.Embedding)
		if err != nil {
			return nil, err
		}
		if score < threshold {
			continue
		}

		docID := ic.Chunk.DocumentID
		hits, ok := byDoc[docID]
		if !ok {
			hits = newDocumentHits(idx, ic.Chunk)
			byDoc[docID] = hits
			ordered = append(ordered, hits)
		}

		hits.result.MatchingChunks = append(hits.result.MatchingChunks, domain.ChunkHit{
			ChunkID:     ic.Chunk.ID,
			Ordinal:     ic.Chunk.Ordinal,
			Content:     ic.Chunk.Content,
			Score:       score,
			StartOffset: ic.Chunk.Metadata.StartOffset,
			EndOffset:   ic.Chunk.Metadata.EndOffset,
		})
		if len(hits.result.MatchingChunks) == 1 || score > hits.result.RelevanceScore {
			hits.result.RelevanceScore = score
			hits.result.BestChunkContent = ic.Chunk.Content
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].result.RelevanceScore != ordered[j].result.RelevanceScore {
			return ordered[i].result.RelevanceScore > ordered[j].result.RelevanceScore
		}
		return ordered[i].seq < ordered[j].seq
	})

	limit := opts.limit()
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}

	results := make([]domain.DocumentResult, len(ordered))
	for i, hits := range ordered {
		chunks := hits.result.MatchingChunks
		sort.SliceStable(chunks, func(a, b int) bool {
			if chunks[a].Score != chunks[b].Score {
				return chunks[a].Score > chunks[b].Score
			}
			return chunks[a].Ordinal < chunks[b].Ordinal
		})
		results[i] = hits.result
	}

	return results, nil
}

func newDocumentHits(idx *memstore.VendorIndex, c domain.Chunk) *documentHits {
	hits := &documentHits{
		result: domain.DocumentResult{
			DocumentID: c.DocumentID,
			Title:      c.DocumentTitle,
			Type:       c.Metadata.Type,
			Category:   c.Metadata.Category,
		},
	}
	if p, ok := idx.Document(c.DocumentID); ok {
		hits.result.Title = p.Title
		hits.result.Type = p.Type
		hits.result.Category = p.Category
		hits.result.Content = p.Content
		hits.seq = p.Seq()
	}
	return hits
}
