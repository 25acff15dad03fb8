package memstore

import (
	"fmt"
	"sort"
	"time"

	"vendorrag/internal/domain"
)

// DocumentProjection is the index's read-only view of a stored document.
type DocumentProjection struct {
	ID          string
	Title       string
	Type        string
	Category    string
	Content     string
	Metadata    map[string]string
	Chunks      []domain.Chunk
	LastIndexed *time.Time

	seq uint64
}

// Seq is the insertion order of the document within its index.
func (p *DocumentProjection) Seq() uint64 {
	return p.seq
}

// IndexedChunk is a chunk that carries an embedding, with its insertion order.
type IndexedChunk struct {
	Chunk     domain.Chunk
	Embedding domain.Vector
	Seq       uint64
}

type storedChunk struct {
	chunk domain.Chunk
	seq   uint64
}

// VendorIndex is the in-memory index of one vendor's chunks and embeddings.
//
// A VendorIndex is built privately and then published; once published it is
// never mutated again. Updates go through Clone and a new publish. Methods are
// therefore not synchronized.
type VendorIndex struct {
	vendorID    string
	chunks      map[string]storedChunk
	embeddings  map[string]domain.Vector
	documents   map[string]*DocumentProjection
	dimension   int
	nextSeq     uint64
	loaded      bool
	lastUpdated time.Time
}

func NewVendorIndex(vendorID string) *VendorIndex {
	return &VendorIndex{
		vendorID:   vendorID,
		chunks:     make(map[string]storedChunk),
		embeddings: make(map[string]domain.Vector),
		documents:  make(map[string]*DocumentProjection),
	}
}

// AddDocument installs doc's chunk set, replacing any chunks previously
// stored for the same document id. Validation happens before any map is
// touched, so on error the index is unchanged.
func (idx *VendorIndex) AddDocument(doc domain.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	ordered := make([]domain.Chunk, len(doc.Chunks))
	copy(ordered, doc.Chunks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Ordinal < ordered[j].Ordinal
	})

	// A replaced document does not constrain its own replacement.
	dimension := idx.dimension
	if existing, ok := idx.documents[doc.ID]; ok && idx.ownsAllEmbeddings(existing) {
		dimension = 0
	}
	stagedChunks := make(map[string]domain.Chunk, len(ordered))
	stagedEmbeddings := make(map[string]domain.Vector, len(ordered))
	for i := range ordered {
		c := ordered[i]
		c.ID = domain.ChunkID(doc.ID, i)
		c.Ordinal = i
		c.DocumentID = doc.ID
		c.DocumentTitle = doc.Title

		if !c.Embedding.IsEmpty() {
			if dimension == 0 {
				dimension = c.Embedding.Dim()
			} else if c.Embedding.Dim() != dimension {
				return &domain.DimensionMismatchError{Expected: dimension, Got: c.Embedding.Dim(), ChunkID: c.ID}
			}
			stagedEmbeddings[c.ID] = c.Embedding
		}
		stagedChunks[c.ID] = c
		ordered[i] = c
	}

	seq := idx.nextSeq
	if existing, ok := idx.documents[doc.ID]; ok {
		seq = existing.seq
		for _, c := range existing.Chunks {
			delete(idx.chunks, c.ID)
			delete(idx.embeddings, c.ID)
		}
	} else {
		idx.nextSeq++
	}

	for _, c := range ordered {
		idx.chunks[c.ID] = storedChunk{chunk: c, seq: idx.nextSeq}
		idx.nextSeq++
		if vec, ok := stagedEmbeddings[c.ID]; ok {
			idx.embeddings[c.ID] = vec
		}
	}
	idx.dimension = dimension

	var lastIndexed *time.Time
	if doc.LastIndexed != nil {
		t := *doc.LastIndexed
		lastIndexed = &t
	}
	idx.documents[doc.ID] = &DocumentProjection{
		ID:          doc.ID,
		Title:       doc.Title,
		Type:        doc.Type,
		Category:    doc.Category,
		Content:     doc.Content,
		Metadata:    doc.Metadata,
		Chunks:      ordered,
		LastIndexed: lastIndexed,
		seq:         seq,
	}

	return nil
}

func (idx *VendorIndex) ownsAllEmbeddings(doc *DocumentProjection) bool {
	owned := 0
	for _, c := range doc.Chunks {
		if _, ok := idx.embeddings[c.ID]; ok {
			owned++
		}
	}
	return owned == len(idx.embeddings)
}

// RemoveDocument drops a document and all of its chunks. It reports whether
// the document was present.
func (idx *VendorIndex) RemoveDocument(id string) bool {
	existing, ok := idx.documents[id]
	if !ok {
		return false
	}
	for _, c := range existing.Chunks {
		delete(idx.chunks, c.ID)
		delete(idx.embeddings, c.ID)
	}
	delete(idx.documents, id)
	if len(idx.embeddings) == 0 {
		idx.dimension = 0
	}
	return true
}

// DocumentIDs returns the ids of every indexed document in insertion order.
func (idx *VendorIndex) DocumentIDs() []string {
	docs := make([]*DocumentProjection, 0, len(idx.documents))
	for _, p := range idx.documents {
		docs = append(docs, p)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].seq < docs[j].seq
	})

	ids := make([]string, len(docs))
	for i, p := range docs {
		ids[i] = p.ID
	}
	return ids
}

// Clone returns an unpublished copy that can be mutated without affecting idx.
func (idx *VendorIndex) Clone() *VendorIndex {
	out := &VendorIndex{
		vendorID:    idx.vendorID,
		chunks:      make(map[string]storedChunk, len(idx.chunks)),
		embeddings:  make(map[string]domain.Vector, len(idx.embeddings)),
		documents:   make(map[string]*DocumentProjection, len(idx.documents)),
		dimension:   idx.dimension,
		nextSeq:     idx.nextSeq,
		lastUpdated: idx.lastUpdated,
	}
	for k, v := range idx.chunks {
		out.chunks[k] = v
	}
	for k, v := range idx.embeddings {
		out.embeddings[k] = v
	}
	for k, v := range idx.documents {
		out.documents[k] = v
	}
	return out
}

// MarkLoaded flags the index as fully built at the given time.
func (idx *VendorIndex) MarkLoaded(at time.Time) {
	idx.loaded = true
	idx.lastUpdated = at
}

func (idx *VendorIndex) VendorID() string {
	return idx.vendorID
}

func (idx *VendorIndex) Loaded() bool {
	return idx.loaded
}

func (idx *VendorIndex) LastUpdated() time.Time {
	return idx.lastUpdated
}

// Dimension is the embedding dimension shared by every stored vector, or 0
// when the index holds no embeddings yet.
func (idx *VendorIndex) Dimension() int {
	return idx.dimension
}

func (idx *VendorIndex) ChunkCount() int {
	return len(idx.chunks)
}

func (idx *VendorIndex) EmbeddingCount() int {
	return len(idx.embeddings)
}

func (idx *VendorIndex) DocumentCount() int {
	return len(idx.documents)
}

func (idx *VendorIndex) Document(id string) (*DocumentProjection, bool) {
	p, ok := idx.documents[id]
	return p, ok
}

func (idx *VendorIndex) Chunk(id string) (domain.Chunk, bool) {
	c, ok := idx.chunks[id]
	return c.chunk, ok
}

// ChunkIDs returns every stored chunk id in insertion order.
func (idx *VendorIndex) ChunkIDs() []string {
	stored := make([]storedChunk, 0, len(idx.chunks))
	for _, c := range idx.chunks {
		stored = append(stored, c)
	}
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].seq < stored[j].seq
	})

	ids := make([]string, len(stored))
	for i, c := range stored {
		ids[i] = c.chunk.ID
	}
	return ids
}

// EmbeddedChunks returns the chunks that carry an embedding, in insertion order.
func (idx *VendorIndex) EmbeddedChunks() []IndexedChunk {
	out := make([]IndexedChunk, 0, len(idx.embeddings))
	for id, vec := range idx.embeddings {
		c := idx.chunks[id]
		out = append(out, IndexedChunk{Chunk: c.chunk, Embedding: vec, Seq: c.seq})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Seq < out[j].Seq
	})
	return out
}

// MemoryUsage estimates the bytes held by the index.
func (idx *VendorIndex) MemoryUsage() int64 {
	const overhead = 64

	var total int64
	for id, c := range idx.chunks {
		total += int64(len(id) + len(c.chunk.Content) + overhead)
	}
	for _, vec := range idx.embeddings {
		total += int64(4 * len(vec))
	}
	for _, p := range idx.documents {
		total += int64(len(p.ID) + len(p.Title) + len(p.Content) + overhead)
	}
	return total
}

// Stats summarizes the index.
func (idx *VendorIndex) Stats() domain.IndexStats {
	return domain.IndexStats{
		TotalDocuments: idx.DocumentCount(),
		IndexedChunks:  idx.ChunkCount(),
		MemoryUsage:    idx.MemoryUsage(),
		LastUpdate:     idx.lastUpdated,
		IsLoaded:       idx.loaded,
	}
}
