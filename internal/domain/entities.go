package domain

import (
	"strconv"
	"time"
)

// Document is a vendor-owned document as persisted by the document store.
// The index only ever holds a projection of it.
type Document struct {
	ID          string            `json:"id"`
	VendorID    string            `json:"vendor_id"`
	Title       string            `json:"title"`
	Type        string            `json:"type,omitempty"`
	Category    string            `json:"category,omitempty"`
	Content     string            `json:"content"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Chunks      []Chunk           `json:"chunks,omitempty"`
	LastIndexed *time.Time        `json:"last_indexed,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
	IsActive    bool              `json:"is_active"`
}

// Chunk is a bounded piece of a document's content, embedded on its own.
type Chunk struct {
	ID            string        `json:"id"`
	Content       string        `json:"content"`
	Embedding     Vector        `json:"embedding,omitempty"`
	DocumentID    string        `json:"document_id"`
	DocumentTitle string        `json:"document_title"`
	Ordinal       int           `json:"ordinal"`
	Metadata      ChunkMetadata `json:"metadata"`
}

type ChunkMetadata struct {
	Type        string `json:"type,omitempty"`
	Category    string `json:"category,omitempty"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// ChunkID returns the deterministic id of the ordinal-th chunk of a document.
// Rebuilding the same document reuses the same ids.
func ChunkID(documentID string, ordinal int) string {
	return documentID + "_" + strconv.Itoa(ordinal)
}

// Segment is a chunker output before it is attached to a document.
type Segment struct {
	Content     string
	Ordinal     int
	StartOffset int
	EndOffset   int
}

// DocumentFilter selects documents from the store. Zero fields do not filter.
type DocumentFilter struct {
	IsActive *bool
	VendorID string
}

// DocumentUpdate carries the index-owned fields written back to the store.
type DocumentUpdate struct {
	Chunks      []Chunk
	LastIndexed time.Time
}

// ChunkHit is a single chunk that matched a query.
type ChunkHit struct {
	ChunkID     string  `json:"chunk_id"`
	Ordinal     int     `json:"ordinal"`
	Content     string  `json:"content"`
	Score       float64 `json:"score"`
	StartOffset int     `json:"start_offset"`
	EndOffset   int     `json:"end_offset"`
}

// DocumentResult is one search hit, collapsed to its owning document.
type DocumentResult struct {
	DocumentID       string     `json:"document_id"`
	Title            string     `json:"title"`
	Type             string     `json:"type,omitempty"`
	Category         string     `json:"category,omitempty"`
	Content          string     `json:"content"`
	BestChunkContent string     `json:"best_chunk_content"`
	RelevanceScore   float64    `json:"relevance_score"`
	MatchingChunks   []ChunkHit `json:"matching_chunks"`
}

type RebuildResult struct {
	DocumentsIndexed   int `json:"documents_indexed"`
	ChunksIndexed      int `json:"chunks_indexed"`
	DocumentsReindexed int `json:"documents_reindexed"`
}

// IndexStats summarizes a vendor index. The zero value describes a vendor
// that has never been loaded.
type IndexStats struct {
	TotalDocuments int       `json:"total_documents"`
	IndexedChunks  int       `json:"indexed_chunks"`
	MemoryUsage    int64     `json:"memory_usage"`
	LastUpdate     time.Time `json:"last_update"`
	IsLoaded       bool      `json:"is_loaded"`
}

// Clone returns a deep copy of the document, including chunk embeddings.
func (d Document) Clone() Document {
	out := d
	if d.Metadata != nil {
		out.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	if d.Chunks != nil {
		out.Chunks = make([]Chunk, len(d.Chunks))
		for i, c := range d.Chunks {
			if c.Embedding != nil {
				c.Embedding = append(Vector(nil), c.Embedding...)
			}
			out.Chunks[i] = c
		}
	}
	if d.LastIndexed != nil {
		t := *d.LastIndexed
		out.LastIndexed = &t
	}
	return out
}
