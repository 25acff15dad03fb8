package port

import "vendorrag/internal/domain"

// Chunker splits raw document content into ordered segments.
type Chunker interface {
	Chunk(text string) []domain.Segment
}
