package usecase

import (
	"time"

	"vendorrag/internal/domain"
)

// DefaultReindexTolerance absorbs clock skew between the write that sets
// LastIndexed and the store's own UpdatedAt bookkeeping.
const DefaultReindexTolerance = 500 * time.Millisecond

// ReindexDecider decides whether a persisted document's chunks can be used
// as-is. It only inspects metadata and vector presence.
type ReindexDecider struct {
	tolerance time.Duration
}

func NewReindexDecider(tolerance time.Duration) ReindexDecider {
	if tolerance <= 0 {
		tolerance = DefaultReindexTolerance
	}
	return ReindexDecider{tolerance: tolerance}
}

// NeedsReindex reports whether doc must be chunked and embedded again.
func (d ReindexDecider) NeedsReindex(doc domain.Document) bool {
	if len(doc.Chunks) == 0 {
		return true
	}
	for _, c := range doc.Chunks {
		if c.Embedding.IsEmpty() {
			return true
		}
	}
	if doc.LastIndexed != nil && !doc.UpdatedAt.IsZero() {
		return doc.UpdatedAt.Sub(*doc.LastIndexed) > d.tolerance
	}
	return false
}
