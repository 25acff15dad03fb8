package port

import (
	"context"

	"vendorrag/internal/domain"
)

// DocumentStore is the authoritative store of vendor documents. The index
// never creates or deletes documents; it only reads them and writes back
// chunk, embedding and timestamp fields.
type DocumentStore interface {
	// FindAll returns documents matching the filter, ordered by id.
	FindAll(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)

	// Update writes the index-owned fields of a document and returns the
	// updated document, or nil if no document has that id.
	Update(ctx context.Context, id string, update domain.DocumentUpdate) (*domain.Document, error)
}

// DocumentRepository adds the writes used when documents are imported from
// outside the storefront.
type DocumentRepository interface {
	DocumentStore

	// Put creates or replaces a document.
	Put(ctx context.Context, doc domain.Document) error
}
