package port

import (
	"context"

	"vendorrag/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed returns the embedding of a single text. Identical input must
	// produce identical output for a given model version.
	Embed(ctx context.Context, text string) (domain.Vector, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
