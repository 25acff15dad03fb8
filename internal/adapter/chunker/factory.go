package chunker

import (
	"fmt"

	"vendorrag/config"
	"vendorrag/internal/port"
)

// NewFromConfig creates the chunker selected by cfg.Chunker. The window
// chunker is the only one that uses the overlap setting.
func NewFromConfig(cfg config.IndexConfig) (port.Chunker, error) {
	switch cfg.Chunker {
	case "sentence", "":
		return NewSentenceChunker(cfg.ChunkSize), nil
	case "window":
		return NewWindowChunker(cfg.ChunkSize, cfg.ChunkOverlap), nil
	default:
		return nil, fmt.Errorf("unsupported chunker: %s", cfg.Chunker)
	}
}
