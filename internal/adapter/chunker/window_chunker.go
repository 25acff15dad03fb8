package chunker

import (
	"strings"

	"vendorrag/internal/domain"
)

// WindowChunker cuts text into fixed-size rune windows, each starting
// overlap runes before the end of the previous one. It ignores sentence
// boundaries entirely.
type WindowChunker struct {
	size    int
	overlap int
}

func NewWindowChunker(size, overlap int) *WindowChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap > size-1 {
		overlap = size - 1
	}
	return &WindowChunker{size: size, overlap: overlap}
}

func (c *WindowChunker) Chunk(text string) []domain.Segment {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// offsets[i] is the byte offset of the i-th rune; the final entry is len(text).
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))
	runes := len(offsets) - 1

	var segments []domain.Segment
	step := c.size - c.overlap
	for start := 0; start < runes; start += step {
		end := start + c.size
		if end > runes {
			end = runes
		}

		content := text[offsets[start]:offsets[end]]
		if strings.TrimSpace(content) != "" {
			segments = append(segments, domain.Segment{
				Content:     content,
				Ordinal:     len(segments),
				StartOffset: offsets[start],
				EndOffset:   offsets[end],
			})
		}

		if end == runes {
			break
		}
	}

	return segments
}
