package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"vendorrag/internal/domain"
)

// DefaultChunkSize is the chunk size used when a non-positive size is configured.
const DefaultChunkSize = 1000

// SentenceChunker packs whole sentences into chunks of at most maxSize bytes.
// A sentence that alone exceeds maxSize becomes its own chunk.
type SentenceChunker struct {
	maxSize int
}

func NewSentenceChunker(maxSize int) *SentenceChunker {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}
	return &SentenceChunker{maxSize: maxSize}
}

func (c *SentenceChunker) Chunk(text string) []domain.Segment {
	var segments []domain.Segment
	start, end := -1, -1

	flush := func() {
		segments = append(segments, domain.Segment{
			Content:     text[start:end],
			Ordinal:     len(segments),
			StartOffset: start,
			EndOffset:   end,
		})
	}

	for _, s := range splitSentences(text) {
		if start < 0 {
			start, end = s.start, s.end
			continue
		}
		if s.end-start > c.maxSize {
			flush()
			start, end = s.start, s.end
			continue
		}
		end = s.end
	}
	if start >= 0 {
		flush()
	}

	return segments
}

type span struct {
	start int
	end   int
}

// splitSentences returns the byte spans of the sentences in text with
// surrounding whitespace excluded.
func splitSentences(text string) []span {
	var spans []span

	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}

		next := sentenceEnd(text, i)
		end := next
		for end > i {
			r, size := utf8.DecodeLastRuneInString(text[i:end])
			if !unicode.IsSpace(r) {
				break
			}
			end -= size
		}
		spans = append(spans, span{start: i, end: end})
		i = next
	}

	return spans
}

// sentenceEnd returns the offset just past the sentence starting at from.
// A sentence ends after a run of terminal punctuation (and closing quotes or
// brackets) that is followed by whitespace or the end of the text.
func sentenceEnd(text string, from int) int {
	j := from
	for j < len(text) {
		r, size := utf8.DecodeRuneInString(text[j:])
		j += size
		if !isTerminal(r) {
			continue
		}

		for j < len(text) {
			r, size := utf8.DecodeRuneInString(text[j:])
			if !isTerminal(r) && !isCloser(r) {
				break
			}
			j += size
		}
		if j == len(text) {
			return j
		}
		if r, _ := utf8.DecodeRuneInString(text[j:]); unicode.IsSpace(r) {
			return j
		}
	}
	return len(text)
}

func isTerminal(r rune) bool {
	return strings.ContainsRune(".!?…", r)
}

func isCloser(r rune) bool {
	return strings.ContainsRune(`"')]»”’`, r)
}
