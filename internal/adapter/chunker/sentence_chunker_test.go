package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentenceChunkerEmptyInput(t *testing.T) {
	c := NewSentenceChunker(100)

	assert.Empty(t, c.Chunk(""))
	assert.Empty(t, c.Chunk("   \n\t  "))
}

func TestSentenceChunkerSingleChunk(t *testing.T) {
	c := NewSentenceChunker(100)
	text := "Ofrecemos garantía de 2 años para laptops y 1 año para accesorios."

	segments := c.Chunk(text)

	require.Len(t, segments, 1)
	assert.Equal(t, text, segments[0].Content)
	assert.Equal(t, 0, segments[0].Ordinal)
	assert.Equal(t, 0, segments[0].StartOffset)
	assert.Equal(t, len(text), segments[0].EndOffset)
}

func TestSentenceChunkerPacksGreedily(t *testing.T) {
	c := NewSentenceChunker(10)
	text := "One. Two. Three."

	segments := c.Chunk(text)

	require.Len(t, segments, 2)
	assert.Equal(t, "One. Two.", segments[0].Content)
	assert.Equal(t, 0, segments[0].StartOffset)
	assert.Equal(t, 9, segments[0].EndOffset)
	assert.Equal(t, "Three.", segments[1].Content)
	assert.Equal(t, 10, segments[1].StartOffset)
	assert.Equal(t, 16, segments[1].EndOffset)
	assert.Equal(t, 1, segments[1].Ordinal)
}

func TestSentenceChunkerOversizedSentence(t *testing.T) {
	c := NewSentenceChunker(20)
	long := "This sentence is much longer than twenty bytes and must survive intact."
	text := "Short one. " + long + " Tail."

	segments := c.Chunk(text)

	require.Len(t, segments, 3)
	assert.Equal(t, "Short one.", segments[0].Content)
	assert.Equal(t, long, segments[1].Content)
	assert.Equal(t, "Tail.", segments[2].Content)
}

func TestSentenceChunkerOffsetsMapToText(t *testing.T) {
	c := NewSentenceChunker(40)
	text := "  Hola!  ¿Tienen envío gratis? Sí, para pedidos grandes.\n\nEl precio es 2.5 dólares. Fin"

	segments := c.Chunk(text)

	require.NotEmpty(t, segments)
	for i, s := range segments {
		assert.Equal(t, i, s.Ordinal)
		assert.Equal(t, text[s.StartOffset:s.EndOffset], s.Content)
		assert.Equal(t, strings.TrimSpace(s.Content), s.Content)
		if i > 0 {
			assert.GreaterOrEqual(t, s.StartOffset, segments[i-1].EndOffset)
		}
	}
	assert.True(t, strings.HasSuffix(segments[len(segments)-1].Content, "Fin"))
}

func TestSentenceChunkerKeepsDecimals(t *testing.T) {
	spans := splitSentences("The price is 2.5 dollars. Ok.")

	require.Len(t, spans, 2)
}

func TestSentenceChunkerDeterministic(t *testing.T) {
	c := NewSentenceChunker(30)
	text := "First sentence here. Second sentence here! Third one? Fourth and final."

	assert.Equal(t, c.Chunk(text), c.Chunk(text))
}

func TestSentenceChunkerDefaultSize(t *testing.T) {
	c := NewSentenceChunker(0)

	assert.Equal(t, DefaultChunkSize, c.maxSize)
}
