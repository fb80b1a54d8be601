package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_EmptyInput(t *testing.T) {
	c := New(1000, 200)

	chunks := c.Split("", "empty.pdf", "doc-1")
	assert.Empty(t, chunks)

	chunks = c.Split("   \n\t  ", "blank.pdf", "doc-1")
	assert.Empty(t, chunks)
}

func TestSplit_ShortInput(t *testing.T) {
	c := New(1000, 200)

	chunks := c.Split("A short document. Nothing more.", "short.pdf", "doc-1")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short document. Nothing more.", chunks[0].Text)
	assert.Equal(t, "short.pdf", chunks[0].SourceName)
	assert.Equal(t, "doc-1", chunks[0].DocumentID)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Nil(t, chunks[0].Page)
}

func TestSplit_PageMarkerExtracted(t *testing.T) {
	c := New(1000, 200)

	chunks := c.Split("[Page 3] Content on the third page.", "doc.pdf", "doc-1")
	require.Len(t, chunks, 1)
	require.NotNil(t, chunks[0].Page)
	assert.Equal(t, 3, *chunks[0].Page)
	assert.NotContains(t, chunks[0].Text, "[Page")
	assert.Equal(t, "Content on the third page.", chunks[0].Text)
}

func TestSplit_FirstPageMarkerWins(t *testing.T) {
	c := New(1000, 200)

	chunks := c.Split("[Page 1] First page text. [Page 2] Second page text.", "doc.pdf", "doc-1")
	require.Len(t, chunks, 1)
	require.NotNil(t, chunks[0].Page)
	assert.Equal(t, 1, *chunks[0].Page)
	assert.NotContains(t, chunks[0].Text, "[Page")
}

func TestSplit_SentenceBoundaryExtension(t *testing.T) {
	c := New(50, 10)

	// The raw edge at 50 lands mid-sentence; a terminator follows within the
	// lookahead, so the window should extend to it.
	text := "This is the very first sentence of the sample text. And here comes the second one. A third closes it."
	chunks := c.Split(text, "doc.pdf", "doc-1")
	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasSuffix(chunks[0].Text, "."),
		"first chunk should end at a sentence boundary, got %q", chunks[0].Text)
}

func TestSplit_HardCutWithoutBoundary(t *testing.T) {
	c := New(40, 10)

	text := strings.Repeat("abcde ", 30) // no sentence terminators at all
	chunks := c.Split(text, "doc.pdf", "doc-1")
	require.NotEmpty(t, chunks)
	// With no terminator in reach the window is cut at the raw edge.
	assert.LessOrEqual(t, len(chunks[0].Text), 40)
}

func TestSplit_CoverageAndOverlap(t *testing.T) {
	c := New(100, 20)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Sentence number %d ends here. ", i)
	}
	text := b.String()
	normalized := Normalize(text)

	chunks := c.Split(text, "doc.pdf", "doc-1")
	require.Greater(t, len(chunks), 3)

	prevStart, prevEnd := -1, 0
	for i, ch := range chunks {
		assert.Equal(t, i, ch.ChunkIndex)
		require.NotEmpty(t, ch.Text)

		start := strings.Index(normalized, ch.Text)
		require.GreaterOrEqual(t, start, 0, "chunk %d text not found in normalized input", i)
		end := start + len(ch.Text)

		if i > 0 {
			// Consecutive windows overlap but always move forward.
			assert.Greater(t, start, prevStart, "chunk %d did not advance", i)
			assert.LessOrEqual(t, start, prevEnd, "gap before chunk %d", i)
		}
		prevStart, prevEnd = start, end
	}
	// Full coverage: the final chunk reaches the end of the normalized text.
	assert.Equal(t, len(normalized), prevEnd)
}

func TestSplit_Idempotent(t *testing.T) {
	c := New(120, 30)

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 25)
	first := c.Split(text, "doc.pdf", "doc-1")
	second := c.Split(text, "doc.pdf", "doc-1")
	assert.Equal(t, first, second)
}

func TestNew_Defaults(t *testing.T) {
	c := New(0, -1)
	assert.Equal(t, DefaultChunkSize, c.size)
	assert.Equal(t, DefaultChunkOverlap, c.overlap)

	// Overlap at or above size would stall the window.
	c = New(10, 10)
	assert.Less(t, c.overlap, c.size)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "a  b\t\nc", "a b c"},
		{"drops disallowed characters", "a€b", "a b"},
		{"keeps page markers", "[Page 2] text", "[Page 2] text"},
		{"keeps common punctuation", "a, b; (c) - d!", "a, b; (c) - d!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}
