package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_ShortTextSingleChunk(t *testing.T) {
	chunks := chunkText("A short policy document.", DefaultChunkConfig())
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short policy document.", chunks[0])
}

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, chunkText("   \n\t ", DefaultChunkConfig()))
}

func TestChunkText_SplitsLongText(t *testing.T) {
	text := strings.Repeat("Our support team answers within one business day. ", 120)
	cfg := DefaultChunkConfig()

	chunks := chunkText(text, cfg)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), cfg.MaxChars)
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestChunkText_CutsOnWordBoundaries(t *testing.T) {
	text := strings.Repeat("boundary ", 400)
	chunks := chunkText(text, DefaultChunkConfig())
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.True(t, strings.HasSuffix(chunk, "boundary"),
			"chunks should end on a whole word, got %q", chunk[len(chunk)-20:])
	}
}

func TestChunkText_OverlapPreservesContext(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta epsilon ", 100)
	cfg := DefaultChunkConfig()

	chunks := chunkText(text, cfg)
	require.Greater(t, len(chunks), 1)

	// The tail of each chunk reappears inside the next one.
	for i := 1; i < len(chunks); i++ {
		prevTail := strings.TrimSpace(chunks[i-1][len(chunks[i-1])-50:])
		assert.Contains(t, chunks[i], prevTail)
	}
}

func TestChunkText_ZeroConfigFallsBackToDefaults(t *testing.T) {
	text := strings.Repeat("word ", 1000)
	chunks := chunkText(text, ChunkConfig{})
	assert.Greater(t, len(chunks), 1)
}
