package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/relaydesk/internal/domain"
)

func retrievalResult(title, content string, score float32) domain.RetrievalResult {
	return domain.RetrievalResult{
		Fragment: domain.KnowledgeFragment{
			Title:   title,
			DocType: "text",
			Content: content,
		},
		Score: score,
	}
}

func TestAssembleContext_JoinsInOrder(t *testing.T) {
	results := []domain.RetrievalResult{
		retrievalResult("Refund Policy", "Refunds are accepted within 30 days.", 0.91),
		retrievalResult("Shipping", "We ship worldwide within 5 business days.", 0.78),
	}

	assembled := AssembleContext(results)

	assert.Equal(t,
		"Refunds are accepted within 30 days.\n\nWe ship worldwide within 5 business days.\n\n",
		assembled.ContextText)

	require.Len(t, assembled.Sources, 2)
	assert.Equal(t, "Refund Policy", assembled.Sources[0].Title)
	assert.Equal(t, float32(0.91), assembled.Sources[0].Score)
	assert.Equal(t, "Shipping", assembled.Sources[1].Title)
}

func TestAssembleContext_TruncatesLongSources(t *testing.T) {
	long := strings.Repeat("a", 450)
	assembled := AssembleContext([]domain.RetrievalResult{
		retrievalResult("Long Doc", long, 0.8),
	})

	require.Len(t, assembled.Sources, 1)
	assert.Len(t, assembled.Sources[0].Content, 203)
	assert.True(t, strings.HasSuffix(assembled.Sources[0].Content, "..."))
	// The full text still goes into the context block.
	assert.Contains(t, assembled.ContextText, long)
}

func TestAssembleContext_TruncatesMultibyteOnRunes(t *testing.T) {
	// 100 runes but 300 bytes; well under the 200-character preview limit.
	short := strings.Repeat("€", 100)
	assembled := AssembleContext([]domain.RetrievalResult{
		retrievalResult("Euro Doc", short, 0.8),
	})
	assert.Equal(t, short, assembled.Sources[0].Content)

	long := strings.Repeat("€", 250)
	assembled = AssembleContext([]domain.RetrievalResult{
		retrievalResult("Euro Doc", long, 0.8),
	})
	preview := assembled.Sources[0].Content
	assert.True(t, utf8.ValidString(preview))
	assert.Equal(t, 203, len([]rune(preview)))
	assert.True(t, strings.HasSuffix(preview, "..."))
}

func TestAssembleContext_ShortSourceNotTruncated(t *testing.T) {
	assembled := AssembleContext([]domain.RetrievalResult{
		retrievalResult("Short", "Opens at 9am.", 0.8),
	})

	assert.Equal(t, "Opens at 9am.", assembled.Sources[0].Content)
}

func TestAssembleContext_DefaultsTitleAndType(t *testing.T) {
	assembled := AssembleContext([]domain.RetrievalResult{
		{Fragment: domain.KnowledgeFragment{Content: "text"}, Score: 0.5},
	})

	require.Len(t, assembled.Sources, 1)
	assert.Equal(t, "Unknown", assembled.Sources[0].Title)
	assert.Equal(t, "text", assembled.Sources[0].Type)
}

func TestAssembleContext_Empty(t *testing.T) {
	assembled := AssembleContext(nil)

	assert.Equal(t, "", assembled.ContextText)
	assert.NotNil(t, assembled.Sources)
	assert.Empty(t, assembled.Sources)
}
