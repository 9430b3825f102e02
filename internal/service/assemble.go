package service

import (
	"strings"

	"github.com/relaydesk/relaydesk/internal/domain"
)

// sourcePreviewLimit caps how much of a fragment is echoed back to the
// caller as an attribution snippet.
const sourcePreviewLimit = 200

// AssembledContext is the prompt-ready context block plus the attribution
// entries shown alongside the answer.
type AssembledContext struct {
	ContextText string
	Sources     []domain.SourceSummary
}

// AssembleContext joins retrieved fragments into one context block, in the
// relevance order they arrived in, and builds the parallel source list.
// Pure transformation; empty input yields an empty block.
func AssembleContext(results []domain.RetrievalResult) AssembledContext {
	if len(results) == 0 {
		return AssembledContext{Sources: []domain.SourceSummary{}}
	}

	var b strings.Builder
	sources := make([]domain.SourceSummary, 0, len(results))
	for _, r := range results {
		b.WriteString(r.Fragment.Content)
		b.WriteString("\n\n")

		title := r.Fragment.Title
		if title == "" {
			title = "Unknown"
		}
		docType := r.Fragment.DocType
		if docType == "" {
			docType = "text"
		}

		sources = append(sources, domain.SourceSummary{
			Content: truncateContent(r.Fragment.Content, sourcePreviewLimit),
			Title:   title,
			Type:    docType,
			Score:   r.Score,
		})
	}

	return AssembledContext{
		ContextText: b.String(),
		Sources:     sources,
	}
}

// truncateContent limits a preview to limit characters, not bytes, so
// multibyte content is never cut mid-rune.
func truncateContent(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
