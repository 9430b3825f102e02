package service

import (
	"strings"

	"github.com/relaydesk/relaydesk/internal/domain"
)

// strongUncertaintyPhrases mark answers the model itself is unsure about.
// Only the first match is penalized.
var strongUncertaintyPhrases = []string{
	"i don't know",
	"i cannot answer",
	"i'm unable to help",
	"no information available",
	"not provided in the context",
	"i don't have access to",
	"cannot find",
}

// handoffMarker identifies the pipeline's own no-context handoff reply.
// Matching it is self-identification, not a judgment about the content.
const handoffMarker = "let me connect you with"

// scoreInput is what every rule gets to look at.
type scoreInput struct {
	response      string
	responseLower string
	sources       []domain.SourceSummary
	avgScore      float64
}

// scoreRule adjusts the running confidence total. delta is added to the
// running total; stop ends the fold early (the final clamp still applies).
type scoreRule struct {
	name  string
	apply func(in scoreInput, running float64) (delta float64, stop bool)
}

// confidenceRules run in order. Keeping them as named rules makes each
// adjustment auditable and testable on its own.
var confidenceRules = []scoreRule{
	{
		name: "base",
		apply: func(in scoreInput, _ float64) (float64, bool) {
			if len(in.sources) > 0 {
				return 0.7, false
			}
			return 0.3, false
		},
	},
	{
		name: "extra-sources",
		apply: func(in scoreInput, _ float64) (float64, bool) {
			if len(in.sources) <= 1 {
				return 0, false
			}
			boost := float64(len(in.sources)-1) * 0.1
			if boost > 0.2 {
				boost = 0.2
			}
			return boost, false
		},
	},
	{
		name: "comprehensive-response",
		apply: func(in scoreInput, _ float64) (float64, bool) {
			if len(in.response) > 100 {
				return 0.05, false
			}
			return 0, false
		},
	},
	{
		// Very low similarity scores usually mean a degraded embedding
		// path, not irrelevant content. Content presence is trusted over
		// raw score magnitude and the total resets to 0.75.
		name: "low-score-override",
		apply: func(in scoreInput, running float64) (float64, bool) {
			if len(in.sources) > 0 && in.avgScore < 0.1 {
				return 0.75 - running, false
			}
			return 0, false
		},
	},
	{
		name: "handoff-detected",
		apply: func(in scoreInput, running float64) (float64, bool) {
			if strings.Contains(in.responseLower, handoffMarker) {
				return -running, true
			}
			return 0, false
		},
	},
	{
		name: "uncertainty-language",
		apply: func(in scoreInput, _ float64) (float64, bool) {
			for _, phrase := range strongUncertaintyPhrases {
				if strings.Contains(in.responseLower, phrase) {
					return -0.4, true
				}
			}
			return 0, false
		},
	},
}

// ScoreConfidence folds the ordered rule list over the response and its
// sources into a deterministic trust score in [0, 1].
func ScoreConfidence(response string, sources []domain.SourceSummary) float64 {
	in := scoreInput{
		response:      response,
		responseLower: strings.ToLower(response),
		sources:       sources,
		avgScore:      averageSourceScore(sources),
	}

	total := 0.0
	for _, rule := range confidenceRules {
		delta, stop := rule.apply(in, total)
		total += delta
		if stop {
			break
		}
	}

	if total < 0 {
		return 0
	}
	if total > 1 {
		return 1
	}
	return total
}

func averageSourceScore(sources []domain.SourceSummary) float64 {
	if len(sources) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range sources {
		sum += float64(s.Score)
	}
	return sum / float64(len(sources))
}
