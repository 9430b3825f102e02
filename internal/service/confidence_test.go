package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaydesk/relaydesk/internal/domain"
)

func sourcesWithScores(scores ...float32) []domain.SourceSummary {
	out := make([]domain.SourceSummary, len(scores))
	for i, s := range scores {
		out[i] = domain.SourceSummary{Title: "Doc", Type: "text", Score: s}
	}
	return out
}

func TestScoreConfidence_NoSources(t *testing.T) {
	// Base 0.3, no boosts, short answer, no listed uncertainty phrase.
	got := ScoreConfidence("I'm not sure.", nil)
	assert.InDelta(t, 0.3, got, 1e-9)
}

func TestScoreConfidence_MultipleSourcesAndLongResponse(t *testing.T) {
	// 0.7 base + 0.2 source boost (capped) + 0.05 length boost.
	response := strings.Repeat("The answer is in our shipping policy. ", 4)
	got := ScoreConfidence(response, sourcesWithScores(0.4, 0.4, 0.4))
	assert.InDelta(t, 0.95, got, 1e-9)
}

func TestScoreConfidence_SourceBoostCapped(t *testing.T) {
	short := "Yes."
	two := ScoreConfidence(short, sourcesWithScores(0.5, 0.5))
	five := ScoreConfidence(short, sourcesWithScores(0.5, 0.5, 0.5, 0.5, 0.5))

	assert.InDelta(t, 0.8, two, 1e-9)
	assert.InDelta(t, 0.9, five, 1e-9, "boost never exceeds 0.2")
}

func TestScoreConfidence_LowScoreOverride(t *testing.T) {
	// Average source score below 0.1 resets the total to 0.75 no matter
	// what the earlier boosts accumulated.
	response := strings.Repeat("Plenty of detail here. ", 10)
	got := ScoreConfidence(response, sourcesWithScores(0.02, 0.03, 0.01))
	assert.InDelta(t, 0.75, got, 1e-9)
}

func TestScoreConfidence_HandoffForcesZero(t *testing.T) {
	response := "I don't have access to my knowledge base at the moment. Let me connect you with a team member who can help you with that."
	got := ScoreConfidence(response, sourcesWithScores(0.9, 0.8))
	assert.Equal(t, 0.0, got)
}

func TestScoreConfidence_HandoffBeatsUncertainty(t *testing.T) {
	// The handoff reply contains "i don't have access to" as well; the
	// handoff rule must win because it runs first.
	got := ScoreConfidence("Let me connect you with a team member.", nil)
	assert.Equal(t, 0.0, got)
}

func TestScoreConfidence_UncertaintyPenalty(t *testing.T) {
	got := ScoreConfidence("I don't know the answer to that.", sourcesWithScores(0.5))
	assert.InDelta(t, 0.3, got, 1e-9)
}

func TestScoreConfidence_UncertaintyPenalizedOnce(t *testing.T) {
	// Two uncertainty phrases, one penalty.
	got := ScoreConfidence("I don't know and I cannot answer that.", sourcesWithScores(0.5, 0.5))
	assert.InDelta(t, 0.4, got, 1e-9)
}

func TestScoreConfidence_ClampedToZero(t *testing.T) {
	got := ScoreConfidence("I cannot answer.", nil)
	assert.Equal(t, 0.0, got, "0.3 - 0.4 clamps at zero")
}

func TestScoreConfidence_Deterministic(t *testing.T) {
	response := "Our store opens at 9am on weekdays."
	sources := sourcesWithScores(0.6, 0.7)
	first := ScoreConfidence(response, sources)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ScoreConfidence(response, sources))
	}
	assert.GreaterOrEqual(t, first, 0.0)
	assert.LessOrEqual(t, first, 1.0)
}
