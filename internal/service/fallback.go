package service

import "github.com/relaydesk/relaydesk/internal/domain"

// ShouldFallback decides whether a turn is escalated to a human agent.
// Escalation requires the widget to have fallback enabled and either a
// confidence below the configured threshold or an answer produced without
// a single knowledge source behind it.
func ShouldFallback(confidence float64, sourceCount int, cfg domain.AIConfig) bool {
	if !cfg.FallbackToHuman {
		return false
	}
	return confidence < cfg.ConfidenceThreshold || sourceCount == 0
}
