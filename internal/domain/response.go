package domain

// AIConfig is the caller-supplied, read-only configuration for a chat turn.
type AIConfig struct {
	Enabled             bool
	Provider            string
	Model               string
	EmbeddingProvider   string
	EmbeddingModel      string
	Temperature         float32
	MaxTokens           int
	ConfidenceThreshold float64
	MaxRetrievalDocs    int
	RAGEnabled          bool
	FallbackToHuman     bool
	SystemPrompt        string
	CustomSystemPrompt  string
}

// DefaultAIConfig returns a config with the defaults the widget ships with.
// EmbeddingProvider is left empty so a default turn runs on the binding the
// server configured at startup; only an explicit override repins the router.
func DefaultAIConfig() AIConfig {
	return AIConfig{
		Enabled:             true,
		Model:               "deepseek/deepseek-chat-v3.1:free",
		Temperature:         0.7,
		MaxTokens:           500,
		ConfidenceThreshold: 0.7,
		MaxRetrievalDocs:    5,
		RAGEnabled:          true,
		FallbackToHuman:     true,
		SystemPrompt:        "support",
	}
}

// AIResponse is the outcome of one chat turn: the generated text plus the
// trust metadata the widget needs to decide how to present it.
type AIResponse struct {
	Success               bool            `json:"success"`
	Response              string          `json:"response"`
	Confidence            float64         `json:"confidence"`
	Sources               []SourceSummary `json:"sources"`
	ShouldFallbackToHuman bool            `json:"shouldFallbackToHuman"`
	Metadata              map[string]any  `json:"metadata,omitempty"`
}

// FailedResponse builds the well-formed failure shape every pipeline error
// is converted into at the turn boundary. Callers never see raw errors.
func FailedResponse(message string, metadata map[string]any) *AIResponse {
	return &AIResponse{
		Success:               false,
		Response:              message,
		Confidence:            0.0,
		Sources:               []SourceSummary{},
		ShouldFallbackToHuman: true,
		Metadata:              metadata,
	}
}
