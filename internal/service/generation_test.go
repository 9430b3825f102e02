package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/relaydesk/internal/domain"
	"github.com/relaydesk/relaydesk/internal/llm"
)

// fakeCompleter captures the last request and returns a canned response.
type fakeCompleter struct {
	lastReq llm.Request
	resp    *llm.Response
	err     error
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.lastReq = req
	if f.resp == nil && f.err == nil {
		return &llm.Response{Content: "ok"}, nil
	}
	return f.resp, f.err
}

func TestSystemPromptText_Presets(t *testing.T) {
	assert.Contains(t, SystemPromptText("sales", ""), "sales assistant")
	assert.Contains(t, SystemPromptText("booking", ""), "booking and scheduling assistant")
	assert.Contains(t, SystemPromptText("technical", ""), "technical support specialist")
	assert.Contains(t, SystemPromptText("general", ""), "versatile AI assistant")
	assert.Contains(t, SystemPromptText("support", ""), "customer support assistant")
}

func TestSystemPromptText_UnknownFallsBackToSupport(t *testing.T) {
	assert.Equal(t, SystemPromptText("support", ""), SystemPromptText("pirate", ""))
}

func TestSystemPromptText_CustomVerbatim(t *testing.T) {
	custom := "You are the Acme helpdesk bot."
	assert.Equal(t, custom, SystemPromptText("custom", custom))
	// Custom preset without text falls back too.
	assert.Equal(t, SystemPromptText("support", ""), SystemPromptText("custom", ""))
}

func TestGenerationOrchestrator_GenerateWithContext(t *testing.T) {
	completer := &fakeCompleter{}
	g := NewGenerationOrchestrator(completer)

	cfg := domain.DefaultAIConfig()
	_, err := g.GenerateWithContext(context.Background(),
		"What is your refund policy?",
		"Refunds are accepted within 30 days of purchase.",
		cfg)
	require.NoError(t, err)

	require.Len(t, completer.lastReq.Messages, 2)
	system := completer.lastReq.Messages[0]
	user := completer.lastReq.Messages[1]

	assert.Equal(t, "system", system.Role)
	assert.Contains(t, system.Content, "===== KNOWLEDGE BASE (Verified Information) =====")
	assert.Contains(t, system.Content, "===== END OF KNOWLEDGE BASE =====")
	assert.Contains(t, system.Content, "Refunds are accepted within 30 days of purchase.")
	// The question rides inside the system instruction, not the user turn.
	assert.Contains(t, system.Content, "User Question: What is your refund policy?")
	assert.Equal(t, "Please provide your answer now.", user.Content)

	assert.Equal(t, cfg.Model, completer.lastReq.Model)
	assert.Equal(t, cfg.MaxTokens, completer.lastReq.MaxTokens)
}

func TestGenerationOrchestrator_GenerateWithContext_EmptyContext(t *testing.T) {
	completer := &fakeCompleter{}
	g := NewGenerationOrchestrator(completer)

	_, err := g.GenerateWithContext(context.Background(),
		"What is your refund policy?", "   \n", domain.DefaultAIConfig())
	require.NoError(t, err)

	system := completer.lastReq.Messages[0].Content
	assert.Contains(t, system, "You do not have access to the knowledge base right now.")
	assert.Contains(t, system, HandoffSentence)
	assert.False(t, strings.Contains(system, "KNOWLEDGE BASE (Verified Information)"),
		"no knowledge block when there is nothing to answer from")
}

func TestGenerationOrchestrator_GenerateDirect(t *testing.T) {
	completer := &fakeCompleter{}
	g := NewGenerationOrchestrator(completer)

	_, err := g.GenerateDirect(context.Background(), "Tell me a joke", domain.DefaultAIConfig())
	require.NoError(t, err)

	require.Len(t, completer.lastReq.Messages, 1)
	assert.Equal(t, "user", completer.lastReq.Messages[0].Role)
	assert.Equal(t, "Tell me a joke", completer.lastReq.Messages[0].Content)
}
