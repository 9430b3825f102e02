package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/relaydesk/relaydesk/internal/domain"
	"github.com/relaydesk/relaydesk/internal/llm"
)

// HandoffSentence is the fixed reply the model is instructed to give when
// no knowledge-base context could be retrieved. The confidence scorer
// recognizes it as a self-identification signal.
const HandoffSentence = "I don't have access to my knowledge base at the moment. Let me connect you with a team member who can help you with that."

// answerCue is the neutral user turn sent alongside the system
// instruction. The actual question lives inside the system instruction to
// keep model attention anchored to the knowledge block.
const answerCue = "Please provide your answer now."

// systemPromptPresets are the fixed role presets a widget can select.
var systemPromptPresets = map[string]string{
	"support":   "You are a helpful customer support assistant. Your role is to assist customers with their questions, resolve issues, and provide excellent service. Be friendly, patient, and professional.",
	"sales":     "You are a sales assistant focused on helping customers find the right products or services. Highlight benefits, answer product questions, and guide customers toward making a purchase. Be enthusiastic and informative.",
	"booking":   "You are a booking and scheduling assistant. Help customers book appointments, check availability, and manage reservations. Be organized, clear about timing, and confirm all details.",
	"technical": "You are a technical support specialist. Help customers troubleshoot technical issues, provide step-by-step solutions, and explain technical concepts clearly. Be precise and patient.",
	"general":   "You are a versatile AI assistant ready to help with any customer inquiry. Adapt your tone and approach based on the customer's needs. Be helpful, professional, and friendly.",
}

// SystemPromptText resolves a preset name to its prompt text. "custom"
// uses the caller-supplied text verbatim; unrecognized presets fall back
// to "support".
func SystemPromptText(promptType, customPrompt string) string {
	if promptType == "custom" && customPrompt != "" {
		return customPrompt
	}
	if preset, ok := systemPromptPresets[promptType]; ok {
		return preset
	}
	return systemPromptPresets["support"]
}

// GenerationOrchestrator builds the chat messages for a turn and calls the
// language-model service.
type GenerationOrchestrator struct {
	completer Completer
}

// Completer is the language-model service contract.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// NewGenerationOrchestrator creates a new GenerationOrchestrator instance
func NewGenerationOrchestrator(completer Completer) *GenerationOrchestrator {
	return &GenerationOrchestrator{completer: completer}
}

// GenerateDirect answers without retrieval: a single user message, no
// system instruction.
func (g *GenerationOrchestrator) GenerateDirect(ctx context.Context, message string, cfg domain.AIConfig) (*llm.Response, error) {
	return g.completer.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: message}},
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
}

// GenerateWithContext answers from the retrieved knowledge block. When the
// block is empty the model is never asked to answer from nothing; it is
// instructed to hand the conversation off instead.
func (g *GenerationOrchestrator) GenerateWithContext(ctx context.Context, message, contextText string, cfg domain.AIConfig) (*llm.Response, error) {
	systemPrompt := buildRAGSystemPrompt(message, contextText, cfg)

	return g.completer.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: answerCue},
		},
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
}

func buildRAGSystemPrompt(message, contextText string, cfg domain.AIConfig) string {
	base := SystemPromptText(cfg.SystemPrompt, cfg.CustomSystemPrompt)

	if strings.TrimSpace(contextText) == "" {
		return fmt.Sprintf(`%s

You do not have access to the knowledge base right now.

Respond to the user by saying: %q

Be polite and helpful.`, base, HandoffSentence)
	}

	return fmt.Sprintf(`%s

===== KNOWLEDGE BASE (Verified Information) =====
%s
===== END OF KNOWLEDGE BASE =====

Your task: Answer the user's question using the KNOWLEDGE BASE above.

IMPORTANT:
- The KNOWLEDGE BASE contains the correct answer - use it directly
- Answer confidently and naturally based on what you read above
- Do NOT say you're unsure if the answer is clearly in the KNOWLEDGE BASE
- Be helpful and conversational
- Stay in character according to your role

User Question: %s

Answer (use the KNOWLEDGE BASE information):`, base, contextText, message)
}
