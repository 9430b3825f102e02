// Package llm wraps the chat-completion service behind a small request/
// response contract. The service is reached through the OpenRouter API,
// which speaks the OpenAI wire protocol.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/relaydesk/relaydesk/internal/domain"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// ErrNoAPIKey is returned when the OpenRouter API key is not configured
var ErrNoAPIKey = errors.New("OPENROUTER_API_KEY not set")

// Message is one turn of a chat conversation.
type Message struct {
	Role    string
	Content string
}

// Request describes one completion call.
type Request struct {
	Messages    []Message
	Model       string
	Temperature float32
	MaxTokens   int
}

// Usage reports token accounting for a completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the completion outcome.
type Response struct {
	Content string
	Model   string
	Usage   Usage
}

// CompletionAPI defines the subset of the chat API the client uses
type CompletionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client calls the language-model service. Calls are blocking with no
// internal retry; failures surface as GenerationError variants.
type Client struct {
	api CompletionAPI
}

// Config holds the client configuration.
type Config struct {
	APIKey   string
	BaseURL  string
	SiteURL  string
	SiteName string
}

// NewClient creates a completion client for the OpenRouter endpoint.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = defaultBaseURL
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	if cfg.SiteURL != "" || cfg.SiteName != "" {
		clientCfg.HTTPClient = &http.Client{
			Transport: &attributionTransport{
				base:     http.DefaultTransport,
				siteURL:  cfg.SiteURL,
				siteName: cfg.SiteName,
			},
		}
	}

	return &Client{api: openai.NewClientWithConfig(clientCfg)}, nil
}

// attributionTransport adds the OpenRouter app-attribution headers to every
// outgoing request.
type attributionTransport struct {
	base     http.RoundTripper
	siteURL  string
	siteName string
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.siteURL != "" {
		req.Header.Set("HTTP-Referer", t.siteURL)
	}
	if t.siteName != "" {
		req.Header.Set("X-Title", t.siteName)
	}
	return t.base.RoundTrip(req)
}

// NewClientWithAPI creates a client with an injected API, for tests.
func NewClientWithAPI(api CompletionAPI) *Client {
	return &Client{api: api}
}

// Complete performs one chat completion call.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		if IsRateLimited(err) {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeRateLimited,
				fmt.Sprintf("model %q is rate limited", req.Model), err)
		}
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeGeneration, "completion failed", err)
	}

	if len(resp.Choices) == 0 {
		return nil, domain.NewDomainError(domain.ErrCodeGeneration, "completion returned no choices")
	}

	return &Response{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// IsRateLimited reports whether an error carries the provider's quota or
// rate-limit signature. Providers differ in how they surface it, so the
// error text is scanned for the 429 marker as well.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}
