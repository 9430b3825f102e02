package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/relaydesk/internal/domain"
)

type fakeCompletionAPI struct {
	lastReq openai.ChatCompletionRequest
	resp    openai.ChatCompletionResponse
	err     error
}

func (f *fakeCompletionAPI) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	return f.resp, f.err
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestCompleteMapsMessagesAndUsage(t *testing.T) {
	api := &fakeCompletionAPI{
		resp: openai.ChatCompletionResponse{
			Model: "deepseek/deepseek-chat-v3.1:free",
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "Our refund window is 30 days."}},
			},
			Usage: openai.Usage{PromptTokens: 120, CompletionTokens: 18, TotalTokens: 138},
		},
	}
	client := NewClientWithAPI(api)

	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: "system", Content: "You are a support assistant."},
			{Role: "user", Content: "Please provide your answer now."},
		},
		Model:       "deepseek/deepseek-chat-v3.1:free",
		Temperature: 0.7,
		MaxTokens:   500,
	})
	require.NoError(t, err)

	assert.Equal(t, "Our refund window is 30 days.", resp.Content)
	assert.Equal(t, 138, resp.Usage.TotalTokens)
	assert.Equal(t, "deepseek/deepseek-chat-v3.1:free", api.lastReq.Model)
	require.Len(t, api.lastReq.Messages, 2)
	assert.Equal(t, "system", api.lastReq.Messages[0].Role)
	assert.Equal(t, 500, api.lastReq.MaxTokens)
}

func TestCompleteSendsAttributionHeaders(t *testing.T) {
	var gotReferer, gotTitle string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("HTTP-Referer")
		gotTitle = r.Header.Get("X-Title")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"model":"m","choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer srv.Close()

	client, err := NewClient(Config{
		APIKey:   "sk-or-test",
		BaseURL:  srv.URL,
		SiteURL:  "https://relaydesk.example.com",
		SiteName: "RelayDesk",
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Model: "m"})
	require.NoError(t, err)

	assert.Equal(t, "https://relaydesk.example.com", gotReferer)
	assert.Equal(t, "RelayDesk", gotTitle)
}

func TestCompleteNoChoices(t *testing.T) {
	client := NewClientWithAPI(&fakeCompletionAPI{resp: openai.ChatCompletionResponse{}})

	_, err := client.Complete(context.Background(), Request{Model: "m"})
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeGeneration, domainErr.Code)
}

func TestCompleteRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"http status", &openai.APIError{HTTPStatusCode: 429, Message: "quota exceeded"}},
		{"status in message", errors.New("error, status code: 429, message: too many requests")},
		{"phrase in message", errors.New("provider rate limit reached, retry later")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClientWithAPI(&fakeCompletionAPI{err: tt.err})

			_, err := client.Complete(context.Background(), Request{Model: "m"})
			require.Error(t, err)

			var domainErr *domain.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domain.ErrCodeRateLimited, domainErr.Code)
		})
	}
}

func TestCompleteGenericFailure(t *testing.T) {
	client := NewClientWithAPI(&fakeCompletionAPI{err: errors.New("connection refused")})

	_, err := client.Complete(context.Background(), Request{Model: "m"})
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeGeneration, domainErr.Code)
}
