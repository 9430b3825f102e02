package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultVoyageBaseURL = "https://api.voyageai.com/v1"

// VoyageClient generates embeddings through the Voyage AI HTTP API.
// Voyage has no official Go SDK, so this speaks the JSON API directly.
type VoyageClient struct {
	apiKey     string
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
}

type voyageEmbedRequest struct {
	Input     []string `json:"input"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type,omitempty"`
}

type voyageEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func newVoyageClient(apiKey, model string, dimension int) *VoyageClient {
	return &VoyageClient{
		apiKey:     apiKey,
		baseURL:    defaultVoyageBaseURL,
		model:      model,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// NewVoyageClientWithBaseURL creates a client against a custom endpoint, for tests.
func NewVoyageClientWithBaseURL(apiKey, baseURL, model string, dimension int) *VoyageClient {
	c := newVoyageClient(apiKey, model, dimension)
	c.baseURL = baseURL
	return c
}

// EmbedQuery generates an embedding for a single query text
func (c *VoyageClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	vectors, err := c.embed(ctx, []string{text}, "query")
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for a batch of document texts
func (c *VoyageClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyText
	}
	return c.embed(ctx, texts, "document")
}

func (c *VoyageClient) embed(ctx context.Context, input []string, inputType string) ([][]float32, error) {
	endpoint := strings.TrimRight(c.baseURL, "/") + "/embeddings"
	body, err := json.Marshal(voyageEmbedRequest{
		Input:     input,
		Model:     c.model,
		InputType: inputType,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("voyage request failed: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var out voyageEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Data) != len(input) {
		return nil, fmt.Errorf("voyage response has %d embeddings, expected %d", len(out.Data), len(input))
	}

	// The API may return entries out of order; index is authoritative.
	vectors := make([][]float32, len(input))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(input) {
			return nil, fmt.Errorf("voyage response index %d out of range", d.Index)
		}
		if len(d.Embedding) != c.dimension {
			return nil, ErrWrongDimensions
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// Model returns the embedding model this client is bound to
func (c *VoyageClient) Model() string {
	return c.model
}

// Dimension returns the fixed vector dimension of the bound model
func (c *VoyageClient) Dimension() int {
	return c.dimension
}
