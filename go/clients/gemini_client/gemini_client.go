package gemini_client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mcdev12/kiradelay/go/clients"
)

type GeminiClient struct {
	*clients.BaseClient
	model string
}

// NewGeminiClient creates a client for baseURL; an empty baseURL or model uses the defaults
func NewGeminiClient(apiKey, baseURL, model string) *GeminiClient {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	client := &GeminiClient{
		BaseClient: clients.NewBaseClient(strings.TrimRight(baseURL, "/")),
		model:      model,
	}

	client.SetHeader(APIKeyHeader, apiKey)
	client.SetHeader(JsonHeader, JsonContentType)

	return client
}

func (c *GeminiClient) Model() string {
	return c.model
}

// GenerateContent sends a single-turn text prompt and returns the concatenated
// text of the first candidate. An empty string means the model produced no text.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	endpoint := fmt.Sprintf(GenerateContentEndpoint, url.PathEscape(c.model))

	req := GenerateContentRequest{
		Contents: []Content{{Parts: []Part{{Text: prompt}}}},
	}
	var resp GenerateContentResponse
	if err := c.PostJSON(ctx, endpoint, req, &resp); err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return resp.Text(), nil
}
