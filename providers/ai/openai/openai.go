// Package openai implements [ai.Provider] against an OpenAI-compatible
// /chat/completions endpoint. Any provider speaking that dialect works by
// overriding the base URL.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/leofalp/webagent/internal/utils"
	"github.com/leofalp/webagent/providers/ai"
)

const (
	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"
)

// Provider implements the ai.Provider interface for OpenAI-compatible APIs.
type Provider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewProvider creates a provider seeded from the OPENAI_API_KEY and
// OPENAI_BASE_URL environment variables; both can be overridden with the
// With* builders.
func NewProvider() *Provider {
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Provider{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: normalizeBaseURL(baseURL),
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key for the provider.
func (p *Provider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API.
func (p *Provider) WithBaseURL(baseURL string) ai.Provider {
	if baseURL != "" {
		p.baseURL = normalizeBaseURL(baseURL)
	}
	return p
}

// WithHttpClient sets a custom HTTP client.
func (p *Provider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// SendMessage implements the Provider interface.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("API key is not set")
	}

	httpResponse, resp, err := utils.DoPostSync[chatCompletionResponse](ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, requestFromGeneric(request))
	if err != nil {
		return nil, err
	}

	if resp == nil {
		return nil, fmt.Errorf("empty response from chat completions API: %s", httpResponse.Status)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return responseToGeneric(*resp), nil
}

// normalizeBaseURL makes sure the base URL carries the /v1 path segment the
// chat-completions route hangs off, tolerating trailing slashes.
func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	return baseURL
}
