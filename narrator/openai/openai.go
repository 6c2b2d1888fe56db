// Package openai implements narrator.Provider against an OpenAI-compatible
// /v1/chat/completions endpoint with SSE streaming.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"

	"github.com/tourline/tourline/internal/httpx"
	"github.com/tourline/tourline/narrator"
)

const (
	defaultBaseURL          = "https://api.openai.com/v1"
	defaultModel            = "gpt-4o-mini"
	chatCompletionsEndpoint = "/chat/completions"
)

// Provider streams chat completion deltas from an OpenAI-compatible API.
// The zero value is not usable; construct with New.
type Provider struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
}

// Option customizes a Provider.
type Option func(*Provider)

// WithHTTPClient sets the HTTP client used for streaming requests.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) { p.client = client }
}

// WithBaseURL points the provider at a different OpenAI-compatible API
// root, such as a local inference server.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) { p.baseURL = baseURL }
}

// WithModel selects the model used for narration.
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// New creates a Provider. Streaming responses have no sensible overall
// deadline, so the default client relies on context cancellation rather
// than a client timeout.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		client:  &http.Client{Timeout: 0},
		baseURL: defaultBaseURL,
		model:   defaultModel,
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

type streamChunk struct {
	Choices []streamChoice `json:"choices"`
}

type streamChoice struct {
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Narrate sends a streaming chat completion request and yields content
// deltas as they arrive. The response body is closed when iteration ends.
func (p *Provider) Narrate(ctx context.Context, req narrator.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if p.apiKey == "" {
			yield("", errors.New("API key is not set"))
			return
		}

		temperature := req.Temperature
		body := chatCompletionRequest{
			Model: p.model,
			Messages: []chatMessage{
				{Role: "system", Content: req.System},
				{Role: "user", Content: req.User},
			},
			Temperature: &temperature,
			Stream:      true,
		}

		response, err := httpx.DoPostStream(ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, body)
		if err != nil {
			yield("", err)
			return
		}
		defer httpx.CloseWithLog(response.Body)

		scanner := httpx.NewSSEScanner(response.Body)
		for {
			if ctx.Err() != nil {
				yield("", ctx.Err())
				return
			}

			payload, err := scanner.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("SSE read error: %w", err))
				return
			}

			var chunk streamChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				yield("", fmt.Errorf("failed to parse streaming chunk: %w", err))
				return
			}
			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if !yield(choice.Delta.Content, nil) {
					return
				}
			}
		}
	}
}
