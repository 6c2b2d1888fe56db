package narration

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tourline/tourline/internal/httpx"
	"github.com/tourline/tourline/tour"
)

// StreamRequest is the body posted to the chat-stream endpoint. The graph
// description fields are flattened into the payload alongside the question
// id and, for tours, the previously selected node order.
type StreamRequest struct {
	QuestionID string `json:"question_id"`
	tour.Graph
	TourOrder []string `json:"tour_order,omitempty"`
}

// Client opens narration streams over HTTP against a chat-stream endpoint.
// The zero value is not usable; construct with NewClient.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client, e.g. to set timeouts or
// inject a test transport.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithAPIKey sets a bearer token attached to stream requests.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) { c.apiKey = apiKey }
}

// NewClient creates a narration client for the given chat-stream endpoint
// URL.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{endpoint: endpoint}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stream posts the request and returns the decoded narration stream. A
// failed request (transport error or non-2xx status) is returned as an
// error before any stream exists; failures after the stream opens surface
// through the stream's iterator. The response body is closed when iteration
// ends, including early breaks.
func (c *Client) Stream(ctx context.Context, request StreamRequest) (*Stream, error) {
	if request.QuestionID == "" {
		return nil, fmt.Errorf("question_id is required")
	}

	response, err := httpx.DoPostStream(ctx, c.httpClient, c.endpoint, c.apiKey, request)
	if err != nil {
		return nil, fmt.Errorf("narration request failed: %w", err)
	}

	decoded := Decode(response.Body)
	iterator := func(yield func(Item, error) bool) {
		defer httpx.CloseWithLog(response.Body)
		for item, iterErr := range decoded.Iter() {
			if ctx.Err() != nil {
				yield(Item{}, ctx.Err())
				return
			}
			if !yield(item, iterErr) {
				return
			}
		}
	}
	return NewStream(iterator), nil
}
