// Package transport implements the HTTP client for the remote reasoning
// service: the streaming deep-thinking endpoint, the non-streaming ask
// endpoint, and the example-question lookup.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/houyudong/deepthink/internal/questions"
	"github.com/houyudong/deepthink/internal/thinking"
)

// Endpoints under the service base URL.
const (
	chatPath      = "/api/assistant/chat"
	questionsPath = "/api/assistant/questions"
)

// Mode values for the chat endpoint.
const (
	modeDeepThinking = "deep_thinking"
	modeNormal       = "normal"
)

// The service has no explicit contract for how long establishing a stream may
// take, so a conservative bound keeps a dead endpoint from hanging a session:
// 5s to dial, 5s to first response headers. The stream itself is unbounded.
const establishTimeout = 5 * time.Second

// Client talks to the reasoning service over HTTP. It implements
// thinking.Service and questions.Fetcher.
type Client struct {
	baseURL string
	stream  *http.Client // no overall timeout: streams are long-lived
	http    *http.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string) *Client {
	dialer := &net.Dialer{Timeout: establishTimeout}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		stream: &http.Client{
			Transport: &http.Transport{
				DialContext:           dialer.DialContext,
				ResponseHeaderTimeout: establishTimeout,
			},
		},
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

type chatRequestBody struct {
	Mode        string `json:"mode"`
	Question    string `json:"question,omitempty"`
	Message     string `json:"message,omitempty"`
	PageContext string `json:"page_context"`
	UserRole    string `json:"user_role"`
	Depth       int    `json:"depth,omitempty"`
	Breadth     int    `json:"breadth,omitempty"`
	Concurrency int    `json:"concurrency,omitempty"`
}

// OpenThinking issues the streaming deep-thinking request. On success the
// returned body is the raw line-framed event stream and the caller owns
// closing it. Every failure to obtain a readable stream is classified as
// ErrUnavailable.
func (c *Client) OpenThinking(ctx context.Context, req thinking.ThinkRequest) (io.ReadCloser, error) {
	body := chatRequestBody{
		Mode:        modeDeepThinking,
		Question:    req.Question,
		PageContext: req.PageContext,
		UserRole:    req.Role,
		Depth:       req.Depth,
		Breadth:     req.Breadth,
		Concurrency: req.Concurrency,
	}

	httpReq, err := c.newChatRequest(ctx, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return resp.Body, nil
}

// Ask issues the non-streaming request and returns the final answer text.
func (c *Client) Ask(ctx context.Context, req thinking.AskRequest) (string, error) {
	body := chatRequestBody{
		Mode:        modeNormal,
		Message:     req.Message,
		PageContext: req.PageContext,
		UserRole:    req.Role,
	}

	httpReq, err := c.newChatRequest(ctx, body)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode}
	}

	var parsed struct {
		Data struct {
			Response string `json:"response"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("parsing ask response: %w", err)
	}
	if parsed.Data.Response == "" {
		return "", fmt.Errorf("ask response carried no answer")
	}
	return parsed.Data.Response, nil
}

// ExampleQuestions implements questions.Fetcher.
func (c *Client) ExampleQuestions(ctx context.Context, q questions.Query) ([]questions.Question, error) {
	params := url.Values{}
	params.Set("page_context", q.PageContext)
	params.Set("user_role", q.Role)
	params.Set("user_level", q.Level)
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+questionsPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var parsed struct {
		Data struct {
			Questions []questions.Question `json:"questions"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing questions response: %w", err)
	}
	return parsed.Data.Questions, nil
}

func (c *Client) newChatRequest(ctx context.Context, body chatRequestBody) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}
