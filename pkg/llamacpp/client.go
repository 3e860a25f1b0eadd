// Package llamacpp is a vision backend talking to a llama.cpp server through
// its OpenAI-compatible chat completion endpoint.
package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/menta2k/image-insight/pkg/client"
	"github.com/menta2k/image-insight/pkg/types"
)

// DefaultURL is used when no server URL is given
const DefaultURL = "http://localhost:8080"

const (
	completionsPath = "/v1/chat/completions"
	maxErrorBody    = 512
)

// ErrStatus is returned when the server answers with a non-200 status
var ErrStatus = errors.New("llama.cpp server error")

// Client talks to one llama.cpp server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ client.VisionClient = (*Client)(nil)

// Message is a chat message. Content is a string or a list of content parts.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// ResponseFormat asks the server to constrain output, e.g. to a JSON object
type ResponseFormat struct {
	Type string `json:"type"`
}

type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	TopP           float64         `json:"top_p,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// completion holds the sampling settings of one request kind
type completion struct {
	temperature float64
	maxTokens   int
	jsonOutput  bool
}

var (
	freeText = completion{temperature: 0.7, maxTokens: 2048}
	report   = completion{temperature: 0.2, maxTokens: 4096, jsonOutput: true}
)

// NewClient creates a client for serverURL, or DefaultURL when empty
func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = DefaultURL
	}
	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		return nil, fmt.Errorf("invalid server URL %q", serverURL)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// Query sends a prompt with an image and returns the answer text
func (c *Client) Query(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	return c.complete(ctx, model, prompt, imgB64, freeText)
}

// AnalyzeImage asks for a JSON report about the image
func (c *Client) AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.ModelReport, error) {
	text, err := c.complete(ctx, model, prompt, imgB64, report)
	if err != nil {
		return nil, err
	}
	return client.ParseReport(text)
}

func (c *Client) complete(ctx context.Context, model, prompt, imgB64 string, opts completion) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}

	content := []ContentPart{{Type: "text", Text: prompt}}
	if imgB64 != "" {
		content = append(content, ContentPart{
			Type:     "image_url",
			ImageURL: &ImageURL{URL: "data:image/jpeg;base64," + imgB64},
		})
	}

	req := ChatCompletionRequest{
		Model:       model,
		Messages:    []Message{{Role: "user", Content: content}},
		Temperature: opts.temperature,
		MaxTokens:   opts.maxTokens,
		TopP:        0.8,
	}
	if opts.jsonOutput {
		req.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	var resp ChatCompletionResponse
	if err := c.post(ctx, completionsPath, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in llama.cpp response")
	}

	text := strings.TrimSpace(messageText(resp.Choices[0].Message))
	if text == "" {
		return "", fmt.Errorf("empty response from llama.cpp server")
	}
	return text, nil
}

// messageText extracts text from string or content-part message bodies
func messageText(m Message) string {
	switch content := m.Content.(type) {
	case string:
		return content
	case []interface{}:
		var parts []string
		for _, item := range content {
			if part, ok := item.(map[string]interface{}); ok {
				if text, ok := part["text"].(string); ok && text != "" {
					parts = append(parts, text)
				}
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

// post sends payload as JSON and decodes a 200 answer into out
func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("llama.cpp request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: status %d: %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse llama.cpp response: %w", err)
	}
	return nil
}
