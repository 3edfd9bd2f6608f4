package llamacpp

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

// DefaultURL is used when no server URL is configured
const DefaultURL = "http://localhost:8080"

// Client talks to the OpenAI-compatible endpoint of a llama.cpp server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Message is an OpenAI-compatible chat message.
// Content is a string or a list of content parts.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentPart is one text or image part of a message
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an image as a URL or data URI
type ImageURL struct {
	URL string `json:"url"`
}

// ChatCompletionRequest is an OpenAI-compatible chat completion request
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

// ChatCompletionResponse is an OpenAI-compatible chat completion response
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// Choice is one completion of a response
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// NewClient creates a client for serverURL, defaulting to DefaultURL
func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = DefaultURL
	}
	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		return nil, fmt.Errorf("invalid URL: %q", serverURL)
	}

	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}, nil
}

// Query sends the prompt and image to the model and returns its reply
func (c *Client) Query(ctx context.Context, model, prompt, imgB64 string) (string, error) {
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
		Temperature: 0.1,
		MaxTokens:   512,
	}

	respBody, err := c.sendRequest(ctx, "/v1/chat/completions", req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	if text := messageText(resp.Choices[0].Message); text != "" {
		return text, nil
	}
	return "", fmt.Errorf("empty response from llama.cpp server")
}

// messageText extracts the text of a message in string or content-part form
func messageText(m Message) string {
	switch content := m.Content.(type) {
	case string:
		return content
	case []any:
		for _, item := range content {
			if part, ok := item.(map[string]any); ok {
				if text, ok := part["text"].(string); ok && text != "" {
					return text
				}
			}
		}
	}
	return ""
}

func (c *Client) sendRequest(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
