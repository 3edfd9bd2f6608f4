package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultURL is used when no server URL is configured
const DefaultURL = "http://localhost:11434"

// Client wraps the Ollama API client
type Client struct {
	client  *api.Client
	timeout time.Duration
}

// NewClient creates a new Ollama client
func NewClient(ollamaURL string) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = DefaultURL
	}
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %q", ollamaURL)
	}

	// Create base URL from the provided URL (removing path like /api/chat)
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &Client{
		client:  api.NewClient(baseURL, http.DefaultClient),
		timeout: 5 * time.Minute,
	}, nil
}

// Query sends the prompt and image to the model and returns its reply
func (c *Client) Query(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 image: %w", err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream:  &streamFalse,
		Options: modelOptions(model),
	}

	var reply strings.Builder
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}
	if reply.Len() == 0 {
		return "", fmt.Errorf("empty response from ollama")
	}
	return reply.String(), nil
}

// modelOptions returns sampling options for models that need them.
// A low temperature keeps box coordinates stable between runs.
func modelOptions(model string) map[string]any {
	options := map[string]any{"temperature": 0.1}

	modelLower := strings.ToLower(model)
	if strings.Contains(modelLower, "minicpm-v") || strings.Contains(modelLower, "minicpmv") {
		options["num_ctx"] = 4096
	}
	return options
}
