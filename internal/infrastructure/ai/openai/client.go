// Package openai talks to OpenAI compatible chat completion endpoints, which
// covers OpenAI, Groq and OpenRouter.
package openai

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

	"founder-connect/internal/infrastructure/ai"
)

var providerDefaults = map[string]struct {
	baseURL string
	model   string
}{
	"openai":     {baseURL: "https://api.openai.com/v1", model: "gpt-4o-mini"},
	"groq":       {baseURL: "https://api.groq.com/openai/v1", model: "llama-3.1-8b-instant"},
	"openrouter": {baseURL: "https://openrouter.ai/api/v1", model: "openai/gpt-4o-mini"},
}

type Client struct {
	provider string
	baseURL  string
	apiKey   string
	model    string
	http     *http.Client
}

type Options struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

func New(opts Options) (*Client, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	def, known := providerDefaults[provider]

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		if !known {
			return nil, fmt.Errorf("unknown provider %q and no base url", opts.Provider)
		}
		baseURL = def.baseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = def.model
	}
	if model == "" {
		return nil, errors.New("model is required")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("api key is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		provider: provider,
		baseURL:  baseURL,
		apiKey:   strings.TrimSpace(opts.APIKey),
		model:    model,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	if c == nil || c.http == nil {
		return "", errors.New("nil llm client")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	messages := make([]chatMessage, 0, 2)
	if s := strings.TrimSpace(system); s != "" {
		messages = append(messages, chatMessage{Role: "system", Content: s})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	b, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &ai.StatusError{Provider: c.provider, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(rb))}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("completion returned empty content")
	}
	return text, nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

var _ ai.Generator = (*Client)(nil)
