// Package gemini wraps the Google GenAI client as the model provider
// backend for CV grading.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Default model identifiers.
const (
	defaultFastModel     = "gemini-2.0-flash"
	defaultAccurateModel = "gemini-2.5-pro"
)

// Config holds provider connection settings.
type Config struct {
	APIKey        string
	BaseURL       string
	FastModel     string
	AccurateModel string
}

// Client wraps the Google GenAI client to provide prompt-based grading
// calls against a fast and an accurate model.
type Client struct {
	client        *genai.Client
	fastModel     string
	accurateModel string
}

// NewClient creates a new Client configured for the Gemini API backend.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	fast := strings.TrimSpace(cfg.FastModel)
	if fast == "" {
		fast = defaultFastModel
	}
	accurate := strings.TrimSpace(cfg.AccurateModel)
	if accurate == "" {
		accurate = defaultAccurateModel
	}

	return &Client{client: client, fastModel: fast, accurateModel: accurate}, nil
}

// Generate sends the prompt to the named model and returns the combined
// textual response plus the total billed token count for the call.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, int, error) {
	if c == nil || c.client == nil {
		return "", 0, errors.New("gemini client is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", 0, errors.New("prompt must not be empty")
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", 0, fmt.Errorf("generate content: %w", err)
	}

	var tokens int
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", tokens, errors.New("gemini api returned empty response")
	}

	return output, tokens, nil
}

// FastModel returns the configured cheap classification model id.
func (c *Client) FastModel() string {
	if c == nil {
		return ""
	}
	return c.fastModel
}

// AccurateModel returns the configured full grading model id.
func (c *Client) AccurateModel() string {
	if c == nil {
		return ""
	}
	return c.accurateModel
}

// IsTransient reports whether err represents a provider failure worth
// retrying: timeouts, rate limits, and server-side errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return true
		case apiErr.Code == http.StatusRequestTimeout:
			return true
		case apiErr.Code >= http.StatusInternalServerError:
			return true
		}
	}
	return false
}
