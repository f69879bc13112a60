// Package commentary generates short remarks about commits through an
// OpenAI-compatible chat completions endpoint. Everything here is
// best-effort: the dispatcher discards failures without affecting the
// primary notification.
package commentary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tannerhall/repowatch/internal/logging"
	"github.com/tannerhall/repowatch/internal/notify"
)

const generateTimeout = 30 * time.Second

// Client calls a chat completions API to produce a remark.
type Client struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     logging.Logger
}

var _ notify.Commentator = (*Client)(nil)

// NewClient creates a commentary client.
func NewClient(apiURL, apiKey, model string, logger logging.Logger) *Client {
	return &Client{
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: generateTimeout},
		logger:     logger.Named("commentary"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Comment asks the model for a remark about raw, guided by instruction.
func (c *Client) Comment(ctx context.Context, stream *notify.Stream, raw, instruction string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: instruction},
			{Role: "user", Content: raw},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API returned status %d", resp.StatusCode)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	remark := strings.TrimSpace(result.Choices[0].Message.Content)
	c.logger.Debug("Generated remark", "group_id", stream.ID, "length", len(remark))
	return remark, nil
}
