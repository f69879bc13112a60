package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tannerhall/repowatch/internal/logging"
)

const sendTimeout = 10 * time.Second

// OneBotClient talks to a OneBot v11 style HTTP API. It acts as both the
// destination resolver and the delivery sink.
type OneBotClient struct {
	apiURL      string
	accessToken string
	httpClient  *http.Client
	logger      logging.Logger
}

var (
	_ Resolver = (*OneBotClient)(nil)
	_ Sink     = (*OneBotClient)(nil)
)

// NewOneBotClient creates a OneBot API client.
func NewOneBotClient(apiURL, accessToken string, logger logging.Logger) *OneBotClient {
	return &OneBotClient{
		apiURL:      strings.TrimSuffix(apiURL, "/"),
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: sendTimeout},
		logger:      logger.Named("onebot"),
	}
}

// Resolve returns a stream handle for the group. Only the qq platform is
// addressable through the OneBot API; anything else is "not found".
func (c *OneBotClient) Resolve(groupID, platform string) (*Stream, error) {
	if c.apiURL == "" {
		return nil, fmt.Errorf("onebot.api_url is not configured")
	}
	if platform != "qq" {
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}
	return &Stream{ID: groupID, Platform: platform}, nil
}

// sendGroupMsgRequest is the OneBot send_group_msg payload.
type sendGroupMsgRequest struct {
	GroupID string `json:"group_id"`
	Message string `json:"message"`
}

// sendGroupMsgResponse holds the fields checked from the OneBot reply.
type sendGroupMsgResponse struct {
	Status  string `json:"status"`
	Retcode int    `json:"retcode"`
}

// Send posts a text message to the stream's group.
func (c *OneBotClient) Send(ctx context.Context, stream *Stream, text string) error {
	body, err := json.Marshal(sendGroupMsgRequest{GroupID: stream.ID, Message: text})
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/send_group_msg", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("onebot API returned status %d", resp.StatusCode)
	}

	var result sendGroupMsgResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode send response: %w", err)
	}
	if result.Retcode != 0 {
		return fmt.Errorf("onebot API rejected message: status=%s retcode=%d", result.Status, result.Retcode)
	}

	c.logger.Debug("Message sent", "group_id", stream.ID)
	return nil
}
