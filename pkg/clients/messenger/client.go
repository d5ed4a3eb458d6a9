// Package messenger provides the HTTP client for the messaging-channel
// delivery service.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/journeyhq/journey/pkg/protocol"
)

const defaultTimeoutSeconds = 30

// Client implements protocol.Messenger against the delivery sidecar's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a messenger client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeoutSeconds * time.Second,
		},
		logger: logger.With("module", "messenger_client"),
	}
}

type sendTextRequest struct {
	ChannelID string                 `json:"channel_id"`
	Text      string                 `json:"text"`
	Hints     protocol.DeliveryHints `json:"hints,omitempty"`
}

type sendAttachmentRequest struct {
	ChannelID string                 `json:"channel_id"`
	URL       string                 `json:"url"`
	Kind      string                 `json:"kind"`
	Hints     protocol.DeliveryHints `json:"hints,omitempty"`
}

// SendText delivers a text message to the subject's channel.
func (c *Client) SendText(ctx context.Context, channelID, text string, hints protocol.DeliveryHints) error {
	return c.post(ctx, "/messages/text", sendTextRequest{
		ChannelID: channelID,
		Text:      text,
		Hints:     hints,
	})
}

// SendAttachment delivers a media attachment to the subject's channel.
func (c *Client) SendAttachment(ctx context.Context, channelID, url, kind string, hints protocol.DeliveryHints) error {
	return c.post(ctx, "/messages/attachment", sendAttachmentRequest{
		ChannelID: channelID,
		URL:       url,
		Kind:      kind,
		Hints:     hints,
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("messenger request failed: %w", err)
	}

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("messenger returned status %d: %s", resp.StatusCode, detail)
	}

	return nil
}

var _ protocol.Messenger = (*Client)(nil)
