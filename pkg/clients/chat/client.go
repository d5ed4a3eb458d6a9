// Package chat provides the HTTP client for the chat/LLM collaborator that
// generates message text and evaluates free-text rules.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/journeyhq/journey/pkg/protocol"
)

const defaultTimeoutSeconds = 30

// Client implements protocol.Generator and protocol.AutomationControl
// against the chat service's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a chat client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeoutSeconds * time.Second,
		},
		logger: logger.With("module", "chat_client"),
	}
}

type generateRequest struct {
	Instruction string `json:"instruction"`
	SubjectID   string `json:"subject_id"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// GenerateText asks the chat service to produce message text from the
// node's instruction plus the subject's recent conversation history (the
// service holds the history; the engine only names the subject).
func (c *Client) GenerateText(ctx context.Context, instruction, subjectID string) (string, error) {
	var resp generateResponse

	err := c.post(ctx, "/generate", generateRequest{
		Instruction: instruction,
		SubjectID:   subjectID,
	}, &resp)
	if err != nil {
		return "", err
	}

	return resp.Text, nil
}

type evaluateRequest struct {
	Rule      string `json:"rule"`
	SubjectID string `json:"subject_id"`
}

type evaluateResponse struct {
	Answer string `json:"answer"`
}

// EvaluatePredicate asks whether the free-text rule holds for the subject,
// parsing the reply for a true/false token. Anything unparseable is false.
func (c *Client) EvaluatePredicate(ctx context.Context, rule, subjectID string) (bool, error) {
	var resp evaluateResponse

	err := c.post(ctx, "/evaluate", evaluateRequest{
		Rule:      rule,
		SubjectID: subjectID,
	}, &resp)
	if err != nil {
		return false, err
	}

	return ParseBoolToken(resp.Answer), nil
}

type disableRequest struct {
	SubjectID string `json:"subject_id"`
	Reason    string `json:"reason"`
}

// DisableAutomation turns off automated messaging for the subject.
func (c *Client) DisableAutomation(ctx context.Context, subjectID, reason string) error {
	return c.post(ctx, "/automation/disable", disableRequest{
		SubjectID: subjectID,
		Reason:    reason,
	}, nil)
}

// ParseBoolToken extracts a boolean from a model reply. The service is
// prompted to answer with a bare true/false but replies occasionally carry
// punctuation or surrounding prose; the first recognizable token wins.
func ParseBoolToken(answer string) bool {
	for _, field := range strings.Fields(strings.ToLower(answer)) {
		token := strings.Trim(field, ".,!:;\"'")

		switch token {
		case "true", "yes":
			return true
		case "false", "no":
			return false
		}
	}

	return false
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
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
		return fmt.Errorf("chat request failed: %w", err)
	}

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("chat service returned status %d: %s", resp.StatusCode, detail)
	}

	if out == nil {
		return nil
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("failed to decode chat response: %w", err)
	}

	return nil
}

var (
	_ protocol.Generator         = (*Client)(nil)
	_ protocol.AutomationControl = (*Client)(nil)
)
