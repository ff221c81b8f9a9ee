package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/geniechat/geniechat/internal/log"
)

// sendMessagePath is the relay endpoint for one exchange.
const sendMessagePath = "/api/genie/send-message"

// ExchangeError is a non-2xx response from the relay. Detail carries the
// relay's human-readable failure reason when the body had one.
type ExchangeError struct {
	StatusCode int
	Detail     string
}

func (e *ExchangeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("relay error (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("relay error (status %d)", e.StatusCode)
}

// Client is the HTTP Sender that talks to the relay.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     log.Logger
}

// NewClient creates a relay client for the given base URL.
// Genie exchanges can take minutes, so the HTTP client carries no timeout of
// its own; cancellation is the caller's context.
func NewClient(baseURL string, logger log.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("chat: relay base URL is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}, nil
}

// Send performs one exchange round trip.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendMessagePath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &ExchangeError{
			StatusCode: httpResp.StatusCode,
			Detail:     errorDetail(body),
		}
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	c.logger.Debug("exchange completed",
		"conversation_id", resp.ConversationID,
		"duration", time.Since(start))

	return &resp, nil
}

// errorDetail extracts the "detail" field of a relay error body.
// Returns "" when the body is not JSON or has no detail, so callers fall
// back to a generic message.
func errorDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	return parsed.Detail
}
