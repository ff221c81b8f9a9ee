// Package genie is a lightweight client for the Databricks Genie
// Conversational API.
//
// Genie answers natural-language questions about data in a "space": a message
// is submitted, processed asynchronously, and may carry attachments with a
// generated SQL query and its tabular result. The client hides the
// asynchronous part behind StartConversation/CreateMessage, which poll the
// message until it reaches a terminal status.
package genie

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/geniechat/geniechat/internal/log"
)

// apiPrefix is the Genie REST API root under the workspace host.
const apiPrefix = "/api/2.0/genie/spaces"

// Sentinel errors. Check with errors.Is().
var (
	// ErrNotConfigured indicates host, token, or space ID is missing.
	ErrNotConfigured = errors.New("genie: workspace not configured")

	// ErrMessageFailed indicates Genie reported a terminal FAILED status.
	ErrMessageFailed = errors.New("genie: message processing failed")

	// ErrMessageCancelled indicates the message was cancelled server-side.
	ErrMessageCancelled = errors.New("genie: message cancelled")
)

// APIError is a non-2xx response from the Genie API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("genie API error (status %d): %s", e.StatusCode, e.Message)
}

// ClientConfig contains configuration for creating a Client.
type ClientConfig struct {
	Host         string        // Workspace base URL, e.g. https://adb-123.azuredatabricks.net
	Token        string        // Personal access token
	SpaceID      string        // Genie space to converse with
	PollInterval time.Duration // Status poll cadence (0 = 2s)
	Timeout      time.Duration // Completion budget per message (0 = 5m)
	HTTPClient   *http.Client  // Optional; defaults to a client with a per-request timeout
	Logger       log.Logger    // Optional; defaults to slog.Default()
}

// Client talks to one Genie space on one workspace.
type Client struct {
	host         string
	token        string
	spaceID      string
	pollInterval time.Duration
	timeout      time.Duration
	httpClient   *http.Client
	logger       log.Logger
}

// New creates a Genie client. Missing credentials are not an error here:
// Configured() reports readiness and every request fails with
// ErrNotConfigured until the workspace settings are present, which lets the
// relay start before its environment is fully provisioned.
func New(cfg ClientConfig) *Client {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.Config{})
	}

	return &Client{
		host:         strings.TrimRight(cfg.Host, "/"),
		token:        cfg.Token,
		spaceID:      cfg.SpaceID,
		pollInterval: pollInterval,
		timeout:      timeout,
		httpClient:   httpClient,
		logger:       logger,
	}
}

// Configured reports whether host, token, and space ID are all present.
func (c *Client) Configured() bool {
	return c.host != "" && c.token != "" && c.spaceID != ""
}

// SpaceID returns the configured Genie space ID (may be empty).
func (c *Client) SpaceID() string {
	return c.spaceID
}

// Host returns the configured workspace base URL (may be empty).
func (c *Client) Host() string {
	return c.host
}

// StartConversation submits the first message of a new conversation and waits
// for it to reach a terminal status.
func (c *Client) StartConversation(ctx context.Context, content string) (*Message, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	reqURL := c.spaceURL("start-conversation")

	var resp startConversationResponse
	if err := c.makeRequest(ctx, http.MethodPost, reqURL, map[string]string{"content": content}, &resp); err != nil {
		return nil, fmt.Errorf("start conversation: %w", err)
	}

	c.logger.Info("started genie conversation",
		"conversation_id", resp.ConversationID,
		"message_id", resp.MessageID)

	return c.waitForCompletion(ctx, resp.ConversationID, resp.MessageID)
}

// CreateMessage appends a message to an existing conversation and waits for
// it to reach a terminal status.
func (c *Client) CreateMessage(ctx context.Context, conversationID, content string) (*Message, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if conversationID == "" {
		return nil, fmt.Errorf("genie: conversation ID is required")
	}

	reqURL := c.spaceURL("conversations", conversationID, "messages")

	var msg Message
	if err := c.makeRequest(ctx, http.MethodPost, reqURL, map[string]string{"content": content}, &msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	c.logger.Info("sent genie message",
		"conversation_id", conversationID,
		"message_id", msg.ID)

	return c.waitForCompletion(ctx, conversationID, msg.ID)
}

// GetMessage fetches the current state of a message.
func (c *Client) GetMessage(ctx context.Context, conversationID, messageID string) (*Message, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	reqURL := c.spaceURL("conversations", conversationID, "messages", messageID)

	var msg Message
	if err := c.makeRequest(ctx, http.MethodGet, reqURL, nil, &msg); err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &msg, nil
}

// QueryResult fetches the tabular result of a query attachment and flattens
// the statement execution envelope into columns/rows/row count.
func (c *Client) QueryResult(ctx context.Context, conversationID, messageID, attachmentID string) (*QueryResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	reqURL := c.spaceURL("conversations", conversationID, "messages", messageID, "attachments", attachmentID, "query-result")

	var resp queryResultResponse
	if err := c.makeRequest(ctx, http.MethodGet, reqURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("get query result: %w", err)
	}

	sr := resp.StatementResponse
	if sr == nil {
		return nil, nil
	}

	result := &QueryResult{}
	if sr.Result != nil {
		result.Data = sr.Result.DataArray
	}
	if sr.Manifest != nil && sr.Manifest.Schema != nil {
		for _, col := range sr.Manifest.Schema.Columns {
			result.Columns = append(result.Columns, col.Name)
			result.ColumnTypes = append(result.ColumnTypes, col.TypeText)
		}
	}
	result.RowCount = len(result.Data)

	if len(result.Columns) == 0 || len(result.Data) == 0 {
		// A statement without usable schema or rows renders nothing.
		return nil, nil
	}
	return result, nil
}

// GetSpace fetches the space metadata. Used by the health check to verify
// the configured space is reachable with the configured credentials.
func (c *Client) GetSpace(ctx context.Context) (*Space, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	reqURL := c.host + apiPrefix + "/" + url.PathEscape(c.spaceID)

	var space Space
	if err := c.makeRequest(ctx, http.MethodGet, reqURL, nil, &space); err != nil {
		return nil, fmt.Errorf("get space: %w", err)
	}
	return &space, nil
}

// waitForCompletion polls the message until Terminal() or the completion
// budget expires. COMPLETED returns the message; FAILED/CANCELLED/EXPIRED
// map to sentinel errors so callers can errors.Is them.
func (c *Client) waitForCompletion(ctx context.Context, conversationID, messageID string) (*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		msg, err := c.GetMessage(ctx, conversationID, messageID)
		if err != nil {
			return nil, err
		}

		if msg.Status.Terminal() {
			switch msg.Status {
			case StatusCompleted:
				return msg, nil
			case StatusFailed:
				if msg.Error != nil && msg.Error.Message != "" {
					return msg, fmt.Errorf("%w: %s", ErrMessageFailed, msg.Error.Message)
				}
				return msg, ErrMessageFailed
			case StatusCancelled:
				return msg, ErrMessageCancelled
			default:
				return msg, fmt.Errorf("genie: message ended with status %s", msg.Status)
			}
		}

		c.logger.Debug("genie message pending",
			"message_id", messageID,
			"status", msg.Status)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for message %s: %w", messageID, ctx.Err())
		case <-ticker.C:
		}
	}
}

// spaceURL joins path elements under the configured space.
func (c *Client) spaceURL(elem ...string) string {
	var b strings.Builder
	b.WriteString(c.host)
	b.WriteString(apiPrefix)
	b.WriteString("/")
	b.WriteString(url.PathEscape(c.spaceID))
	for _, e := range elem {
		b.WriteString("/")
		b.WriteString(url.PathEscape(e))
	}
	return b.String()
}

// makeRequest is a helper method to make HTTP requests to the Genie API.
func (c *Client) makeRequest(ctx context.Context, method, reqURL string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: apiErrorMessage(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// apiErrorMessage extracts the "message" field of a Databricks error body,
// falling back to the raw body.
func apiErrorMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return strings.TrimSpace(string(body))
}
