// Package chat implements the message exchange between the chat client and
// the relay.
//
// The Controller owns the optimistic-update protocol over the session's
// message sequence: append a provisional user message, issue exactly one
// outbound exchange, then settle or fail the provisional entry by message ID.
// At most one exchange is in flight at a time; that guard is the only
// concurrency control in the client.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/geniechat/geniechat/internal/log"
	"github.com/geniechat/geniechat/internal/session"
)

// ErrExchangePending is returned by Submit while a prior exchange has not
// settled yet. The session is not mutated in that case.
var ErrExchangePending = errors.New("chat: exchange already in flight")

// genericFailure is shown when a failed exchange carries no detail of its own.
const genericFailure = "Failed to send message. Please try again."

// Sender performs one exchange with the relay.
type Sender interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// Controller reconciles exchanges into the session.
//
// Note: The zero value is NOT useful - use NewController() to create instances.
type Controller struct {
	session *session.Session
	sender  Sender
	logger  log.Logger

	mu      sync.Mutex
	pending bool
}

// NewController creates a Controller bound to one session.
func NewController(sess *session.Session, sender Sender, logger log.Logger) (*Controller, error) {
	if sess == nil {
		return nil, errors.New("chat: session is required")
	}
	if sender == nil {
		return nil, errors.New("chat: sender is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Controller{session: sess, sender: sender, logger: logger}, nil
}

// Pending reports whether an exchange is currently in flight.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Submit runs one exchange for the given input and blocks until it settles.
//
// Empty or whitespace-only input is ignored without mutating the session.
// If a prior exchange is still pending, Submit returns ErrExchangePending
// and mutates nothing. Otherwise the session error is cleared, a provisional
// user message (status sending) is appended, and one request is sent.
//
// On success the pending message settles to sent, the conversation ID is
// adopted if the session had none, and the assistant reply is appended.
// On failure the pending message settles to error and the failure reason is
// recorded on the session; no assistant message is appended and any
// previously adopted conversation ID is kept. There is no automatic retry.
func (c *Controller) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrExchangePending
	}
	c.pending = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.pending = false
		c.mu.Unlock()
	}()

	c.session.ClearErr()

	userMsg := session.NewUserMessage(text)
	c.session.Append(userMsg)

	req := Request{Content: text}
	if id := c.session.ConversationID(); id != "" {
		req.ConversationID = &id
	}

	resp, err := c.sender.Send(ctx, req)
	if err != nil {
		c.failExchange(userMsg, err)
		return fmt.Errorf("exchange failed: %w", err)
	}

	c.settleExchange(userMsg, resp)
	return nil
}

// settleExchange applies the success patch: adopt the conversation ID,
// settle the pending message, and append the assistant turn.
func (c *Controller) settleExchange(userMsg session.Message, resp *Response) {
	c.session.AdoptConversationID(resp.ConversationID)

	userMsg.Status = session.StatusSent
	if !c.session.Replace(userMsg.ID, userMsg) {
		// Replace can only miss if the session was swapped out from under us.
		c.logger.Warn("pending message vanished before settle", "message_id", userMsg.ID)
	}

	assistant := session.NewAssistantMessage(resp.Content)
	if resp.MessageID != "" {
		assistant.ID = resp.MessageID
	}
	if !resp.Timestamp.IsZero() {
		assistant.Timestamp = resp.Timestamp
	}
	assistant.Query = resp.SQLQuery
	if resp.Results != nil {
		assistant.Results = &session.QueryResults{
			Columns:  resp.Results.Columns,
			Data:     resp.Results.Data,
			RowCount: resp.Results.RowCount,
		}
	}
	c.session.Append(assistant)

	c.logger.Debug("exchange settled",
		"conversation_id", resp.ConversationID,
		"message_id", resp.MessageID,
		"has_query", resp.SQLQuery != "")
}

// failExchange applies the failure patch: mark the pending message as errored
// and surface the failure reason on the session.
func (c *Controller) failExchange(userMsg session.Message, err error) {
	userMsg.Status = session.StatusError
	if !c.session.Replace(userMsg.ID, userMsg) {
		c.logger.Warn("pending message vanished before fail", "message_id", userMsg.ID)
	}
	c.session.SetErr(failureReason(err))

	c.logger.Warn("exchange failed", "error", err)
}

// failureReason extracts a user-facing message from an exchange error.
// Relay error bodies carry a detail string; anything else falls back to a
// generic message rather than leaking transport internals into the UI.
func failureReason(err error) string {
	var exchangeErr *ExchangeError
	if errors.As(err, &exchangeErr) && exchangeErr.Detail != "" {
		return exchangeErr.Detail
	}
	return genericFailure
}
