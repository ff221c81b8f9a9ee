package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geniechat/geniechat/internal/log"
	"github.com/geniechat/geniechat/internal/session"
)

// fakeSender scripts one exchange outcome and records requests.
type fakeSender struct {
	mu       sync.Mutex
	requests []Request
	resp     *Response
	err      error

	// block, when non-nil, holds Send until closed.
	block chan struct{}
}

func (f *fakeSender) Send(_ context.Context, req Request) (*Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return f.resp, f.err
}

func (f *fakeSender) sent() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

func newTestController(t *testing.T, sender Sender) (*Controller, *session.Session) {
	t.Helper()
	sess := session.New()
	c, err := NewController(sess, sender, log.NewNop())
	require.NoError(t, err)
	return c, sess
}

func TestNewController_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewController(nil, &fakeSender{}, log.NewNop())
	assert.Error(t, err)

	_, err = NewController(session.New(), nil, log.NewNop())
	assert.Error(t, err)

	_, err = NewController(session.New(), &fakeSender{}, nil)
	assert.NoError(t, err, "nil logger falls back to nop")
}

func TestSubmit_EmptyInputIsNoOp(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	c, sess := newTestController(t, sender)

	require.NoError(t, c.Submit(context.Background(), "   \n\t "))

	assert.Empty(t, sender.sent())
	assert.Equal(t, 1, sess.Len(), "only the welcome message")
}

func TestSubmit_Success(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{resp: &Response{
		ConversationID: "abc123",
		MessageID:      "msg-9",
		Content:        "There were 42 orders.",
		SQLQuery:       "SELECT count(*) FROM orders",
		Results: &QueryResults{
			Columns:  []string{"count"},
			Data:     [][]string{{"42"}},
			RowCount: 1,
		},
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}}
	c, sess := newTestController(t, sender)

	require.NoError(t, c.Submit(context.Background(), "how many orders?"))

	msgs := sess.Messages()
	require.Equal(t, 3, len(msgs))

	user := msgs[1]
	assert.Equal(t, session.SenderUser, user.Sender)
	assert.Equal(t, session.StatusSent, user.Status)
	assert.Equal(t, "how many orders?", user.Content)

	reply := msgs[2]
	assert.Equal(t, session.SenderAssistant, reply.Sender)
	assert.Equal(t, "msg-9", reply.ID)
	assert.Equal(t, "There were 42 orders.", reply.Content)
	assert.Equal(t, "SELECT count(*) FROM orders", reply.Query)
	require.NotNil(t, reply.Results)
	assert.Equal(t, 1, reply.Results.RowCount)

	assert.Equal(t, "abc123", sess.ConversationID())
	assert.Empty(t, sess.Err())

	// First request had no conversation ID
	reqs := sender.sent()
	require.Len(t, reqs, 1)
	assert.Nil(t, reqs[0].ConversationID)
}

func TestSubmit_SecondExchangeCarriesConversationID(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{resp: &Response{ConversationID: "abc123", Content: "ok"}}
	c, sess := newTestController(t, sender)

	require.NoError(t, c.Submit(context.Background(), "first"))
	require.NoError(t, c.Submit(context.Background(), "second"))

	reqs := sender.sent()
	require.Len(t, reqs, 2)
	assert.Nil(t, reqs[0].ConversationID)
	require.NotNil(t, reqs[1].ConversationID)
	assert.Equal(t, "abc123", *reqs[1].ConversationID)
	assert.Equal(t, "abc123", sess.ConversationID())
}

func TestSubmit_FailureWithDetail(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{err: &ExchangeError{StatusCode: 500, Detail: "token expired"}}
	c, sess := newTestController(t, sender)

	err := c.Submit(context.Background(), "hello")
	require.Error(t, err)

	msgs := sess.Messages()
	require.Equal(t, 2, len(msgs), "no assistant message on failure")
	assert.Equal(t, session.StatusError, msgs[1].Status)
	assert.Equal(t, "token expired", sess.Err())
}

func TestSubmit_FailureWithoutDetail(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{err: errors.New("connection refused")}
	c, sess := newTestController(t, sender)

	err := c.Submit(context.Background(), "hello")
	require.Error(t, err)

	assert.Equal(t, genericFailure, sess.Err())
}

func TestSubmit_FailureKeepsConversationID(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{resp: &Response{ConversationID: "abc123", Content: "ok"}}
	c, sess := newTestController(t, sender)
	require.NoError(t, c.Submit(context.Background(), "first"))

	sender.mu.Lock()
	sender.resp = nil
	sender.err = &ExchangeError{StatusCode: 502, Detail: "upstream down"}
	sender.mu.Unlock()

	require.Error(t, c.Submit(context.Background(), "second"))
	assert.Equal(t, "abc123", sess.ConversationID())
}

func TestSubmit_NextExchangeClearsError(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{err: &ExchangeError{StatusCode: 500, Detail: "token expired"}}
	c, sess := newTestController(t, sender)
	require.Error(t, c.Submit(context.Background(), "first"))
	require.Equal(t, "token expired", sess.Err())

	sender.mu.Lock()
	sender.err = nil
	sender.resp = &Response{Content: "ok"}
	sender.mu.Unlock()

	require.NoError(t, c.Submit(context.Background(), "second"))
	assert.Empty(t, sess.Err())
}

func TestSubmit_RejectsConcurrentExchange(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	sender := &fakeSender{resp: &Response{Content: "ok"}, block: block}
	c, sess := newTestController(t, sender)

	done := make(chan error, 1)
	go func() {
		done <- c.Submit(context.Background(), "slow")
	}()

	// Wait for the first exchange to be in flight
	require.Eventually(t, c.Pending, time.Second, 5*time.Millisecond)

	err := c.Submit(context.Background(), "fast")
	assert.ErrorIs(t, err, ErrExchangePending)
	assert.Equal(t, 2, sess.Len(), "rejected submit must not touch the session")

	close(block)
	require.NoError(t, <-done)
	assert.False(t, c.Pending())
}
