package genie

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geniechat/geniechat/internal/log"
	"github.com/geniechat/geniechat/internal/testutil"
)

func newTestClient(t *testing.T, ws *testutil.FakeWorkspace) *Client {
	t.Helper()
	return New(ClientConfig{
		Host:         ws.URL(),
		Token:        "test-token",
		SpaceID:      "space-1",
		PollInterval: time.Millisecond,
		Timeout:      time.Second,
		Logger:       log.NewNop(),
	})
}

func TestClient_Configured(t *testing.T) {
	t.Parallel()

	c := New(ClientConfig{Host: "https://x", Token: "t", SpaceID: "s"})
	assert.True(t, c.Configured())

	for _, cfg := range []ClientConfig{
		{Token: "t", SpaceID: "s"},
		{Host: "https://x", SpaceID: "s"},
		{Host: "https://x", Token: "t"},
	} {
		assert.False(t, New(cfg).Configured())
	}
}

func TestClient_NotConfiguredSentinel(t *testing.T) {
	t.Parallel()

	c := New(ClientConfig{})
	ctx := context.Background()

	_, err := c.StartConversation(ctx, "hi")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = c.CreateMessage(ctx, "conv", "hi")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = c.GetSpace(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStartConversation_PollsToCompletion(t *testing.T) {
	t.Parallel()

	ws := testutil.NewFakeWorkspace(t)
	ws.StatusScript = []string{"SUBMITTED", "EXECUTING_QUERY", "COMPLETED"}
	ws.MessageContent = "the answer"

	c := newTestClient(t, ws)

	msg, err := c.StartConversation(context.Background(), "question")
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, msg.Status)
	assert.Equal(t, "the answer", msg.Content)
	assert.Equal(t, 1, ws.StartCalls)
	assert.GreaterOrEqual(t, ws.GetCalls, 3, "one GET per scripted status")
}

func TestCreateMessage_RequiresConversationID(t *testing.T) {
	t.Parallel()

	ws := testutil.NewFakeWorkspace(t)
	c := newTestClient(t, ws)

	_, err := c.CreateMessage(context.Background(), "", "hi")
	assert.Error(t, err)
}

func TestWaitForCompletion_FailedStatus(t *testing.T) {
	t.Parallel()

	ws := testutil.NewFakeWorkspace(t)
	ws.StatusScript = []string{"SUBMITTED", "FAILED"}

	c := newTestClient(t, ws)

	_, err := c.StartConversation(context.Background(), "question")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMessageFailed)
	assert.Contains(t, err.Error(), "boom")
}

func TestWaitForCompletion_Cancelled(t *testing.T) {
	t.Parallel()

	ws := testutil.NewFakeWorkspace(t)
	ws.StatusScript = []string{"CANCELLED"}

	c := newTestClient(t, ws)

	_, err := c.StartConversation(context.Background(), "question")
	assert.ErrorIs(t, err, ErrMessageCancelled)
}

func TestWaitForCompletion_ContextCancelled(t *testing.T) {
	t.Parallel()

	ws := testutil.NewFakeWorkspace(t)
	ws.StatusScript = []string{"SUBMITTED"} // Never completes

	c := newTestClient(t, ws)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.StartConversation(ctx, "question")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueryResult_FlattensStatementResponse(t *testing.T) {
	t.Parallel()

	ws := testutil.NewFakeWorkspace(t)
	ws.QueryResultBody = map[string]any{
		"statement_response": map[string]any{
			"manifest": map[string]any{
				"schema": map[string]any{
					"columns": []map[string]any{
						{"name": "region", "type_text": "STRING"},
						{"name": "total", "type_text": "LONG"},
					},
				},
			},
			"result": map[string]any{
				"data_array": [][]string{{"west", "10"}, {"east", "20"}},
			},
		},
	}

	c := newTestClient(t, ws)

	res, err := c.QueryResult(context.Background(), "conv-1", "msg-1", "att-1")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, []string{"region", "total"}, res.Columns)
	assert.Equal(t, []string{"STRING", "LONG"}, res.ColumnTypes)
	assert.Equal(t, 2, res.RowCount)
	assert.Equal(t, [][]string{{"west", "10"}, {"east", "20"}}, res.Data)
}

func TestQueryResult_EmptyEnvelope(t *testing.T) {
	t.Parallel()

	ws := testutil.NewFakeWorkspace(t)
	// No statement_response at all
	c := newTestClient(t, ws)

	res, err := c.QueryResult(context.Background(), "conv-1", "msg-1", "att-1")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestGetSpace(t *testing.T) {
	t.Parallel()

	ws := testutil.NewFakeWorkspace(t)
	ws.SpaceTitle = "Sales Analytics"

	c := newTestClient(t, ws)

	space, err := c.GetSpace(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "space-1", space.ID)
	assert.Equal(t, "Sales Analytics", space.Title)
}

func TestMessageStatus_Terminal(t *testing.T) {
	t.Parallel()

	terminal := []MessageStatus{StatusCompleted, StatusFailed, StatusCancelled, StatusExpired}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), "%s", s)
	}

	pending := []MessageStatus{StatusSubmitted, StatusFilteringContext, StatusAskingAI, StatusPendingWarehouse, StatusExecutingQuery}
	for _, s := range pending {
		assert.False(t, s.Terminal(), "%s", s)
	}
}
