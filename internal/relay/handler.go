package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/geniechat/geniechat/internal/chat"
	"github.com/geniechat/geniechat/internal/genie"
)

// Error details surfaced to clients when the relay itself is misconfigured.
// The space message matches what operators see in the hosted deployment.
const (
	detailSpaceNotConfigured     = "Genie Space ID not configured. Please set DATABRICKS_GENIE_SPACE_ID."
	detailWorkspaceNotConfigured = "Databricks workspace not configured. Please set DATABRICKS_HOST and DATABRICKS_TOKEN."
)

// maxRequestBody bounds send-message request bodies (1MB).
const maxRequestBody = 1 << 20

// Genie is the slice of the Genie client the handlers need.
type Genie interface {
	Configured() bool
	SpaceID() string
	Host() string
	StartConversation(ctx context.Context, content string) (*genie.Message, error)
	CreateMessage(ctx context.Context, conversationID, content string) (*genie.Message, error)
	QueryResult(ctx context.Context, conversationID, messageID, attachmentID string) (*genie.QueryResult, error)
	GetSpace(ctx context.Context) (*genie.Space, error)
}

// chatHandler serves the conversational endpoints.
type chatHandler struct {
	genie  Genie
	logger *slog.Logger
}

// sendMessage handles POST /api/genie/send-message: one exchange with the
// Genie space. A null conversation_id starts a new conversation; otherwise
// the message continues the identified one.
func (h *chatHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		writeDetail(w, http.StatusBadRequest, "content is required", h.logger)
		return
	}

	if !h.genie.Configured() {
		if h.genie.SpaceID() == "" {
			writeDetail(w, http.StatusInternalServerError, detailSpaceNotConfigured, h.logger)
			return
		}
		writeDetail(w, http.StatusInternalServerError, detailWorkspaceNotConfigured, h.logger)
		return
	}

	ctx, span := otel.Tracer("relay").Start(r.Context(), "genie.exchange")
	defer span.End()

	var (
		msg *genie.Message
		err error
	)
	if req.ConversationID == nil || *req.ConversationID == "" {
		h.logger.Info("starting new conversation")
		msg, err = h.genie.StartConversation(ctx, content)
	} else {
		h.logger.Info("continuing conversation", "conversation_id", *req.ConversationID)
		msg, err = h.genie.CreateMessage(ctx, *req.ConversationID, content)
	}
	if err != nil {
		span.RecordError(err)
		writeDetail(w, http.StatusInternalServerError, "Failed to communicate with Genie: "+err.Error(), h.logger)
		return
	}

	span.SetAttributes(
		attribute.String("genie.conversation_id", msg.ConversationID),
		attribute.String("genie.message_id", msg.ID),
	)

	writeJSON(w, http.StatusOK, h.buildResponse(ctx, msg))
}

// buildResponse flattens a terminal Genie message into the exchange response.
//
// Attachments are folded in: a text attachment supplies the answer text, a
// query attachment supplies the SQL and triggers a result fetch. Response
// content preference: query description, then text attachment, then the
// message content, then a fixed fallback.
func (h *chatHandler) buildResponse(ctx context.Context, msg *genie.Message) chat.Response {
	var (
		textContent      string
		sqlQuery         string
		queryDescription string
		results          *chat.QueryResults
	)

	for _, att := range msg.Attachments {
		if att.Text != nil {
			textContent = att.Text.Content
		}

		if att.Query != nil {
			sqlQuery = att.Query.Query
			queryDescription = att.Query.Description

			if att.ID == "" {
				continue
			}
			qr, err := h.genie.QueryResult(ctx, msg.ConversationID, msg.ID, att.ID)
			if err != nil {
				// A reply without its table is still useful.
				h.logger.Warn("failed to fetch query results",
					"message_id", msg.ID,
					"attachment_id", att.ID,
					"error", err)
				continue
			}
			if qr != nil {
				results = &chat.QueryResults{
					Columns:     qr.Columns,
					ColumnTypes: qr.ColumnTypes,
					Data:        qr.Data,
					RowCount:    qr.RowCount,
				}
				h.logger.Info("retrieved query results",
					"message_id", msg.ID,
					"rows", qr.RowCount)
			}
		}
	}

	content := queryDescription
	if content == "" {
		content = textContent
	}
	if content == "" {
		content = msg.Content
	}
	if content == "" {
		content = "Query completed successfully."
	}

	return chat.Response{
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		Content:        content,
		Status:         exchangeStatus(msg.Status),
		SQLQuery:       sqlQuery,
		Results:        results,
		Timestamp:      time.Now().UTC(),
	}
}

// exchangeStatus maps Genie message statuses onto the coarse wire statuses.
func exchangeStatus(s genie.MessageStatus) string {
	switch s {
	case genie.StatusCompleted:
		return "COMPLETED"
	case genie.StatusFailed:
		return "FAILED"
	default:
		return "PROCESSING"
	}
}

// genieHealth handles GET /api/genie/health: reports whether the relay can
// reach its configured Genie space. Identifying values are truncated so the
// endpoint can stay unauthenticated.
func (h *chatHandler) genieHealth(w http.ResponseWriter, r *http.Request) {
	type healthResponse struct {
		Status     string `json:"status"`
		Configured bool   `json:"configured"`
		SpaceID    string `json:"space_id,omitempty"`
		SpaceName  string `json:"space_name,omitempty"`
		Host       string `json:"host,omitempty"`
		Error      string `json:"error,omitempty"`
	}

	if h.genie.SpaceID() == "" {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:     "not_configured",
			Configured: false,
			Error:      "DATABRICKS_GENIE_SPACE_ID not set",
		})
		return
	}

	resp := healthResponse{
		Configured: true,
		SpaceID:    truncate(h.genie.SpaceID(), 8),
		Host:       truncate(h.genie.Host(), 30),
	}

	space, err := h.genie.GetSpace(r.Context())
	if err != nil {
		h.logger.Warn("failed to verify genie space", "error", err)
		resp.Status = "space_not_accessible"
		resp.Error = err.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Status = "healthy"
	resp.SpaceName = space.Title
	writeJSON(w, http.StatusOK, resp)
}

// truncate shortens s to n characters with an ellipsis marker.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
