package genie

// MessageStatus is the processing state reported by the Genie API for a message.
type MessageStatus string

// Genie message statuses. Only a subset is terminal; everything else means
// the space is still working on the message.
const (
	StatusSubmitted        MessageStatus = "SUBMITTED"
	StatusFilteringContext MessageStatus = "FILTERING_CONTEXT"
	StatusAskingAI         MessageStatus = "ASKING_AI"
	StatusPendingWarehouse MessageStatus = "PENDING_WAREHOUSE"
	StatusExecutingQuery   MessageStatus = "EXECUTING_QUERY"
	StatusCompleted        MessageStatus = "COMPLETED"
	StatusFailed           MessageStatus = "FAILED"
	StatusCancelled        MessageStatus = "CANCELLED"
	StatusExpired          MessageStatus = "QUERY_RESULT_EXPIRED"
)

// Terminal reports whether the status ends the polling loop.
func (s MessageStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// Message is a single Genie conversation message as returned by the API.
type Message struct {
	ID             string        `json:"id"`
	SpaceID        string        `json:"space_id"`
	ConversationID string        `json:"conversation_id"`
	Content        string        `json:"content"`
	Status         MessageStatus `json:"status"`
	Attachments    []Attachment  `json:"attachments,omitempty"`
	Error          *MessageError `json:"error,omitempty"`
	CreatedMillis  int64         `json:"created_timestamp,omitempty"`
}

// MessageError carries the failure detail of a FAILED message.
type MessageError struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"error,omitempty"`
}

// Attachment is one message attachment. Exactly one of Text or Query is set.
type Attachment struct {
	ID    string           `json:"attachment_id"`
	Text  *TextAttachment  `json:"text,omitempty"`
	Query *QueryAttachment `json:"query,omitempty"`
}

// TextAttachment is a free-text answer attachment.
type TextAttachment struct {
	Content string `json:"content"`
}

// QueryAttachment is a generated-query attachment.
type QueryAttachment struct {
	Query       string `json:"query"`
	Description string `json:"description,omitempty"`
	StatementID string `json:"statement_id,omitempty"`
}

// startConversationResponse is the envelope of POST .../start-conversation.
type startConversationResponse struct {
	ConversationID string   `json:"conversation_id"`
	MessageID      string   `json:"message_id"`
	Message        *Message `json:"message,omitempty"`
}

// queryResultResponse is the envelope of GET .../query-result.
type queryResultResponse struct {
	StatementResponse *statementResponse `json:"statement_response,omitempty"`
}

type statementResponse struct {
	StatementID string             `json:"statement_id,omitempty"`
	Manifest    *statementManifest `json:"manifest,omitempty"`
	Result      *statementResult   `json:"result,omitempty"`
}

type statementManifest struct {
	Schema *statementSchema `json:"schema,omitempty"`
}

type statementSchema struct {
	Columns []statementColumn `json:"columns,omitempty"`
}

type statementColumn struct {
	Name     string `json:"name"`
	TypeText string `json:"type_text,omitempty"`
}

type statementResult struct {
	DataArray [][]string `json:"data_array,omitempty"`
}

// QueryResult is the tabular output of an executed query attachment,
// flattened from the statement execution response.
type QueryResult struct {
	Columns     []string   `json:"columns"`
	ColumnTypes []string   `json:"column_types,omitempty"`
	Data        [][]string `json:"data"`
	RowCount    int        `json:"row_count"`
}

// Space describes a Genie space, used by the health check.
type Space struct {
	ID          string `json:"space_id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}
