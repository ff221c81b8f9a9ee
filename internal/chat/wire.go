package chat

import "time"

// Request is the JSON body of POST /api/genie/send-message.
// ConversationID is null on the first exchange of a session; afterwards the
// client echoes the identifier adopted from the first success.
type Request struct {
	Content        string  `json:"content"`
	ConversationID *string `json:"conversation_id"`
}

// QueryResults is the tabular payload of a Response.
type QueryResults struct {
	Columns     []string   `json:"columns"`
	ColumnTypes []string   `json:"column_types,omitempty"`
	Data        [][]string `json:"data"`
	RowCount    int        `json:"row_count"`
}

// Response is the JSON body of a successful exchange.
// SQLQuery and Results are only present when Genie generated a query.
type Response struct {
	ConversationID string        `json:"conversation_id"`
	MessageID      string        `json:"message_id"`
	Content        string        `json:"content"`
	Status         string        `json:"status"`
	SQLQuery       string        `json:"sql_query,omitempty"`
	Results        *QueryResults `json:"query_results,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}
