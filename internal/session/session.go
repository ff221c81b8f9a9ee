// Package session holds the in-memory conversation state for one chat session.
//
// Responsibilities: ordered message sequence, the Genie conversation
// identifier, and the last exchange error. The Session is the single source
// of truth for what the UI renders; it is mutated only by the exchange
// controller and discarded when the UI exits (no persistence).
//
// Thread Safety: all methods are safe for concurrent use; accessors return
// defensive copies.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who produced a message.
type Sender string

// Message senders.
const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Status is the lifecycle state of a user-originated message.
// A user message transitions sending → sent or sending → error exactly once;
// neither terminal state ever transitions back.
type Status string

// Message lifecycle statuses. Assistant messages are always StatusSent.
const (
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	StatusError   Status = "error"
)

// QueryResults is the tabular payload attached to an assistant message.
// RowCount is the true total; rendering may show fewer rows.
type QueryResults struct {
	Columns  []string
	Data     [][]string
	RowCount int
}

// Message is a single conversation entry.
type Message struct {
	ID        string
	Content   string
	Sender    Sender
	Timestamp time.Time
	Status    Status
	Query     string        // Generated SQL, assistant messages only (may be empty)
	Results   *QueryResults // Tabular results, assistant messages only (may be nil)
}

// NewUserMessage builds a pending user message with a fresh ID.
func NewUserMessage(content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    SenderUser,
		Timestamp: time.Now(),
		Status:    StatusSending,
	}
}

// NewAssistantMessage builds a settled assistant message with a fresh ID.
func NewAssistantMessage(content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    SenderAssistant,
		Timestamp: time.Now(),
		Status:    StatusSent,
	}
}

// welcomeText seeds every new session with a synthetic assistant greeting.
const welcomeText = "Hi! I'm Genie, your conversational data assistant. " +
	"Ask me anything about your data and I'll answer with a generated query and its results."

// Session is the single-instance conversation state.
//
// Note: The zero value is NOT useful - use New() to create instances.
type Session struct {
	mu             sync.RWMutex
	conversationID string
	messages       []Message
	err            string
}

// New creates a Session seeded with the synthetic welcome message.
func New() *Session {
	s := &Session{messages: make([]Message, 0, 8)}
	s.messages = append(s.messages, NewAssistantMessage(welcomeText))
	return s
}

// Messages returns a copy of the ordered message sequence.
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Message, len(s.messages))
	copy(result, s.messages)
	return result
}

// Len returns the number of messages.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Append adds a message to the end of the sequence.
func (s *Session) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// Replace swaps the message with the given ID for the provided message.
// Replacement is id-addressed rather than positional so it stays correct
// even if more than one exchange is ever allowed in flight.
// Returns false if no message has that ID.
func (s *Session) Replace(id string, msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i] = msg
			return true
		}
	}
	return false
}

// ConversationID returns the Genie conversation identifier, or "" before the
// first successful exchange.
func (s *Session) ConversationID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversationID
}

// AdoptConversationID stores the identifier returned by the first successful
// exchange. Once set it is never overwritten; later calls with a different
// value are ignored so the whole session stays on one conversation.
func (s *Session) AdoptConversationID(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conversationID == "" {
		s.conversationID = id
	}
}

// Err returns the error from the most recent failed exchange, or "".
func (s *Session) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// SetErr records the failure reason of the current exchange.
func (s *Session) SetErr(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = msg
}

// ClearErr resets the session error. Called at the start of each new attempt.
func (s *Session) ClearErr() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}
