package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeWorkspace emulates the Genie endpoints of a Databricks workspace for
// client tests. Message statuses are scripted: each GET of a message pops the
// next status from its script, sticking on the last one.
type FakeWorkspace struct {
	t  *testing.T
	mu sync.Mutex

	server *httptest.Server

	// Scripted statuses returned by successive GETs of any message.
	StatusScript []string

	// Content and attachments returned once the message completes.
	MessageContent string
	Attachments    []map[string]any

	// Query result envelope returned by the query-result endpoint.
	QueryResultBody map[string]any

	// Space metadata for GET space.
	SpaceTitle string

	// Request counters.
	StartCalls int
	CreateCall int
	GetCalls   int
}

// NewFakeWorkspace starts the fake server. Callers own Close via t.Cleanup.
func NewFakeWorkspace(t *testing.T) *FakeWorkspace {
	t.Helper()
	f := &FakeWorkspace{
		t:              t,
		StatusScript:   []string{"COMPLETED"},
		MessageContent: "answer",
		SpaceTitle:     "Test Space",
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the fake workspace base URL.
func (f *FakeWorkspace) URL() string {
	return f.server.URL
}

func (f *FakeWorkspace) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("Authorization") == "" {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/start-conversation"):
		f.StartCalls++
		f.writeJSON(w, map[string]any{
			"conversation_id": "conv-1",
			"message_id":      "msg-1",
		})

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/messages"):
		f.CreateCall++
		f.writeJSON(w, map[string]any{
			"id":              "msg-2",
			"conversation_id": pathSegment(path, "conversations"),
			"status":          "SUBMITTED",
		})

	case r.Method == http.MethodGet && strings.Contains(path, "/query-result"):
		body := f.QueryResultBody
		if body == nil {
			body = map[string]any{}
		}
		f.writeJSON(w, body)

	case r.Method == http.MethodGet && strings.Contains(path, "/messages/"):
		f.GetCalls++
		status := f.StatusScript[0]
		if len(f.StatusScript) > 1 {
			f.StatusScript = f.StatusScript[1:]
		}
		msg := map[string]any{
			"id":      pathSegment(path, "messages"),
			"status":  status,
			"content": f.MessageContent,
		}
		if status == "COMPLETED" && f.Attachments != nil {
			msg["attachments"] = f.Attachments
		}
		if status == "FAILED" {
			// Databricks nests the detail under error.error
			msg["error"] = map[string]any{"type": "INTERNAL", "error": "boom"}
		}
		f.writeJSON(w, msg)

	case r.Method == http.MethodGet && strings.Contains(path, "/genie/spaces/"):
		f.writeJSON(w, map[string]any{
			"space_id": pathSegment(path, "spaces"),
			"title":    f.SpaceTitle,
		})

	default:
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	}
}

func (f *FakeWorkspace) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		f.t.Errorf("fake workspace encode: %v", err)
	}
}

// pathSegment returns the path element following the named one.
func pathSegment(path, after string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if p == after && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}
