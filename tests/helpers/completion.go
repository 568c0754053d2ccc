package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// CompletionCall is one request recorded by FakeCompletionServer
type CompletionCall struct {
	SessionID string
	APIKey    string
	Body      map[string]interface{}
}

// Query returns the query text of the recorded call
func (c CompletionCall) Query() string {
	q, _ := c.Body["query"].(string)
	return q
}

// CompletionReply describes how the fake answers one query
type CompletionReply struct {
	Status int
	Body   interface{}
	// Delay holds the response back; the request context still cancels it
	Delay time.Duration
}

// FakeCompletionServer imitates the OnDemand chat sessions API
type FakeCompletionServer struct {
	Server *httptest.Server

	// Respond picks the reply for a query body. Nil answers every query with
	// "answer: <query>".
	Respond func(body map[string]interface{}) CompletionReply
	// SessionStatus, when non-zero, fails session creation with that status
	SessionStatus int

	mu              sync.Mutex
	calls           []CompletionCall
	sessionsCreated int
}

// NewFakeCompletionServer starts a fake server; call Close when done
func NewFakeCompletionServer() *FakeCompletionServer {
	f := &FakeCompletionServer{}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// URL is the sessions base URL to configure clients with
func (f *FakeCompletionServer) URL() string {
	return f.Server.URL + "/chat/v1/sessions"
}

// Calls returns the query calls received so far
func (f *FakeCompletionServer) Calls() []CompletionCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CompletionCall(nil), f.calls...)
}

// SessionsCreated counts session provisioning requests
func (f *FakeCompletionServer) SessionsCreated() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessionsCreated
}

// Close shuts the server down
func (f *FakeCompletionServer) Close() {
	f.Server.Close()
}

func (f *FakeCompletionServer) handle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/chat/v1/sessions")
	path = strings.Trim(path, "/")

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if path == "" {
		f.handleCreateSession(w)
		return
	}

	sessionID, suffix, found := strings.Cut(path, "/")
	if !found || suffix != "query" {
		http.NotFound(w, r)
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, CompletionCall{
		SessionID: sessionID,
		APIKey:    r.Header.Get("apikey"),
		Body:      body,
	})
	respond := f.Respond
	f.mu.Unlock()

	reply := CompletionReply{
		Status: http.StatusOK,
		Body:   AnswerBody("answer: " + queryOf(body)),
	}
	if respond != nil {
		reply = respond(body)
	}

	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-r.Context().Done():
			return
		}
	}

	writeReply(w, reply)
}

func (f *FakeCompletionServer) handleCreateSession(w http.ResponseWriter) {
	if f.SessionStatus != 0 {
		http.Error(w, "session creation disabled", f.SessionStatus)
		return
	}

	f.mu.Lock()
	f.sessionsCreated++
	f.mu.Unlock()

	writeReply(w, CompletionReply{
		Status: http.StatusOK,
		Body: map[string]interface{}{
			"data": map[string]interface{}{"id": "fake-session"},
		},
	})
}

func writeReply(w http.ResponseWriter, reply CompletionReply) {
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	if raw, ok := reply.Body.(string); ok {
		w.WriteHeader(status)
		w.Write([]byte(raw))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(reply.Body)
}

func queryOf(body map[string]interface{}) string {
	q, _ := body["query"].(string)
	return q
}

// AnswerBody builds the nested response the completion API returns
func AnswerBody(answer string) map[string]interface{} {
	return map[string]interface{}{
		"message": "Chat query submitted successfully",
		"data": map[string]interface{}{
			"sessionId": "fake-session",
			"answer":    answer,
			"status":    "completed",
		},
	}
}
