package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// JoernResult is the canned reply for one query
type JoernResult struct {
	Success bool
	Stdout  string
	Stderr  string
}

// FakeJoernServer speaks the Joern query server protocol over httptest
type FakeJoernServer struct {
	Server *httptest.Server

	// Results maps query text to its reply; unknown queries succeed with empty stdout
	Results map[string]JoernResult
	// NotifyDelay postpones the websocket completion notification
	NotifyDelay time.Duration
	// SkipNotify never announces completion, simulating a hung query
	SkipNotify bool
	// Handshake overrides the first websocket message
	Handshake string
	// SkipHandshake accepts the websocket but never sends the first message
	SkipHandshake bool
	// PostStatus, when non-zero, is returned from /query instead of a uuid
	PostStatus int

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]string
	queries []string
}

var joernUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewFakeJoernServer starts a fake server; call Close when done
func NewFakeJoernServer() *FakeJoernServer {
	f := &FakeJoernServer{
		Results:   map[string]JoernResult{},
		Handshake: "connected",
		pending:   map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/connect", f.handleConnect)
	mux.HandleFunc("/query", f.handleQuery)
	mux.HandleFunc("/result/", f.handleResult)
	f.Server = httptest.NewServer(mux)
	return f
}

// Address returns host:port of the fake server
func (f *FakeJoernServer) Address() string {
	return strings.TrimPrefix(f.Server.URL, "http://")
}

// Queries returns every query text received so far
func (f *FakeJoernServer) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// Close shuts the server down
func (f *FakeJoernServer) Close() {
	f.mu.Lock()
	if f.conn != nil {
		f.conn.Close()
	}
	f.mu.Unlock()
	f.Server.Close()
}

func (f *FakeJoernServer) handleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := joernUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	f.mu.Lock()
	f.conn = conn
	if !f.SkipHandshake {
		err = conn.WriteMessage(websocket.TextMessage, []byte(f.Handshake))
	}
	f.mu.Unlock()
	if err != nil {
		conn.Close()
		return
	}

	// Drain until the client goes away so close frames are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *FakeJoernServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	if f.PostStatus != 0 {
		http.Error(w, "rejected", f.PostStatus)
		return
	}

	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	f.mu.Lock()
	f.pending[id] = body.Query
	f.queries = append(f.queries, body.Query)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"uuid": id})

	if f.SkipNotify {
		return
	}
	go func() {
		time.Sleep(f.NotifyDelay)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.conn != nil {
			_ = f.conn.WriteMessage(websocket.TextMessage, []byte("some-other-query"))
			_ = f.conn.WriteMessage(websocket.TextMessage, []byte(id))
		}
	}()
}

func (f *FakeJoernServer) handleResult(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/result/")

	f.mu.Lock()
	query, ok := f.pending[id]
	f.mu.Unlock()
	if !ok {
		http.Error(w, "unknown query", http.StatusNotFound)
		return
	}

	res, ok := f.Results[query]
	if !ok {
		res = JoernResult{Success: true}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": res.Success,
		"uuid":    id,
		"stdout":  res.Stdout,
		"stderr":  res.Stderr,
	})
}
