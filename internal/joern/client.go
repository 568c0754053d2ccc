// Package joern talks to a Joern code-property-graph query server.
//
// The server protocol is asynchronous: the client opens a websocket on
// /connect, posts the query to /query and receives a query id, waits for
// that id to be announced on the websocket, then fetches /result/{id}.
package joern

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const connectedMessage = "connected"

// QueryStatus is the outcome of a query that reached the server
type QueryStatus int

const (
	QuerySucceeded QueryStatus = iota
	QueryFailed
	QueryTimedOut
)

func (s QueryStatus) String() string {
	switch s {
	case QuerySucceeded:
		return "succeeded"
	case QueryFailed:
		return "failed"
	case QueryTimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("QueryStatus(%d)", int(s))
	}
}

// Config configures a Client
type Config struct {
	// Address is host:port of the query server
	Address      string
	Username     string
	Password     string
	QueryTimeout time.Duration
}

// Client executes CPGQL queries against a running Joern server
type Client struct {
	httpBase     string
	wsBase       string
	username     string
	password     string
	queryTimeout time.Duration
	httpClient   *http.Client
	dialer       websocket.Dialer
	tracer       trace.Tracer
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	UUID string `json:"uuid"`
}

type resultResponse struct {
	Success bool   `json:"success"`
	UUID    string `json:"uuid"`
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr"`
	Err     string `json:"err,omitempty"`
}

// NewClient creates a new Joern client
func NewClient(cfg Config) *Client {
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		httpBase:     "http://" + cfg.Address,
		wsBase:       "ws://" + cfg.Address,
		username:     cfg.Username,
		password:     cfg.Password,
		queryTimeout: timeout,
		httpClient:   &http.Client{},
		dialer: websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		tracer: otel.Tracer("joern-client"),
	}
}

// RunQuery executes query and returns its status with stdout on success or
// stderr on failure. The returned error is non-nil only when the server could
// not be reached or spoke an unexpected protocol.
func (c *Client) RunQuery(ctx context.Context, query string) (QueryStatus, string, error) {
	ctx, span := c.tracer.Start(ctx, "joern.run_query")
	defer span.End()
	span.SetAttributes(attribute.Int("query.length", len(query)))

	queryCtx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	status, text, err := c.runQuery(queryCtx, query)
	if err != nil && errors.Is(queryCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		status, text, err = QueryTimedOut, fmt.Sprintf("query timed out after %s", c.queryTimeout), nil
	}
	if err != nil {
		span.RecordError(err)
		return QueryFailed, "", err
	}

	span.SetAttributes(attribute.String("query.status", status.String()))
	return status, text, nil
}

func (c *Client) runQuery(ctx context.Context, query string) (QueryStatus, string, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return QueryFailed, "", err
	}
	defer conn.Close()

	// Unblock pending reads, the handshake included, when the deadline fires.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := awaitHandshake(conn); err != nil {
		return QueryFailed, "", err
	}

	queryID, err := c.postQuery(ctx, query)
	if err != nil {
		return QueryFailed, "", err
	}

	if err := awaitCompletion(conn, queryID); err != nil {
		return QueryFailed, "", err
	}

	res, err := c.fetchResult(ctx, queryID)
	if err != nil {
		return QueryFailed, "", err
	}

	if res.Success {
		return QuerySucceeded, res.Stdout, nil
	}
	if res.Stderr != "" {
		return QueryFailed, res.Stderr, nil
	}
	if res.Err != "" {
		return QueryFailed, res.Err, nil
	}
	return QueryFailed, res.Stdout, nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.wsBase + "/connect")
	if err != nil {
		return nil, fmt.Errorf("failed to parse websocket URL: %w", err)
	}

	headers := http.Header{}
	if c.username != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
		headers.Set("Authorization", "Basic "+creds)
	}

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			bodyBytes, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("failed to dial joern websocket (status %d): %s, error: %w", resp.StatusCode, string(bodyBytes), err)
		}
		return nil, fmt.Errorf("failed to dial joern websocket: %w", err)
	}
	return conn, nil
}

func awaitHandshake(conn *websocket.Conn) error {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read handshake message: %w", err)
	}
	if string(msg) != connectedMessage {
		return fmt.Errorf("unexpected handshake message %q", string(msg))
	}
	return nil
}

func (c *Client) postQuery(ctx context.Context, query string) (string, error) {
	jsonData, err := json.Marshal(queryRequest{Query: query})
	if err != nil {
		return "", fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.httpBase+"/query", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to post query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("joern basic authentication failed")
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("joern returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return "", fmt.Errorf("failed to decode query response: %w", err)
	}
	if qr.UUID == "" {
		return "", fmt.Errorf("joern query response carried no uuid")
	}
	return qr.UUID, nil
}

// awaitCompletion reads notifications until queryID is announced
func awaitCompletion(conn *websocket.Conn, queryID string) error {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed waiting for query %s: %w", queryID, err)
		}
		if string(msg) == queryID {
			return nil
		}
	}
}

func (c *Client) fetchResult(ctx context.Context, queryID string) (*resultResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.httpBase+"/result/"+url.PathEscape(queryID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("joern returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var res resultResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &res, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}
