package joern

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmatters/graphide-orchestrator/tests/helpers"
)

func TestQueryStatus_String(t *testing.T) {
	assert.Equal(t, "succeeded", QuerySucceeded.String())
	assert.Equal(t, "failed", QueryFailed.String())
	assert.Equal(t, "timed_out", QueryTimedOut.String())
	assert.Equal(t, "QueryStatus(42)", QueryStatus(42).String())
}

func TestClient_RunQuery(t *testing.T) {
	tests := []struct {
		name       string
		result     *helpers.JoernResult
		wantStatus QueryStatus
		wantText   string
	}{
		{
			name:       "successful_query",
			result:     &helpers.JoernResult{Success: true, Stdout: helpers.SliceOutput},
			wantStatus: QuerySucceeded,
			wantText:   helpers.SliceOutput,
		},
		{
			name:       "failed_query_returns_stderr",
			result:     &helpers.JoernResult{Success: false, Stderr: "error: value strcpyy is not a member"},
			wantStatus: QueryFailed,
			wantText:   "error: value strcpyy is not a member",
		},
		{
			name:       "unknown_query_defaults_to_empty_success",
			wantStatus: QuerySucceeded,
			wantText:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := helpers.NewFakeJoernServer()
			defer server.Close()
			if tt.result != nil {
				server.Results[helpers.SliceQuery] = *tt.result
			}

			client := NewClient(Config{Address: server.Address(), QueryTimeout: 5 * time.Second})
			status, text, err := client.RunQuery(context.Background(), helpers.SliceQuery)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, []string{helpers.SliceQuery}, server.Queries())
		})
	}
}

func TestClient_RunQuery_TimesOut(t *testing.T) {
	server := helpers.NewFakeJoernServer()
	defer server.Close()
	server.SkipNotify = true

	client := NewClient(Config{Address: server.Address(), QueryTimeout: 200 * time.Millisecond})

	start := time.Now()
	status, text, err := client.RunQuery(context.Background(), helpers.SliceQuery)

	require.NoError(t, err)
	assert.Equal(t, QueryTimedOut, status)
	assert.Contains(t, text, "timed out")
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestClient_RunQuery_SilentHandshakeTimesOut(t *testing.T) {
	server := helpers.NewFakeJoernServer()
	defer server.Close()
	server.SkipHandshake = true

	client := NewClient(Config{Address: server.Address(), QueryTimeout: 300 * time.Millisecond})

	start := time.Now()
	status, text, err := client.RunQuery(context.Background(), helpers.SliceQuery)

	require.NoError(t, err)
	assert.Equal(t, QueryTimedOut, status)
	assert.Contains(t, text, "timed out")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Empty(t, server.Queries())
}

func TestClient_RunQuery_CallerCancellationIsAnError(t *testing.T) {
	server := helpers.NewFakeJoernServer()
	defer server.Close()
	server.SkipNotify = true

	client := NewClient(Config{Address: server.Address(), QueryTimeout: 10 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, _, err := client.RunQuery(ctx, helpers.SliceQuery)
	assert.Error(t, err)
}

func TestClient_RunQuery_ProtocolErrors(t *testing.T) {
	t.Run("bad_handshake", func(t *testing.T) {
		server := helpers.NewFakeJoernServer()
		defer server.Close()
		server.Handshake = "hello"

		client := NewClient(Config{Address: server.Address(), QueryTimeout: time.Second})
		_, _, err := client.RunQuery(context.Background(), helpers.SliceQuery)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected handshake message")
	})

	t.Run("unauthorized_post", func(t *testing.T) {
		server := helpers.NewFakeJoernServer()
		defer server.Close()
		server.PostStatus = http.StatusUnauthorized

		client := NewClient(Config{Address: server.Address(), Username: "u", Password: "p", QueryTimeout: time.Second})
		_, _, err := client.RunQuery(context.Background(), helpers.SliceQuery)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "basic authentication failed")
	})

	t.Run("server_error_post", func(t *testing.T) {
		server := helpers.NewFakeJoernServer()
		defer server.Close()
		server.PostStatus = http.StatusInternalServerError

		client := NewClient(Config{Address: server.Address(), QueryTimeout: time.Second})
		_, _, err := client.RunQuery(context.Background(), helpers.SliceQuery)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "joern returned status 500")
	})

	t.Run("rejected_upgrade", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "forbidden", http.StatusForbidden)
		}))
		defer server.Close()

		client := NewClient(Config{Address: strings.TrimPrefix(server.URL, "http://"), QueryTimeout: time.Second})
		_, _, err := client.RunQuery(context.Background(), helpers.SliceQuery)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 403")
		assert.Contains(t, err.Error(), "forbidden")
	})

	t.Run("unreachable_server", func(t *testing.T) {
		server := helpers.NewFakeJoernServer()
		address := server.Address()
		server.Close()

		client := NewClient(Config{Address: address, QueryTimeout: time.Second})
		_, _, err := client.RunQuery(context.Background(), helpers.SliceQuery)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to dial joern websocket")
	})
}
