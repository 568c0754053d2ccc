package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bizmatters/graphide-orchestrator/internal/joern"
	"github.com/bizmatters/graphide-orchestrator/internal/models"
	"github.com/bizmatters/graphide-orchestrator/internal/orchestration"
	"github.com/bizmatters/graphide-orchestrator/tests/helpers"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	completion *helpers.FakeCompletionServer
	joern      *helpers.FakeJoernServer
	router     *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	completion := helpers.NewFakeCompletionServer()
	t.Cleanup(completion.Close)
	joernServer := helpers.NewFakeJoernServer()
	t.Cleanup(joernServer.Close)

	client := orchestration.NewCompletionClient(orchestration.CompletionConfig{
		BaseURL:        completion.URL(),
		APIKey:         "test-key",
		SessionID:      "test-session",
		RequestTimeout: 2 * time.Second,
	}, nil)
	engine := joern.NewClient(joern.Config{
		Address:      joernServer.Address(),
		QueryTimeout: 2 * time.Second,
	})

	o, err := orchestration.NewOrchestrator(orchestration.Options{
		Dispatcher: client,
		Engine:     engine,
		Routing:    orchestration.Routing{DefaultEndpointID: "predefined-openai-gpt4o"},
		Parallel:   true,
	})
	require.NoError(t, err)

	return &testEnv{
		completion: completion,
		joern:      joernServer,
		router:     NewRouter(NewHandler(o, nil), NewChatStream(o, nil), nil, nil),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHandler_HealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])

	w = env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, w)["status"])

	w = env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decode[map[string]string](t, w)["status"])
}

func TestHandler_Chat(t *testing.T) {
	t.Run("detector_stage_returns_two_outputs", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(t, http.MethodPost, "/chat", models.ChatRequest{
			Stage: "D",
			Query: "is strcpy safe here?",
			Files: helpers.DefaultFiles,
			Code:  helpers.VulnerableC,
		})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[models.ChatResponse](t, w)
		assert.Equal(t, models.StatusSuccess, resp.Status)
		require.Len(t, resp.AgentOutputs, 2)
		assert.Equal(t, "D", resp.AgentOutputs[0].AgentName)
		assert.Equal(t, "Knowledge", resp.AgentOutputs[1].AgentName)
		assert.Contains(t, resp.AgentOutputs[0].MarkdownOutput, "answer: You are Model D")
		assert.Len(t, env.completion.Calls(), 2)
	})

	t.Run("upstream_failure_still_succeeds", func(t *testing.T) {
		env := newTestEnv(t)
		env.completion.Respond = func(map[string]interface{}) helpers.CompletionReply {
			return helpers.CompletionReply{Status: http.StatusServiceUnavailable, Body: "overloaded"}
		}

		w := env.do(t, http.MethodPost, "/chat", models.ChatRequest{Stage: "Q", Query: "find overflows"})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[models.ChatResponse](t, w)
		assert.Equal(t, models.StatusSuccess, resp.Status)
		require.Len(t, resp.AgentOutputs, 1)
		assert.True(t, resp.AgentOutputs[0].Degraded())
		assert.Equal(t, "status", resp.AgentOutputs[0].Metadata[models.MetadataReason])
	})

	t.Run("invalid_json", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(t, http.MethodPost, "/chat", "{not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, models.ErrCodeInvalidRequest, decode[models.ErrorResponse](t, w).Code)
		assert.Empty(t, env.completion.Calls())
	})
}

func TestHandler_Scan(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/scan", models.ScanRequest{
		Intent:   "security_scan",
		FilePath: "src/copy.c",
		Language: "c",
		Files:    helpers.DefaultFiles,
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.ScanResponse](t, w)
	assert.Equal(t, models.StatusSuccess, resp.Status)
	assert.NotEmpty(t, resp.ScanID)
	assert.Equal(t, float64(len(helpers.DefaultFiles)), resp.Data["files_count"])
	assert.Empty(t, env.completion.Calls())

	w = env.do(t, http.MethodGet, "/scan/"+resp.ScanID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	record := decode[models.SessionRecord](t, w)
	assert.Equal(t, resp.ScanID, record.ID)
	assert.Equal(t, "src/copy.c", record.FilePath)

	w = env.do(t, http.MethodGet, "/scan/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.ErrCodeNotFound, decode[models.ErrorResponse](t, w).Code)
}

func TestHandler_Slice(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		env.joern.Results[helpers.SliceQuery] = helpers.JoernResult{Success: true, Stdout: helpers.SliceOutput}

		w := env.do(t, http.MethodPost, "/slice", models.SliceRequest{FilePath: "src/copy.c", Query: helpers.SliceQuery})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[models.SliceResponse](t, w)
		assert.Equal(t, models.StatusSuccess, resp.Status)
		assert.Equal(t, []models.Slice{{Raw: helpers.SliceOutput}}, resp.Slices)
	})

	t.Run("query_failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.joern.Results["cpg.bogus"] = helpers.JoernResult{Success: false, Stderr: "value bogus is not a member of Cpg"}

		w := env.do(t, http.MethodPost, "/slice", models.SliceRequest{Query: "cpg.bogus"})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[models.SliceResponse](t, w)
		assert.Equal(t, models.StatusError, resp.Status)
		assert.Empty(t, resp.Slices)
		assert.Equal(t, "query failed: value bogus is not a member of Cpg", resp.Message)
	})

	t.Run("missing_query", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(t, http.MethodPost, "/slice", map[string]string{"filePath": "a.c"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("engine_unreachable", func(t *testing.T) {
		env := newTestEnv(t)
		env.joern.Close()

		w := env.do(t, http.MethodPost, "/slice", models.SliceRequest{Query: helpers.SliceQuery})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, decode[models.ServerErrorResponse](t, w).Detail, "graph engine unavailable")
	})
}

func TestHandler_Media(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{name: "object", body: map[string]interface{}{"flowchartData": map[string]interface{}{"nodes": []string{"a"}}}, wantStatus: http.StatusOK},
		{name: "fenced_string", body: map[string]interface{}{"flowchartData": "```json\n{\"nodes\": []}\n```"}, wantStatus: http.StatusOK},
		{name: "unparseable_string", body: map[string]interface{}{"flowchartData": "graph TD; A-->B"}, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/media", tt.body)
			require.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus != http.StatusOK {
				assert.Contains(t, decode[models.ServerErrorResponse](t, w).Detail, "failed to parse JSON: graph TD")
				return
			}
			resp := decode[models.MediaResponse](t, w)
			assert.Equal(t, orchestration.PlaceholderImageURL, resp.ImageURL)
			assert.Equal(t, "Flowchart generated", resp.Message)
		})
	}
}

func TestHandler_Verify(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/verify", models.VerifyRequest{
		OriginalCode: helpers.VulnerableC,
		PatchedCode:  helpers.PatchedC,
		Language:     "c",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.VerifyResponse{Status: models.StatusSuccess, IsValid: true, Errors: []string{}}, decode[models.VerifyResponse](t, w))

	w = env.do(t, http.MethodPost, "/verify", models.VerifyRequest{PatchedCode: helpers.BrokenC, Language: "c"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.VerifyResponse](t, w)
	assert.False(t, resp.IsValid)
	assert.NotEmpty(t, resp.Errors)

	w = env.do(t, http.MethodPost, "/verify", "{broken")
	require.Equal(t, http.StatusOK, w.Code, "verify degrades instead of failing")
	resp = decode[models.VerifyResponse](t, w)
	assert.Equal(t, models.StatusError, resp.Status)
	assert.False(t, resp.IsValid)
	assert.Len(t, resp.Errors, 1)
}

func TestHandler_ReadyWhenBreakerOpen(t *testing.T) {
	env := newTestEnv(t)
	env.completion.Respond = func(map[string]interface{}) helpers.CompletionReply {
		return helpers.CompletionReply{Status: http.StatusBadGateway, Body: "down"}
	}

	for i := 0; i < 6; i++ {
		w := env.do(t, http.MethodPost, "/chat", models.ChatRequest{Stage: "General", Query: "hi"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
