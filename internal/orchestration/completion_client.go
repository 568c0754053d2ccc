package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bizmatters/graphide-orchestrator/internal/models"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 60 * time.Second

// FailureReason classifies why a role invocation degraded
type FailureReason string

const (
	ReasonNetwork     FailureReason = "network"
	ReasonTimeout     FailureReason = "timeout"
	ReasonStatus      FailureReason = "status"
	ReasonDecode      FailureReason = "decode"
	ReasonSession     FailureReason = "session"
	ReasonCircuitOpen FailureReason = "circuit_open"
	ReasonEncode      FailureReason = "encode"
	// ReasonCanceled means the caller went away; it says nothing about the upstream.
	ReasonCanceled FailureReason = "canceled"
)

// DispatchFailure describes a transport-level failure for one role
type DispatchFailure struct {
	Reason FailureReason
	Err    error
}

func (f *DispatchFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Reason, f.Err)
}

func (f *DispatchFailure) Unwrap() error {
	return f.Err
}

// CompletionResult is the outcome of one role invocation. Exactly one of
// Answer/Raw or Failure is meaningful.
type CompletionResult struct {
	Role    Role
	Answer  string
	Raw     map[string]interface{}
	Failure *DispatchFailure
}

// Degraded reports whether the call failed and needs local fallback
func (r CompletionResult) Degraded() bool {
	return r.Failure != nil
}

// AgentOutput converts the result into its wire shape, synthesizing a
// fallback message for failed calls.
func (r CompletionResult) AgentOutput() models.AgentOutput {
	name := r.Role.String()
	if r.Failure == nil {
		return models.AgentOutput{
			AgentName:      name,
			MarkdownOutput: r.Answer,
			Metadata: map[string]interface{}{
				models.MetadataRawResponse: r.Raw,
			},
		}
	}

	errText := r.Failure.Err.Error()
	return models.AgentOutput{
		AgentName: name,
		MarkdownOutput: fmt.Sprintf("**Error calling Agent**: %s\n\n*Simulated Response for %s*:\nProcessed request for %s.",
			errText, name, name),
		Metadata: map[string]interface{}{
			models.MetadataError:    errText,
			models.MetadataReason:   string(r.Failure.Reason),
			models.MetadataMock:     true,
			models.MetadataDegraded: true,
		},
	}
}

// Dispatcher sends a built payload for a role to the completion service
type Dispatcher interface {
	Send(ctx context.Context, payload Payload, role Role) CompletionResult
	IsHealthy() bool
}

// CompletionConfig configures CompletionClient
type CompletionConfig struct {
	BaseURL        string
	APIKey         string
	SessionID      string
	ExternalUserID string
	RequestTimeout time.Duration
}

// CompletionClient talks to the OnDemand chat sessions API
type CompletionClient struct {
	baseURL        string
	apiKey         string
	externalUserID string
	timeout        time.Duration

	httpClient *http.Client
	tracer     trace.Tracer
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger

	sessionMu sync.Mutex
	sessionID string
}

type sessionResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// NewCompletionClient creates a client. An empty cfg.SessionID makes the
// client provision a remote session on first use.
func NewCompletionClient(cfg CompletionConfig, logger *zap.Logger) *CompletionClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	settings := gobreaker.Settings{
		Name:        "ondemand-completion",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &CompletionClient{
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		externalUserID: cfg.ExternalUserID,
		timeout:        timeout,
		sessionID:      cfg.SessionID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tracer:  otel.Tracer("completion-client"),
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// IsHealthy reports false while the circuit breaker is open
func (c *CompletionClient) IsHealthy() bool {
	return c.breaker.State() != gobreaker.StateOpen
}

// Send posts payload for role and never returns an error; failures are
// carried in the result.
func (c *CompletionClient) Send(ctx context.Context, payload Payload, role Role) CompletionResult {
	ctx, span := c.tracer.Start(ctx, "completion.send")
	defer span.End()

	span.SetAttributes(
		attribute.String("role", role.String()),
		attribute.String("endpoint_id", payload.EndpointID),
	)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, target := c.send(ctx, payload, role)
	duration := time.Since(start)

	fields := []zap.Field{
		zap.String("role", role.String()),
		zap.String("url", target),
		zap.String("endpoint_id", payload.EndpointID),
		zap.Int64("duration_ms", duration.Milliseconds()),
	}
	if result.Failure != nil {
		span.RecordError(result.Failure)
		span.SetStatus(codes.Error, string(result.Failure.Reason))
		c.logger.Warn("completion call degraded", append(fields,
			zap.String("outcome", "degraded"),
			zap.String("reason", string(result.Failure.Reason)),
			zap.Error(result.Failure.Err),
		)...)
		return result
	}

	c.logger.Info("completion call succeeded", append(fields, zap.String("outcome", "success"))...)
	return result
}

func (c *CompletionClient) send(ctx context.Context, payload Payload, role Role) (CompletionResult, string) {
	result := CompletionResult{Role: role}

	sessionID, err := c.session(ctx)
	if err != nil {
		result.Failure = classify(ctx, ReasonSession, err)
		return result, c.baseURL
	}
	target := fmt.Sprintf("%s/%s/query", c.baseURL, sessionID)

	body, err := json.Marshal(payload)
	if err != nil {
		result.Failure = &DispatchFailure{Reason: ReasonEncode, Err: fmt.Errorf("failed to marshal payload: %w", err)}
		return result, target
	}

	if err := ctx.Err(); err != nil {
		result.Failure = classify(ctx, ReasonNetwork, err)
		return result, target
	}

	raw, err := c.breaker.Execute(func() (interface{}, error) {
		return c.postQuery(ctx, target, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result.Failure = &DispatchFailure{Reason: ReasonCircuitOpen, Err: err}
		} else {
			result.Failure = classify(ctx, ReasonNetwork, err)
		}
		return result, target
	}

	result.Raw = raw.(map[string]interface{})
	result.Answer = answerOf(result.Raw)
	return result, target
}

func (c *CompletionClient) postQuery(ctx context.Context, target string, body []byte) (map[string]interface{}, error) {
	resp, err := c.do(ctx, target, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &DispatchFailure{
			Reason: ReasonStatus,
			Err:    fmt.Errorf("completion service returned status %d: %s", resp.StatusCode, string(bodyBytes)),
		}
	}

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &DispatchFailure{Reason: ReasonDecode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if decoded == nil {
		return nil, &DispatchFailure{Reason: ReasonDecode, Err: errors.New("failed to decode response: body is not an object")}
	}
	return decoded, nil
}

// session returns the remote session id, creating one if none is configured
func (c *CompletionClient) session(ctx context.Context) (string, error) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if c.sessionID != "" {
		return c.sessionID, nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"externalUserId": c.externalUserID,
		"pluginIds":      []string{},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal session request: %w", err)
	}

	resp, err := c.do(ctx, c.baseURL, body)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("session creation returned status %d", resp.StatusCode)
	}

	var created sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode session response: %w", err)
	}
	if created.Data.ID == "" {
		return "", errors.New("session response carried no id")
	}

	c.sessionID = created.Data.ID
	c.logger.Info("completion session created", zap.String("session_id", c.sessionID))
	return c.sessionID, nil
}

func (c *CompletionClient) do(ctx context.Context, target string, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("apikey", c.apiKey)

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	return resp, nil
}

// classify keeps an already classified failure and otherwise tags err with
// fallback, promoting deadline errors to timeouts and caller cancellation to
// canceled.
func classify(ctx context.Context, fallback FailureReason, err error) *DispatchFailure {
	var failure *DispatchFailure
	if errors.As(err, &failure) {
		return failure
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return &DispatchFailure{Reason: ReasonCanceled, Err: err}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &DispatchFailure{Reason: ReasonTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &DispatchFailure{Reason: ReasonTimeout, Err: err}
	}
	return &DispatchFailure{Reason: fallback, Err: err}
}

func answerOf(raw map[string]interface{}) string {
	data, ok := raw["data"].(map[string]interface{})
	if !ok {
		return ""
	}
	answer, _ := data["answer"].(string)
	return answer
}
