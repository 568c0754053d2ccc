package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/bizmatters/graphide-orchestrator/internal/jsonutil"
	"github.com/bizmatters/graphide-orchestrator/internal/metrics"
	"github.com/bizmatters/graphide-orchestrator/internal/models"
	"github.com/bizmatters/graphide-orchestrator/internal/verify"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PlaceholderImageURL is returned until a media backend renders flowcharts
const PlaceholderImageURL = "https://placehold.co/600x400?text=Vulnerability+Flowchart"

// PatchVerifier checks a proposed patch
type PatchVerifier interface {
	Verify(ctx context.Context, original, patched, language string) (*verify.Result, error)
}

// Options wires an Orchestrator
type Options struct {
	Dispatcher Dispatcher
	Engine     GraphEngine
	Sessions   SessionStore
	Verifier   PatchVerifier
	Metrics    *metrics.DispatchMetrics
	Logger     *zap.Logger
	Routing    Routing
	// Parallel runs the roles of a multi-role stage concurrently
	Parallel bool
}

// Orchestrator routes chat stages to roles and fronts the graph engine,
// the scan session store and the patch verifier.
type Orchestrator struct {
	dispatcher Dispatcher
	engine     GraphEngine
	sessions   SessionStore
	verifier   PatchVerifier
	metrics    *metrics.DispatchMetrics
	logger     *zap.Logger
	tracer     trace.Tracer
	routing    Routing
	parallel   bool
}

// NewOrchestrator creates an orchestrator from opts
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("orchestrator requires a dispatcher")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Sessions == nil {
		opts.Sessions = NewMemorySessionStore(defaultSessionEntries, defaultSessionTTL)
	}
	if opts.Verifier == nil {
		opts.Verifier = verify.NewVerifier()
	}
	if opts.Metrics == nil {
		m, err := metrics.NewDispatchMetrics(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create dispatch metrics: %w", err)
		}
		opts.Metrics = m
	}

	for _, key := range opts.Routing.UnknownRoles() {
		opts.Logger.Warn("role endpoint override names no known role", zap.String("role", key))
	}

	return &Orchestrator{
		dispatcher: opts.Dispatcher,
		engine:     opts.Engine,
		sessions:   opts.Sessions,
		verifier:   opts.Verifier,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		tracer:     otel.Tracer("orchestrator"),
		routing:    opts.Routing,
		parallel:   opts.Parallel,
	}, nil
}

// Ready reports whether the completion service is accepting calls
func (o *Orchestrator) Ready() bool {
	return o.dispatcher.IsHealthy()
}

// Route invokes every role of req's stage and returns their outputs in
// declared order. Failed calls yield degraded outputs, never errors.
func (o *Orchestrator) Route(ctx context.Context, req models.ChatRequest) []models.AgentOutput {
	outputs := make([]models.AgentOutput, 0, 2)
	// emit never fails, so neither does RouteStream
	_ = o.RouteStream(ctx, req, func(_ int, out models.AgentOutput) error {
		outputs = append(outputs, out)
		return nil
	})
	return outputs
}

// RouteStream is Route with incremental delivery. emit is called once per
// role, in declared order, from the calling goroutine; output i is emitted
// only after outputs 0..i-1. An emit error cancels the remaining roles and
// is returned.
func (o *Orchestrator) RouteStream(ctx context.Context, req models.ChatRequest, emit func(int, models.AgentOutput) error) error {
	stage := ParseStage(req.Stage)
	roles := RolesForStage(req.Stage)

	ctx, span := o.tracer.Start(ctx, "orchestrator.route")
	defer span.End()
	span.SetAttributes(
		attribute.String("stage", stage.String()),
		attribute.Int("roles", len(roles)),
	)

	o.logger.Info("chat request routed",
		zap.String("requested_stage", req.Stage),
		zap.String("stage", stage.String()),
		zap.Stringers("roles", roles),
		zap.Int("files", len(req.Files)),
	)

	if !o.parallel || len(roles) == 1 {
		for i, role := range roles {
			if err := emit(i, o.invoke(ctx, stage, role, req)); err != nil {
				return err
			}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outputs := make([]models.AgentOutput, len(roles))
	done := make([]chan struct{}, len(roles))

	var g errgroup.Group
	for i, role := range roles {
		done[i] = make(chan struct{})
		g.Go(func() error {
			defer close(done[i])
			outputs[i] = o.invoke(ctx, stage, role, req)
			return nil
		})
	}

	var emitErr error
	for i := range roles {
		<-done[i]
		if err := emit(i, outputs[i]); err != nil {
			emitErr = err
			cancel()
			break
		}
	}

	_ = g.Wait()
	return emitErr
}

// invoke runs one role and converts its result into an output
func (o *Orchestrator) invoke(ctx context.Context, stage, role Role, req models.ChatRequest) models.AgentOutput {
	// Every role receives the caller's task text, not a prior role's answer
	payload := BuildPayload(role, req.Query, TaskContext{Code: req.Code}, o.routing)

	o.metrics.RecordRoleStarted(ctx, role.String(), stage.String())
	start := time.Now()

	result := o.dispatcher.Send(ctx, payload, role)
	if result.Failure != nil {
		o.metrics.RecordRoleDegraded(ctx, role.String(), stage.String(), string(result.Failure.Reason), time.Since(start))
		return result.AgentOutput()
	}
	o.metrics.RecordRoleCompleted(ctx, role.String(), stage.String(), time.Since(start))

	out := result.AgentOutput()
	if req.ExpectJSON {
		attachStructured(&out)
	}
	return out
}

func attachStructured(out *models.AgentOutput) {
	if out.Metadata == nil {
		out.Metadata = map[string]interface{}{}
	}
	parsed, err := jsonutil.ParseJSONLike(out.MarkdownOutput)
	if err != nil {
		out.Metadata[models.MetadataParseError] = err.Error()
		return
	}
	out.Metadata[models.MetadataStructured] = parsed
}

// AcknowledgeScan records a new scan session. It performs no agent calls.
func (o *Orchestrator) AcknowledgeScan(ctx context.Context, req models.ScanRequest) (models.SessionRecord, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return models.SessionRecord{}, fmt.Errorf("failed to generate scan id: %w", err)
	}

	record := models.SessionRecord{
		ID:        id.String(),
		FileCount: len(req.Files),
		Intent:    req.Intent,
		FilePath:  req.FilePath,
		Language:  req.Language,
		CreatedAt: time.Now().UTC(),
	}

	fields := []zap.Field{
		zap.String("scan_id", record.ID),
		zap.String("intent", req.Intent),
		zap.String("file", req.FilePath),
		zap.String("language", req.Language),
		zap.Int("files_count", record.FileCount),
	}
	if req.CodeRange != nil {
		fields = append(fields, zap.String("range", fmt.Sprintf("L%d-L%d", req.CodeRange.StartLine, req.CodeRange.EndLine)))
	}
	if req.UserQuery != nil {
		fields = append(fields, zap.String("query", *req.UserQuery))
	}
	o.logger.Info("scan request received", fields...)

	o.sessions.Put(record)
	o.metrics.RecordSessionCreated(ctx, req.Intent)
	return record, nil
}

// GetSession returns a recorded scan session or ErrSessionNotFound
func (o *Orchestrator) GetSession(id string) (models.SessionRecord, error) {
	return o.sessions.Get(id)
}

// ExecuteSlice forwards a generated query to the graph engine
func (o *Orchestrator) ExecuteSlice(ctx context.Context, req models.SliceRequest) (SliceResult, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.slice")
	defer span.End()

	if o.engine == nil {
		return SliceResult{}, fmt.Errorf("no graph engine configured")
	}

	o.logger.Info("slice request received", zap.String("file", req.FilePath))

	result, err := ExecuteSlice(ctx, o.engine, req.Query)
	if err != nil {
		span.RecordError(err)
		o.metrics.RecordSliceQuery(ctx, "error")
		return SliceResult{}, err
	}

	span.SetAttributes(attribute.String("status", string(result.Status)))
	o.metrics.RecordSliceQuery(ctx, string(result.Status))
	if result.Status == SliceFailed {
		o.logger.Warn("slice query failed", zap.String("file", req.FilePath), zap.String("message", result.Message))
	}
	return result, nil
}

// GenerateMedia accepts flowchart data and returns where its image lives.
// String data must hold a JSON object; a *jsonutil.ParseError is returned
// otherwise.
func (o *Orchestrator) GenerateMedia(ctx context.Context, req models.MediaRequest) (models.MediaResponse, error) {
	_, span := o.tracer.Start(ctx, "orchestrator.media")
	defer span.End()

	if text, ok := req.FlowchartData.(string); ok {
		parsed, err := jsonutil.ParseJSONLike(text)
		if err != nil {
			span.RecordError(err)
			return models.MediaResponse{}, err
		}
		o.logger.Debug("flowchart data recovered from text", zap.Int("keys", len(parsed)))
	}

	return models.MediaResponse{
		Status:   models.StatusSuccess,
		ImageURL: PlaceholderImageURL,
		Message:  "Flowchart generated",
	}, nil
}

// VerifyPatch checks a patch. Verifier failures are reported in the
// response rather than as an error.
func (o *Orchestrator) VerifyPatch(ctx context.Context, req models.VerifyRequest) models.VerifyResponse {
	result, err := o.verifier.Verify(ctx, req.OriginalCode, req.PatchedCode, req.Language)
	if err != nil {
		o.logger.Warn("patch verification failed", zap.String("language", req.Language), zap.Error(err))
		return models.VerifyResponse{
			Status:  models.StatusError,
			IsValid: false,
			Errors:  []string{err.Error()},
		}
	}

	o.logger.Info("patch verified",
		zap.String("language", result.Language),
		zap.Bool("valid", result.Valid),
		zap.Bool("supported", result.Supported),
		zap.Bool("unchanged", result.Unchanged),
	)
	return models.VerifyResponse{
		Status:  models.StatusSuccess,
		IsValid: result.Valid,
		Errors:  result.Errors,
	}
}
