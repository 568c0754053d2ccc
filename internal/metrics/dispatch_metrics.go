package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "graphide-orchestrator"

// DispatchMetrics records role dispatch, slice and session activity
type DispatchMetrics struct {
	rolesDispatchedCounter metric.Int64Counter
	rolesCompletedCounter  metric.Int64Counter
	rolesDegradedCounter   metric.Int64Counter
	roleDurationHistogram  metric.Float64Histogram
	rolesActiveGauge       metric.Int64UpDownCounter
	sliceQueriesCounter    metric.Int64Counter
	sessionsCreatedCounter metric.Int64Counter
}

// NewDispatchMetrics creates the instruments on meter, or on the global
// meter provider when meter is nil.
func NewDispatchMetrics(meter metric.Meter) (*DispatchMetrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	rolesDispatchedCounter, err := meter.Int64Counter(
		"graphide.roles.dispatched",
		metric.WithDescription("Total number of role invocations started"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	rolesCompletedCounter, err := meter.Int64Counter(
		"graphide.roles.completed",
		metric.WithDescription("Total number of role invocations answered by the completion service"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	rolesDegradedCounter, err := meter.Int64Counter(
		"graphide.roles.degraded",
		metric.WithDescription("Total number of role invocations that fell back to a simulated response"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	roleDurationHistogram, err := meter.Float64Histogram(
		"graphide.role.duration",
		metric.WithDescription("Duration of a role invocation in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rolesActiveGauge, err := meter.Int64UpDownCounter(
		"graphide.roles.active",
		metric.WithDescription("Number of role invocations in flight"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	sliceQueriesCounter, err := meter.Int64Counter(
		"graphide.slice.queries",
		metric.WithDescription("Total number of graph slice queries by outcome"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, err
	}

	sessionsCreatedCounter, err := meter.Int64Counter(
		"graphide.sessions.created",
		metric.WithDescription("Total number of scan sessions acknowledged"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	return &DispatchMetrics{
		rolesDispatchedCounter: rolesDispatchedCounter,
		rolesCompletedCounter:  rolesCompletedCounter,
		rolesDegradedCounter:   rolesDegradedCounter,
		roleDurationHistogram:  roleDurationHistogram,
		rolesActiveGauge:       rolesActiveGauge,
		sliceQueriesCounter:    sliceQueriesCounter,
		sessionsCreatedCounter: sessionsCreatedCounter,
	}, nil
}

// RecordRoleStarted records a role invocation being sent
func (dm *DispatchMetrics) RecordRoleStarted(ctx context.Context, role, stage string) {
	dm.rolesDispatchedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("role", role),
			attribute.String("stage", stage),
		),
	)
	dm.rolesActiveGauge.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("role", role),
		),
	)
}

// RecordRoleCompleted records a role answered by the completion service
func (dm *DispatchMetrics) RecordRoleCompleted(ctx context.Context, role, stage string, duration time.Duration) {
	dm.rolesCompletedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("role", role),
			attribute.String("stage", stage),
		),
	)
	dm.roleDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("role", role),
			attribute.String("status", "completed"),
		),
	)
	dm.rolesActiveGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("role", role),
		),
	)
}

// RecordRoleDegraded records a role whose call failed with reason
func (dm *DispatchMetrics) RecordRoleDegraded(ctx context.Context, role, stage, reason string, duration time.Duration) {
	dm.rolesDegradedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("role", role),
			attribute.String("stage", stage),
			attribute.String("reason", reason),
		),
	)
	dm.roleDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("role", role),
			attribute.String("status", "degraded"),
		),
	)
	dm.rolesActiveGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("role", role),
		),
	)
}

// RecordSliceQuery records a graph query outcome
func (dm *DispatchMetrics) RecordSliceQuery(ctx context.Context, status string) {
	dm.sliceQueriesCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("status", status),
		),
	)
}

// RecordSessionCreated records an acknowledged scan
func (dm *DispatchMetrics) RecordSessionCreated(ctx context.Context, intent string) {
	dm.sessionsCreatedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("intent", intent),
		),
	)
}
