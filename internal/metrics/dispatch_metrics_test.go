package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*DispatchMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	dm, err := NewDispatchMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return dm, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()

	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestDispatchMetrics_Creation(t *testing.T) {
	t.Run("global meter", func(t *testing.T) {
		dm, err := NewDispatchMetrics(nil)
		require.NoError(t, err)
		assert.NotNil(t, dm.rolesDispatchedCounter)
		assert.NotNil(t, dm.rolesCompletedCounter)
		assert.NotNil(t, dm.rolesDegradedCounter)
		assert.NotNil(t, dm.roleDurationHistogram)
		assert.NotNil(t, dm.rolesActiveGauge)
		assert.NotNil(t, dm.sliceQueriesCounter)
		assert.NotNil(t, dm.sessionsCreatedCounter)
	})
}

func TestDispatchMetrics_RoleLifecycle(t *testing.T) {
	dm, reader := newTestMetrics(t)
	ctx := context.Background()

	dm.RecordRoleStarted(ctx, "D", "D")
	dm.RecordRoleStarted(ctx, "Knowledge", "D")
	dm.RecordRoleCompleted(ctx, "D", "D", 200*time.Millisecond)
	dm.RecordRoleDegraded(ctx, "Knowledge", "D", "timeout", time.Second)

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["graphide.roles.dispatched"]))
	assert.Equal(t, int64(1), sumOf(t, data["graphide.roles.completed"]))
	assert.Equal(t, int64(1), sumOf(t, data["graphide.roles.degraded"]))
	assert.Equal(t, int64(0), sumOf(t, data["graphide.roles.active"]))

	hist, ok := data["graphide.role.duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

func TestDispatchMetrics_SliceAndSessions(t *testing.T) {
	dm, reader := newTestMetrics(t)
	ctx := context.Background()

	dm.RecordSliceQuery(ctx, "success")
	dm.RecordSliceQuery(ctx, "failure")
	dm.RecordSliceQuery(ctx, "failure")
	dm.RecordSessionCreated(ctx, "security_scan")

	data := collect(t, reader)
	assert.Equal(t, int64(3), sumOf(t, data["graphide.slice.queries"]))
	assert.Equal(t, int64(1), sumOf(t, data["graphide.sessions.created"]))
}
