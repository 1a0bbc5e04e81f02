package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*DashboardMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	dm, err := NewDashboardMetrics(provider.Meter("test"))
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

func sumTotal(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestDashboardMetrics_Creation(t *testing.T) {
	t.Run("successfully create dashboard metrics", func(t *testing.T) {
		metrics, err := NewDashboardMetrics(nil)
		require.NoError(t, err)
		assert.NotNil(t, metrics.votesCounter)
		assert.NotNil(t, metrics.proposalsCounter)
		assert.NotNil(t, metrics.sessionsGauge)
		assert.NotNil(t, metrics.aiRequestsCounter)
		assert.NotNil(t, metrics.aiDurationHistogram)
		assert.NotNil(t, metrics.aiInFlightGauge)
	})
}

func TestDashboardMetrics_VotesAndProposals(t *testing.T) {
	dm, reader := newTestMetrics(t)
	ctx := context.Background()

	dm.RecordVote(ctx)
	dm.RecordVote(ctx)
	dm.RecordVote(ctx)
	dm.RecordProposalCreated(ctx, true)

	data := collect(t, reader)
	assert.Equal(t, int64(3), sumTotal(t, data["filvote.votes.cast"]))

	votes := data["filvote.votes.cast"].(metricdata.Sum[int64])
	require.Len(t, votes.DataPoints, 1, "votes are a single series")
	assert.Zero(t, votes.DataPoints[0].Attributes.Len())
	assert.Equal(t, int64(1), sumTotal(t, data["filvote.proposals.created"]))
}

func TestDashboardMetrics_Sessions(t *testing.T) {
	dm, reader := newTestMetrics(t)
	ctx := context.Background()

	dm.SessionOpened(ctx)
	dm.SessionOpened(ctx)
	dm.SessionClosed(ctx)

	assert.Equal(t, int64(1), sumTotal(t, collect(t, reader)["filvote.sessions.active"]))
}

func TestDashboardMetrics_AIRequests(t *testing.T) {
	dm, reader := newTestMetrics(t)
	ctx := context.Background()

	dm.AIRequestStarted(ctx, "analyze")
	dm.AIRequestStarted(ctx, "analyze")
	dm.AIRequestFinished(ctx, "analyze", "success", 1500*time.Millisecond)

	data := collect(t, reader)
	assert.Equal(t, int64(1), sumTotal(t, data["filvote.ai.inflight"]))

	requests := data["filvote.ai.requests"].(metricdata.Sum[int64])
	require.Len(t, requests.DataPoints, 1)
	outcome, ok := requests.DataPoints[0].Attributes.Value(attribute.Key("ai.outcome"))
	require.True(t, ok)
	assert.Equal(t, "success", outcome.AsString())

	hist, ok := data["filvote.ai.duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 1.5, hist.DataPoints[0].Sum, 0.001)
}
