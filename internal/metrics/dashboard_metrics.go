package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DashboardMetrics records domain activity: votes, proposals, sessions and AI calls
type DashboardMetrics struct {
	votesCounter        metric.Int64Counter
	proposalsCounter    metric.Int64Counter
	sessionsGauge       metric.Int64UpDownCounter
	aiRequestsCounter   metric.Int64Counter
	aiDurationHistogram metric.Float64Histogram
	aiInFlightGauge     metric.Int64UpDownCounter
}

// NewDashboardMetrics creates the instruments on meter, or on the global
// meter provider when meter is nil.
func NewDashboardMetrics(meter metric.Meter) (*DashboardMetrics, error) {
	if meter == nil {
		meter = otel.Meter("fil-vote")
	}

	votesCounter, err := meter.Int64Counter(
		"filvote.votes.cast",
		metric.WithDescription("Total number of accepted votes"),
		metric.WithUnit("{vote}"),
	)
	if err != nil {
		return nil, err
	}

	proposalsCounter, err := meter.Int64Counter(
		"filvote.proposals.created",
		metric.WithDescription("Total number of proposals created"),
		metric.WithUnit("{proposal}"),
	)
	if err != nil {
		return nil, err
	}

	sessionsGauge, err := meter.Int64UpDownCounter(
		"filvote.sessions.active",
		metric.WithDescription("Number of live dashboard sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	aiRequestsCounter, err := meter.Int64Counter(
		"filvote.ai.requests",
		metric.WithDescription("Total number of AI text requests by operation and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	aiDurationHistogram, err := meter.Float64Histogram(
		"filvote.ai.duration",
		metric.WithDescription("Duration of AI text requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	aiInFlightGauge, err := meter.Int64UpDownCounter(
		"filvote.ai.inflight",
		metric.WithDescription("Number of AI text requests awaiting a response"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &DashboardMetrics{
		votesCounter:        votesCounter,
		proposalsCounter:    proposalsCounter,
		sessionsGauge:       sessionsGauge,
		aiRequestsCounter:   aiRequestsCounter,
		aiDurationHistogram: aiDurationHistogram,
		aiInFlightGauge:     aiInFlightGauge,
	}, nil
}

// RecordVote records an accepted vote. Proposal ids are not attached: they
// grow without bound across sessions.
func (dm *DashboardMetrics) RecordVote(ctx context.Context) {
	dm.votesCounter.Add(ctx, 1)
}

// RecordProposalCreated records a new proposal
func (dm *DashboardMetrics) RecordProposalCreated(ctx context.Context, anonymous bool) {
	dm.proposalsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.Bool("creator.anonymous", anonymous),
		),
	)
}

func (dm *DashboardMetrics) SessionOpened(ctx context.Context) {
	dm.sessionsGauge.Add(ctx, 1)
}

func (dm *DashboardMetrics) SessionClosed(ctx context.Context) {
	dm.sessionsGauge.Add(ctx, -1)
}

// AIRequestStarted marks an AI request as in flight
func (dm *DashboardMetrics) AIRequestStarted(ctx context.Context, operation string) {
	dm.aiInFlightGauge.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("ai.operation", operation),
		),
	)
}

// AIRequestFinished records the outcome and duration of an AI request
func (dm *DashboardMetrics) AIRequestFinished(ctx context.Context, operation, outcome string, duration time.Duration) {
	dm.aiRequestsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("ai.operation", operation),
			attribute.String("ai.outcome", outcome),
		),
	)
	dm.aiDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("ai.operation", operation),
			attribute.String("ai.outcome", outcome),
		),
	)
	dm.aiInFlightGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("ai.operation", operation),
		),
	)
}
