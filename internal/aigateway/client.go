package aigateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// AnalysisFallback is returned by Analyze when the generator cannot be reached
const AnalysisFallback = "Could not perform AI analysis at this time."

const (
	OperationAnalyze = "analyze"
	OperationRewrite = "suggest_rewrite"
)

// Call outcomes reported to the Recorder
const (
	OutcomeSuccess     = "success"
	OutcomeEmpty       = "empty"
	OutcomeError       = "error"
	OutcomeCircuitOpen = "circuit_open"
)

const analyzePrompt = `Analyze this blockchain voting proposal and provide a summary of pros, cons, and potential impact.
Title: %s
Description: %s

Return the analysis in a clean structured format with Markdown.`

const rewritePrompt = `Improve the clarity and persuasive tone of this DAO proposal description for a blockchain voting system:
Original: %s

Provide a professional rewrite that follows standard governance best practices.`

// Sampling holds generation parameters. A nil *Sampling leaves them to the backend.
type Sampling struct {
	Temperature float64
	TopK        int
	TopP        float64
}

// DefaultSampling is used for proposal analysis
var DefaultSampling = Sampling{Temperature: 0.7, TopK: 40, TopP: 0.95}

// Generator produces text for a single prompt
type Generator interface {
	Generate(ctx context.Context, prompt string, sampling *Sampling) (string, error)
}

// Recorder receives per-call telemetry
type Recorder interface {
	AIRequestStarted(ctx context.Context, operation string)
	AIRequestFinished(ctx context.Context, operation, outcome string, duration time.Duration)
}

// Options configures a Client
type Options struct {
	Sampling       *Sampling
	RequestTimeout time.Duration
	Logger         *zap.Logger
	Recorder       Recorder
}

// Client turns a Generator into the two dashboard text operations. Its
// methods never return errors: failures are logged and replaced by a
// fallback value.
type Client struct {
	generator Generator
	sampling  Sampling
	timeout   time.Duration
	logger    *zap.Logger
	recorder  Recorder
	tracer    trace.Tracer
	breaker   *gobreaker.CircuitBreaker
}

// NewClient creates a client around the given backend
func NewClient(generator Generator, opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	sampling := DefaultSampling
	if opts.Sampling != nil {
		sampling = *opts.Sampling
	}

	logger := opts.Logger
	settings := gobreaker.Settings{
		Name:        "ai-generator",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Client{
		generator: generator,
		sampling:  sampling,
		timeout:   opts.RequestTimeout,
		logger:    logger,
		recorder:  opts.Recorder,
		tracer:    otel.Tracer("fil-vote/aigateway"),
		breaker:   gobreaker.NewCircuitBreaker(settings),
	}
}

// Analyze asks for a pros, cons and impact summary of a proposal
func (c *Client) Analyze(ctx context.Context, title, description string) string {
	sampling := c.sampling
	text, err := c.generate(ctx, OperationAnalyze, fmt.Sprintf(analyzePrompt, title, description), &sampling)
	if err != nil {
		return AnalysisFallback
	}
	return text
}

// SuggestRewrite asks for a clearer version of a draft description. The
// input is returned unchanged when no rewrite is available.
func (c *Client) SuggestRewrite(ctx context.Context, description string) string {
	text, err := c.generate(ctx, OperationRewrite, fmt.Sprintf(rewritePrompt, description), nil)
	if err != nil || text == "" {
		return description
	}
	return text
}

// Ready reports whether calls are currently being let through
func (c *Client) Ready() bool {
	return c.breaker.State() != gobreaker.StateOpen
}

func (c *Client) generate(ctx context.Context, operation, prompt string, sampling *Sampling) (string, error) {
	ctx, span := c.tracer.Start(ctx, "aigateway."+operation)
	defer span.End()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.recorder != nil {
		c.recorder.AIRequestStarted(ctx, operation)
	}
	start := time.Now()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generator.Generate(ctx, prompt, sampling)
	})

	outcome := OutcomeSuccess
	var text string
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = OutcomeCircuitOpen
	case err != nil:
		outcome = OutcomeError
	default:
		text = result.(string)
		if text == "" {
			outcome = OutcomeEmpty
		}
	}

	if c.recorder != nil {
		c.recorder.AIRequestFinished(ctx, operation, outcome, time.Since(start))
	}
	span.SetAttributes(
		attribute.String("ai.operation", operation),
		attribute.String("ai.outcome", outcome),
		attribute.Int("ai.prompt_length", len(prompt)),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("AI request failed",
			zap.String("operation", operation),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	return text, nil
}
