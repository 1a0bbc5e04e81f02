package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/bizmatters/fil-vote/internal/aigateway"
	"github.com/bizmatters/fil-vote/internal/config"
	"github.com/bizmatters/fil-vote/internal/gateway"
	"github.com/bizmatters/fil-vote/internal/metrics"
	"github.com/bizmatters/fil-vote/internal/session"
	"github.com/bizmatters/fil-vote/internal/store"
	"github.com/bizmatters/fil-vote/internal/view"
)

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	shutdownTracer, err := initTracer(cfg.TracingStdout)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	defer shutdownTracer()

	// Metrics: otel instruments exported through the prometheus registry
	registry := metrics.NewRegistry()
	meterProvider, err := metrics.NewMeterProvider(registry)
	if err != nil {
		return fmt.Errorf("failed to initialize meter provider: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()
	otel.SetMeterProvider(meterProvider)

	dashboardMetrics, err := metrics.NewDashboardMetrics(meterProvider.Meter("fil-vote"))
	if err != nil {
		return fmt.Errorf("failed to initialize dashboard metrics: %w", err)
	}
	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return fmt.Errorf("failed to initialize http metrics: %w", err)
	}

	// AI gateway
	if cfg.AI.APIKey == "" && cfg.AI.Provider != aigateway.ProviderLocal {
		logger.Warn("no AI API key configured; analysis and rewrite requests will fall back")
	}
	generator, err := aigateway.NewGenerator(cfg.AI.Provider, cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.APIKey, nil)
	if err != nil {
		return err
	}
	aiClient := aigateway.NewClient(generator, aigateway.Options{
		Sampling: &aigateway.Sampling{
			Temperature: cfg.AI.Temperature,
			TopK:        cfg.AI.TopK,
			TopP:        cfg.AI.TopP,
		},
		RequestTimeout: cfg.AI.RequestTimeout,
		Logger:         logger.Named("aigateway"),
		Recorder:       dashboardMetrics,
	})

	// Sessions
	secret := cfg.Session.Secret
	if secret == "" {
		if secret, err = session.RandomSecret(); err != nil {
			return err
		}
		logger.Warn("no session secret configured; sessions will not survive a restart")
	}
	manager, err := session.NewManager(secret, cfg.Session.TTL)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	storeLogger := logger.Named("store")
	sessions := session.NewRegistry(session.RegistryOptions{
		NewStore: func() *store.Store {
			return store.New(store.Options{
				Gateway:          aiClient,
				Logger:           storeLogger,
				WalletDelay:      cfg.WalletConnectDelay,
				ProposalLifetime: cfg.ProposalLifetime,
			})
		},
		MaxSessions:       cfg.Session.MaxSessions,
		IdleTimeout:       cfg.Session.IdleTimeout,
		JanitorSpec:       cfg.Session.JanitorSpec,
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
		Burst:             cfg.AI.Burst,
		Observer:          dashboardMetrics,
		Logger:            logger.Named("session"),
	})
	if err := sessions.Start(); err != nil {
		return fmt.Errorf("failed to start session janitor: %w", err)
	}
	defer sessions.Close()

	// HTTP
	renderer, err := view.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	handler := gateway.NewHandler(gateway.Options{
		Renderer:    renderer,
		Metrics:     dashboardMetrics,
		Logger:      logger,
		WaitTimeout: time.Minute,
	})

	if !globalFlags.debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gateway.NewRouter(gateway.RouterOptions{
		Handler:     handler,
		Stream:      gateway.NewStateStream(logger.Named("stream")),
		Registry:    sessions,
		Sessions:    manager,
		HTTPMetrics: httpMetrics,
		Metrics:     registry,
		Ready:       aiClient.Ready,
		Logger:      logger,
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	server := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // covers ?wait=true AI calls
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Websocket connections are hijacked and not tracked by Shutdown; closing
	// the session stores ends their streams.
	server.RegisterOnShutdown(sessions.Close)
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

// initTracer installs the global tracer provider. Spans are printed to stdout
// when enabled and dropped otherwise.
func initTracer(stdout bool) (func(), error) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	var opts []trace.TracerProviderOption
	if stdout {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		opts = append(opts, trace.WithBatcher(exporter))
	}

	tp := trace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	return func() { _ = tp.Shutdown(context.Background()) }, nil
}
