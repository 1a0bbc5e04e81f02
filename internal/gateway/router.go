package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/bizmatters/fil-vote/internal/metrics"
	"github.com/bizmatters/fil-vote/internal/session"
)

// RouterOptions collects the components served by NewRouter
type RouterOptions struct {
	Handler  *Handler
	Stream   *StateStream
	Registry *session.Registry
	Sessions *session.Manager
	// HTTPMetrics and Metrics are optional
	HTTPMetrics *metrics.HTTPMetrics
	Metrics     *prometheus.Registry
	// Ready reports whether the AI gateway accepts calls
	Ready  func() bool
	Logger *zap.Logger
}

// NewRouter wires the dashboard pages, the JSON API and the operational
// endpoints onto a gin engine.
func NewRouter(opts RouterOptions) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Stream == nil {
		opts.Stream = NewStateStream(opts.Logger)
	}
	h := opts.Handler

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(opts.Logger))
	if opts.HTTPMetrics != nil {
		router.Use(opts.HTTPMetrics.Middleware())
	}
	if h.renderer != nil {
		router.SetHTMLTemplate(h.renderer.Template())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/ready", func(c *gin.Context) {
		if opts.Ready != nil && !opts.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  "ai gateway circuit open",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(opts.Metrics)))
	}

	// Everything below runs inside a session
	sessions := session.Middleware(opts.Registry, opts.Sessions, opts.Logger)

	pages := router.Group("")
	pages.Use(sessions)
	pages.GET("/", h.Index)
	pages.GET("/ws", opts.Stream.Stream)
	pages.POST("/navigate/:view", h.NavigatePage)
	pages.POST("/wallet/connect", h.ConnectWalletPage)
	pages.POST("/proposals", h.CreateProposalPage)
	pages.POST("/proposals/:id/vote", h.VotePage)
	pages.POST("/proposals/:id/analysis", AIRateLimit(h.RateLimitedPage), h.AnalyzePage)
	pages.POST("/draft/rewrite", AIRateLimit(h.RateLimitedPage), h.RewritePage)

	api := router.Group("/api")
	api.Use(sessions)
	api.GET("/state", h.GetState)
	api.GET("/proposals", h.ListProposals)
	api.POST("/wallet/connect", h.ConnectWallet)
	api.POST("/proposals", h.CreateProposal)
	api.POST("/proposals/:id/votes", h.CastVote)
	api.POST("/proposals/:id/analysis", AIRateLimit(h.RateLimited), h.RequestAnalysis)
	api.PUT("/draft", h.UpdateDraft)
	api.POST("/draft/rewrite", AIRateLimit(h.RateLimited), h.RewriteDraft)
	api.PUT("/view", h.Navigate)

	return router
}
