package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bizmatters/fil-vote/internal/models"
	"github.com/bizmatters/fil-vote/internal/session"
	"github.com/bizmatters/fil-vote/internal/store"
	"github.com/bizmatters/fil-vote/internal/view"
)

var handlerTracer = otel.Tracer("fil-vote/gateway")

// Recorder receives domain events for metrics
type Recorder interface {
	RecordVote(ctx context.Context)
	RecordProposalCreated(ctx context.Context, anonymous bool)
}

// Options configures a Handler
type Options struct {
	Renderer *view.Renderer
	Metrics  Recorder
	Logger   *zap.Logger
	// Location is used for deadline dates on rendered pages
	Location *time.Location
	// WaitTimeout bounds ?wait=true requests; 0 waits as long as the client does
	WaitTimeout time.Duration
}

// Handler handles HTTP requests for the dashboard and its JSON API
type Handler struct {
	renderer    *view.Renderer
	metrics     Recorder
	logger      *zap.Logger
	location    *time.Location
	waitTimeout time.Duration
	tracer      trace.Tracer
}

// NewHandler creates a new gateway handler
func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = nopRecorder{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Handler{
		renderer:    opts.Renderer,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		location:    opts.Location,
		waitTimeout: opts.WaitTimeout,
		tracer:      handlerTracer,
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordVote(context.Context)                  {}
func (nopRecorder) RecordProposalCreated(context.Context, bool) {}

// GetState godoc
// @Summary Get session state
// @Description Returns the full dashboard state of the caller's session
// @Tags state
// @Produce json
// @Success 200 {object} models.StateResponse
// @Security SessionAuth
// @Router /state [get]
func (h *Handler) GetState(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Store.Snapshot().Response())
}

// ListProposals godoc
// @Summary List proposals
// @Description Returns proposals newest first
// @Tags proposals
// @Produce json
// @Success 200 {object} models.ProposalListResponse
// @Security SessionAuth
// @Router /proposals [get]
func (h *Handler) ListProposals(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	st := sess.Store.Snapshot().Response()
	c.JSON(http.StatusOK, models.ProposalListResponse{
		Proposals: st.Proposals,
		Total:     len(st.Proposals),
	})
}

// ConnectWallet godoc
// @Summary Connect wallet
// @Description Starts the simulated wallet handshake. With wait=true the response is sent once a wallet address is assigned.
// @Tags wallet
// @Produce json
// @Param wait query bool false "Block until the handshake completes"
// @Success 200 {object} models.StateResponse
// @Success 202 {object} models.StateResponse
// @Failure 503 {object} models.ErrorResponse
// @Security SessionAuth
// @Router /wallet/connect [post]
func (h *Handler) ConnectWallet(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "gateway.connect_wallet")
	defer span.End()

	sess, ok := h.session(c)
	if !ok {
		return
	}

	st, err := sess.Store.Dispatch(ctx, store.ConnectWallet{})
	if err != nil {
		span.RecordError(err)
		h.respondError(c, err)
		return
	}

	h.respondAsync(ctx, c, sess, st, func(s store.State) bool { return !s.Connecting })
}

// CreateProposal godoc
// @Summary Create proposal
// @Description Publishes a proposal at the head of the list. The creator is the connected wallet or Anonymous.
// @Tags proposals
// @Accept json
// @Produce json
// @Param request body models.CreateProposalRequest true "Proposal fields"
// @Success 201 {object} models.Proposal
// @Failure 400 {object} models.ErrorResponse
// @Security SessionAuth
// @Router /proposals [post]
func (h *Handler) CreateProposal(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "gateway.create_proposal")
	defer span.End()

	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req models.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request body",
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}

	st, err := sess.Store.Dispatch(ctx, store.CreateProposal{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		span.RecordError(err)
		h.respondError(c, err)
		return
	}

	created := st.Proposals[0]
	span.SetAttributes(attribute.Int64("proposal.id", created.ID))
	h.metrics.RecordProposalCreated(ctx, created.Creator == models.AnonymousCreator)
	c.JSON(http.StatusCreated, created)
}

// CastVote godoc
// @Summary Vote on a proposal
// @Description Adds one vote. Requires a connected wallet. Voting on an unknown id leaves the state unchanged.
// @Tags proposals
// @Produce json
// @Param id path int true "Proposal ID"
// @Success 200 {object} models.StateResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security SessionAuth
// @Router /proposals/{id}/votes [post]
func (h *Handler) CastVote(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "gateway.cast_vote")
	defer span.End()

	sess, ok := h.session(c)
	if !ok {
		return
	}

	id, ok := proposalID(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.Int64("proposal.id", id))

	st, err := sess.Store.Dispatch(ctx, store.Vote{ProposalID: id})
	if err != nil {
		span.RecordError(err)
		h.respondError(c, err)
		return
	}

	if _, found := st.Proposal(id); found {
		h.metrics.RecordVote(ctx)
	}
	c.JSON(http.StatusOK, st.Response())
}

// RequestAnalysis godoc
// @Summary Analyze a proposal
// @Description Requests an AI analysis of the proposal. With wait=true the response is sent once the analysis is stored.
// @Tags proposals
// @Produce json
// @Param id path int true "Proposal ID"
// @Param wait query bool false "Block until the analysis completes"
// @Success 200 {object} models.StateResponse
// @Success 202 {object} models.StateResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Security SessionAuth
// @Router /proposals/{id}/analysis [post]
func (h *Handler) RequestAnalysis(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "gateway.request_analysis")
	defer span.End()

	sess, ok := h.session(c)
	if !ok {
		return
	}

	id, ok := proposalID(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.Int64("proposal.id", id))

	st, err := sess.Store.Dispatch(ctx, store.RequestAnalysis{ProposalID: id})
	if err != nil {
		span.RecordError(err)
		h.respondError(c, err)
		return
	}

	h.respondAsync(ctx, c, sess, st, func(s store.State) bool { return !s.IsAnalyzing(id) })
}

// UpdateDraft godoc
// @Summary Update the proposal draft
// @Description Replaces the create-proposal form fields
// @Tags draft
// @Accept json
// @Produce json
// @Param request body models.UpdateDraftRequest true "Draft fields"
// @Success 200 {object} models.StateResponse
// @Failure 400 {object} models.ErrorResponse
// @Security SessionAuth
// @Router /draft [put]
func (h *Handler) UpdateDraft(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req models.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request body",
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}

	st, err := sess.Store.Dispatch(c.Request.Context(), store.UpdateDraft{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st.Response())
}

// RewriteDraft godoc
// @Summary Improve the draft description
// @Description Asks the AI gateway to rewrite the draft description. The draft is kept unchanged when the gateway fails.
// @Tags draft
// @Produce json
// @Param wait query bool false "Block until the rewrite completes"
// @Success 200 {object} models.StateResponse
// @Success 202 {object} models.StateResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Security SessionAuth
// @Router /draft/rewrite [post]
func (h *Handler) RewriteDraft(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "gateway.rewrite_draft")
	defer span.End()

	sess, ok := h.session(c)
	if !ok {
		return
	}

	st, err := sess.Store.Dispatch(ctx, store.RequestRewrite{})
	if err != nil {
		span.RecordError(err)
		h.respondError(c, err)
		return
	}

	h.respondAsync(ctx, c, sess, st, func(s store.State) bool { return !s.Improving })
}

// Navigate godoc
// @Summary Switch view
// @Description Selects the screen rendered for the session
// @Tags state
// @Accept json
// @Produce json
// @Param request body models.NavigateRequest true "Target view"
// @Success 200 {object} models.StateResponse
// @Failure 400 {object} models.ErrorResponse
// @Security SessionAuth
// @Router /view [put]
func (h *Handler) Navigate(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req models.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request body",
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}

	v, err := models.ParseAppView(req.View)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Unknown view",
			Code:    models.ErrCodeInvalidRequest,
			Details: map[string]string{"view": req.View},
		})
		return
	}

	st, err := sess.Store.Dispatch(c.Request.Context(), store.Navigate{View: v})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st.Response())
}

// RateLimited answers an API request that exceeded the session's AI quota
func (h *Handler) RateLimited(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
		Error: "Too many AI requests, try again shortly",
		Code:  models.ErrCodeRateLimited,
	})
}

// respondAsync answers an operation whose effect completes later. Without
// ?wait=true the snapshot after dispatch is returned with 202.
func (h *Handler) respondAsync(ctx context.Context, c *gin.Context, sess *session.Session, st store.State, done func(store.State) bool) {
	if !wantWait(c) {
		c.JSON(http.StatusAccepted, st.Response())
		return
	}

	if h.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.waitTimeout)
		defer cancel()
	}

	final, err := sess.Store.Await(ctx, done)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// still running; report the latest state
			c.JSON(http.StatusAccepted, sess.Store.Snapshot().Response())
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, final.Response())
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrWalletNotConnected):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error: "Please connect your wallet first",
			Code:  models.ErrCodeWalletNotConnected,
		})
	case errors.Is(err, store.ErrProposalNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "Proposal not found",
			Code:  models.ErrCodeNotFound,
		})
	case store.IsValidation(err):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: err.Error(),
			Code:  models.ErrCodeValidationFailed,
		})
	case errors.Is(err, store.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: "Session is no longer available",
			Code:  models.ErrCodeUnavailable,
		})
	case errors.Is(err, context.Canceled):
		// client went away
		c.Status(499)
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Internal server error",
			Code:  models.ErrCodeInternalError,
		})
	}
}

func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	sess, ok := session.FromContext(c)
	if !ok {
		h.logger.Error("session middleware not installed", zap.String("path", c.FullPath()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Internal server error",
			Code:  models.ErrCodeInternalError,
		})
		return nil, false
	}
	return sess, true
}

func proposalID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid proposal ID",
			Code:    models.ErrCodeInvalidRequest,
			Details: map[string]string{"id": raw},
		})
		return 0, false
	}
	return id, true
}

func wantWait(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.Query("wait"))
	return err == nil && v
}
