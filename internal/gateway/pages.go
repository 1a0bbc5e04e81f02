package gateway

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bizmatters/fil-vote/internal/models"
	"github.com/bizmatters/fil-vote/internal/session"
	"github.com/bizmatters/fil-vote/internal/store"
	"github.com/bizmatters/fil-vote/internal/view"
)

// Notices shown in the page modal
const (
	NoticeConnectWallet   = "Please connect your wallet first!"
	NoticeDraftIncomplete = "Please enter both a title and a description."
	NoticeEmptyDraft      = "Write a description first, then ask for an improvement."
	NoticeUnknownView     = "That page is not available."
	NoticeUnknownProposal = "That proposal does not exist."
	NoticeRateLimited     = "Too many AI requests. Please wait a moment and try again."
)

// Index renders the session's current view
func (h *Handler) Index(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, sess.Store.Snapshot(), "")
}

// NavigatePage handles the tab and back buttons
func (h *Handler) NavigatePage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	v, err := models.ParseAppView(c.Param("view"))
	if err != nil {
		h.render(c, http.StatusNotFound, sess.Store.Snapshot(), NoticeUnknownView)
		return
	}
	if _, err := sess.Store.Dispatch(c.Request.Context(), store.Navigate{View: v}); err != nil {
		h.renderError(c, sess, err)
		return
	}
	redirectHome(c)
}

// ConnectWalletPage starts the wallet handshake from the header button
func (h *Handler) ConnectWalletPage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if _, err := sess.Store.Dispatch(c.Request.Context(), store.ConnectWallet{}); err != nil {
		h.renderError(c, sess, err)
		return
	}
	redirectHome(c)
}

// VotePage handles the Vote Now button
func (h *Handler) VotePage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.render(c, http.StatusBadRequest, sess.Store.Snapshot(), NoticeUnknownProposal)
		return
	}

	st, err := sess.Store.Dispatch(c.Request.Context(), store.Vote{ProposalID: id})
	if err != nil {
		h.renderError(c, sess, err)
		return
	}
	if _, found := st.Proposal(id); found {
		h.metrics.RecordVote(c.Request.Context())
	}
	redirectHome(c)
}

// CreateProposalPage submits the create form. The typed values are kept in
// the draft so a rejected submission re-renders them.
func (h *Handler) CreateProposalPage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req models.CreateProposalRequest
	if err := c.ShouldBind(&req); err != nil {
		h.render(c, http.StatusBadRequest, sess.Store.Snapshot(), NoticeDraftIncomplete)
		return
	}

	if _, err := sess.Store.Dispatch(ctx, store.UpdateDraft{
		Title:       req.Title,
		Description: req.Description,
	}); err != nil {
		h.renderError(c, sess, err)
		return
	}

	st, err := sess.Store.Dispatch(ctx, store.CreateProposal{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.renderError(c, sess, err)
		return
	}
	h.metrics.RecordProposalCreated(ctx, st.Proposals[0].Creator == models.AnonymousCreator)
	redirectHome(c)
}

// AnalyzePage handles the Analyze with AI button
func (h *Handler) AnalyzePage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.render(c, http.StatusBadRequest, sess.Store.Snapshot(), NoticeUnknownProposal)
		return
	}
	if _, err := sess.Store.Dispatch(c.Request.Context(), store.RequestAnalysis{ProposalID: id}); err != nil {
		h.renderError(c, sess, err)
		return
	}
	redirectHome(c)
}

// RewritePage handles the Improve with AI button on the create form
func (h *Handler) RewritePage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req models.UpdateDraftRequest
	if err := c.ShouldBind(&req); err != nil {
		h.render(c, http.StatusBadRequest, sess.Store.Snapshot(), NoticeEmptyDraft)
		return
	}

	if _, err := sess.Store.Dispatch(ctx, store.UpdateDraft{
		Title:       req.Title,
		Description: req.Description,
	}); err != nil {
		h.renderError(c, sess, err)
		return
	}
	if _, err := sess.Store.Dispatch(ctx, store.RequestRewrite{}); err != nil {
		h.renderError(c, sess, err)
		return
	}
	redirectHome(c)
}

// RateLimitedPage answers a form post that exceeded the session's AI quota
func (h *Handler) RateLimitedPage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	h.render(c, http.StatusTooManyRequests, sess.Store.Snapshot(), NoticeRateLimited)
	c.Abort()
}

func (h *Handler) renderError(c *gin.Context, sess *session.Session, err error) {
	status, notice := http.StatusInternalServerError, ""
	switch {
	case errors.Is(err, store.ErrWalletNotConnected):
		status, notice = http.StatusConflict, NoticeConnectWallet
	case errors.Is(err, store.ErrDraftIncomplete):
		status, notice = http.StatusBadRequest, NoticeDraftIncomplete
	case errors.Is(err, store.ErrEmptyDescription):
		status, notice = http.StatusBadRequest, NoticeEmptyDraft
	case errors.Is(err, store.ErrUnknownView):
		status, notice = http.StatusBadRequest, NoticeUnknownView
	case errors.Is(err, store.ErrProposalNotFound):
		status, notice = http.StatusNotFound, NoticeUnknownProposal
	case errors.Is(err, store.ErrClosed):
		c.String(http.StatusServiceUnavailable, "Session is no longer available. Reload the page.")
		return
	default:
		h.logger.Error("page action failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.String(status, "Internal server error")
		return
	}
	h.render(c, status, sess.Store.Snapshot(), notice)
}

func (h *Handler) render(c *gin.Context, status int, st store.State, notice string) {
	page := view.NewPage(st.Response(), h.location)
	page.Notice = notice
	c.HTML(status, view.PageTemplate, page)
}

// redirectHome finishes a form post so reloads do not repeat it
func redirectHome(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}
