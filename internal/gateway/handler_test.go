package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bizmatters/fil-vote/internal/models"
	"github.com/bizmatters/fil-vote/internal/session"
	"github.com/bizmatters/fil-vote/internal/store"
	"github.com/bizmatters/fil-vote/internal/view"
)

var testNow = time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)

type fakeGateway struct {
	analysis string
	rewrite  string
}

func (g fakeGateway) Analyze(context.Context, string, string) string { return g.analysis }

func (g fakeGateway) SuggestRewrite(_ context.Context, description string) string {
	if g.rewrite == "" {
		return description
	}
	return g.rewrite
}

type countingRecorder struct {
	mu        sync.Mutex
	votes     int
	anonymous []bool
}

func (r *countingRecorder) RecordVote(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.votes++
}

func (r *countingRecorder) RecordProposalCreated(_ context.Context, anonymous bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.anonymous = append(r.anonymous, anonymous)
}

type testServer struct {
	router   *gin.Engine
	registry *session.Registry
	recorder *countingRecorder
	token    string
}

type serverConfig struct {
	gateway           store.Gateway
	requestsPerMinute int
	burst             int
	ready             func() bool
	logger            *zap.Logger
}

func newTestServer(t *testing.T, cfg serverConfig) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := session.NewRegistry(session.RegistryOptions{
		NewStore: func() *store.Store {
			return store.New(store.Options{
				Gateway:     cfg.gateway,
				WalletDelay: 10 * time.Millisecond,
				Clock:       func() time.Time { return testNow },
			})
		},
		MaxSessions:       10,
		IdleTimeout:       time.Hour,
		JanitorSpec:       "@every 1m",
		RequestsPerMinute: cfg.requestsPerMinute,
		Burst:             cfg.burst,
	})
	t.Cleanup(registry.Close)

	manager, err := session.NewManager("gateway-test-secret", time.Hour)
	require.NoError(t, err)

	renderer, err := view.NewRenderer()
	require.NoError(t, err)

	rec := &countingRecorder{}
	h := NewHandler(Options{
		Renderer:    renderer,
		Metrics:     rec,
		Location:    time.UTC,
		WaitTimeout: 2 * time.Second,
	})

	router := NewRouter(RouterOptions{
		Handler:  h,
		Registry: registry,
		Sessions: manager,
		Ready:    cfg.ready,
		Logger:   cfg.logger,
	})

	return &testServer{router: router, registry: registry, recorder: rec}
}

// do sends a request within the server's session, starting one if needed
func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.serve(t, req)
}

func (s *testServer) form(t *testing.T, path string, values map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	pairs := make([]string, 0, len(values))
	for k, v := range values {
		pairs = append(pairs, k+"="+v)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(strings.Join(pairs, "&")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if token := w.Header().Get(session.TokenHeader); token != "" {
		s.token = token
	}
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) models.StateResponse {
	t.Helper()
	var st models.StateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	return st
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var e models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func connectWallet(t *testing.T, s *testServer) models.StateResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/wallet/connect?wait=true", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	st := decodeState(t, w)
	require.NotEmpty(t, st.Wallet)
	return st
}

func TestHealthAndReady(t *testing.T) {
	ready := true
	s := newTestServer(t, serverConfig{ready: func() bool { return ready }})

	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	assert.Empty(t, w.Header().Get(session.TokenHeader), "health checks run outside sessions")

	w = s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	ready = false
	w = s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 0, s.registry.Len())
}

func TestAPI_GetState(t *testing.T) {
	s := newTestServer(t, serverConfig{})

	w := s.do(t, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decodeState(t, w)

	assert.Equal(t, models.ViewDashboard, st.View)
	assert.Empty(t, st.Wallet)
	require.Len(t, st.Proposals, 2)
	assert.Equal(t, int64(156), st.Proposals[0].VoteCount)
	assert.Empty(t, st.Analyses)
	assert.NotEmpty(t, s.token)
}

func TestAPI_ListProposals(t *testing.T) {
	s := newTestServer(t, serverConfig{})

	w := s.do(t, http.MethodGet, "/api/proposals", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ProposalListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "Upgrade Storage Infrastructure", resp.Proposals[0].Title)
}

func TestAPI_ConnectWallet(t *testing.T) {
	s := newTestServer(t, serverConfig{})

	w := s.do(t, http.MethodPost, "/api/wallet/connect", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	st := decodeState(t, w)
	assert.True(t, st.Connecting)
	assert.Empty(t, st.Wallet)

	w = s.do(t, http.MethodPost, "/api/wallet/connect?wait=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st = decodeState(t, w)
	assert.False(t, st.Connecting)
	assert.Regexp(t, `^0x[0-9a-f]{40}$`, st.Wallet)
}

func TestAPI_CastVote(t *testing.T) {
	tests := []struct {
		name       string
		connect    bool
		path       string
		wantStatus int
		wantCode   string
		wantVotes  []int64
	}{
		{
			name:       "counts vote",
			connect:    true,
			path:       "/api/proposals/1/votes",
			wantStatus: http.StatusOK,
			wantVotes:  []int64{157, 89},
		},
		{
			name:       "requires wallet",
			path:       "/api/proposals/1/votes",
			wantStatus: http.StatusConflict,
			wantCode:   models.ErrCodeWalletNotConnected,
			wantVotes:  []int64{156, 89},
		},
		{
			name:       "unknown id is a no-op",
			connect:    true,
			path:       "/api/proposals/42/votes",
			wantStatus: http.StatusOK,
			wantVotes:  []int64{156, 89},
		},
		{
			name:       "bad id",
			connect:    true,
			path:       "/api/proposals/abc/votes",
			wantStatus: http.StatusBadRequest,
			wantCode:   models.ErrCodeInvalidRequest,
			wantVotes:  []int64{156, 89},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, serverConfig{})
			if tt.connect {
				connectWallet(t, s)
			}

			w := s.do(t, http.MethodPost, tt.path, nil)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
			}

			st := decodeState(t, s.do(t, http.MethodGet, "/api/state", nil))
			var votes []int64
			for _, p := range st.Proposals {
				votes = append(votes, p.VoteCount)
			}
			assert.Equal(t, tt.wantVotes, votes)
		})
	}
}

func TestAPI_CastVoteRecordsMetric(t *testing.T) {
	s := newTestServer(t, serverConfig{})
	connectWallet(t, s)

	s.do(t, http.MethodPost, "/api/proposals/2/votes", nil)
	s.do(t, http.MethodPost, "/api/proposals/99/votes", nil)

	assert.Equal(t, 1, s.recorder.votes)
}

func TestAPI_CreateProposal(t *testing.T) {
	tests := []struct {
		name          string
		connect       bool
		body          any
		wantStatus    int
		wantCode      string
		wantAnonymous bool
	}{
		{
			name:          "anonymous",
			body:          models.CreateProposalRequest{Title: "Fund docs", Description: "Pay for documentation"},
			wantStatus:    http.StatusCreated,
			wantAnonymous: true,
		},
		{
			name:       "with wallet",
			connect:    true,
			body:       models.CreateProposalRequest{Title: "Fund docs", Description: "Pay for documentation"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "empty title",
			body:       models.CreateProposalRequest{Description: "Pay for documentation"},
			wantStatus: http.StatusBadRequest,
			wantCode:   models.ErrCodeValidationFailed,
		},
		{
			name:       "not json",
			body:       "title=x",
			wantStatus: http.StatusBadRequest,
			wantCode:   models.ErrCodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, serverConfig{})
			var wallet string
			if tt.connect {
				wallet = connectWallet(t, s).Wallet
			}

			w := s.do(t, http.MethodPost, "/api/proposals", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
				assert.Len(t, decodeState(t, s.do(t, http.MethodGet, "/api/state", nil)).Proposals, 2)
				assert.Empty(t, s.recorder.anonymous)
				return
			}

			var created models.Proposal
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
			assert.Equal(t, int64(3), created.ID)
			assert.Equal(t, "Fund docs", created.Title)
			assert.Zero(t, created.VoteCount)
			assert.True(t, created.Active)
			assert.True(t, created.Deadline.After(testNow))
			if tt.wantAnonymous {
				assert.Equal(t, models.AnonymousCreator, created.Creator)
			} else {
				assert.Equal(t, wallet, created.Creator)
			}
			assert.Equal(t, []bool{tt.wantAnonymous}, s.recorder.anonymous)

			st := decodeState(t, s.do(t, http.MethodGet, "/api/state", nil))
			assert.Equal(t, created.ID, st.Proposals[0].ID)
			assert.Equal(t, models.ViewDashboard, st.View)
		})
	}
}

func TestAPI_RequestAnalysis(t *testing.T) {
	s := newTestServer(t, serverConfig{gateway: fakeGateway{analysis: "Looks sound."}})

	w := s.do(t, http.MethodPost, "/api/proposals/2/analysis?wait=true", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	st := decodeState(t, w)
	assert.Equal(t, "Looks sound.", st.Analyses[2])
	assert.Empty(t, st.Analyzing)

	w = s.do(t, http.MethodPost, "/api/proposals/42/analysis", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.ErrCodeNotFound, decodeError(t, w).Code)

	w = s.do(t, http.MethodPost, "/api/proposals/x/analysis", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_RequestAnalysisEmptyResult(t *testing.T) {
	s := newTestServer(t, serverConfig{gateway: fakeGateway{}})

	w := s.do(t, http.MethodPost, "/api/proposals/1/analysis?wait=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, store.AnalysisFailedText, decodeState(t, w).Analyses[1])
}

func TestAPI_DraftAndRewrite(t *testing.T) {
	s := newTestServer(t, serverConfig{gateway: fakeGateway{rewrite: "A clearer description."}})

	w := s.do(t, http.MethodPost, "/api/draft/rewrite", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.ErrCodeValidationFailed, decodeError(t, w).Code)

	w = s.do(t, http.MethodPut, "/api/draft", models.UpdateDraftRequest{Title: "T", Description: "rough notes"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.Draft{Title: "T", Description: "rough notes"}, decodeState(t, w).Draft)

	w = s.do(t, http.MethodPost, "/api/draft/rewrite?wait=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decodeState(t, w)
	assert.False(t, st.Improving)
	assert.Equal(t, models.Draft{Title: "T", Description: "A clearer description."}, st.Draft)
}

func TestAPI_Navigate(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantView   models.AppView
	}{
		{"create form", models.NavigateRequest{View: "create-proposal"}, http.StatusOK, models.ViewCreateProposal},
		{"enum spelling", models.NavigateRequest{View: "DEPLOY_GUIDE"}, http.StatusOK, models.ViewDeployGuide},
		{"not routable", models.NavigateRequest{View: "VOTE_HISTORY"}, http.StatusBadRequest, models.ViewDashboard},
		{"unknown", models.NavigateRequest{View: "settings"}, http.StatusBadRequest, models.ViewDashboard},
		{"missing", map[string]string{}, http.StatusBadRequest, models.ViewDashboard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, serverConfig{})

			w := s.do(t, http.MethodPut, "/api/view", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			st := decodeState(t, s.do(t, http.MethodGet, "/api/state", nil))
			assert.Equal(t, tt.wantView, st.View)
		})
	}
}

func TestAPI_SessionsAreIsolated(t *testing.T) {
	s := newTestServer(t, serverConfig{})
	connectWallet(t, s)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/proposals/1/votes", nil).Code)

	other := &testServer{router: s.router}
	st := decodeState(t, other.do(t, http.MethodGet, "/api/state", nil))
	assert.Empty(t, st.Wallet)
	assert.Equal(t, int64(156), st.Proposals[0].VoteCount)
	assert.Equal(t, 2, s.registry.Len())
}
