package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmatters/fil-vote/internal/models"
)

func dialStream(t *testing.T, s *testServer) (*websocket.Conn, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.token)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn, srv
}

func readEvent(t *testing.T, conn *websocket.Conn) models.StateEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event models.StateEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestStateStream_SnapshotThenUpdates(t *testing.T) {
	s := newTestServer(t, serverConfig{})
	s.do(t, http.MethodGet, "/api/state", nil)
	conn, _ := dialStream(t, s)

	first := readEvent(t, conn)
	assert.Equal(t, models.EventTypeStateSnapshot, first.Type)
	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, first.SessionID)
	assert.Len(t, first.State.Proposals, 2)

	w := s.do(t, http.MethodPut, "/api/view", models.NavigateRequest{View: "deploy-guide"})
	require.Equal(t, http.StatusOK, w.Code)

	next := readEvent(t, conn)
	assert.Equal(t, models.EventTypeStateUpdated, next.Type)
	assert.Equal(t, first.SessionID, next.SessionID)
	assert.Greater(t, next.Version, first.Version)
	assert.Equal(t, models.ViewDeployGuide, next.State.View)
}

func TestStateStream_ReportsEffectCompletion(t *testing.T) {
	s := newTestServer(t, serverConfig{})
	s.do(t, http.MethodGet, "/api/state", nil)
	conn, _ := dialStream(t, s)
	readEvent(t, conn)

	s.do(t, http.MethodPost, "/api/wallet/connect", nil)

	var wallet string
	for wallet == "" {
		wallet = readEvent(t, conn).State.Wallet
	}
	assert.Regexp(t, `^0x[0-9a-f]{40}$`, wallet)
}

func TestStateStream_ClosesWithSession(t *testing.T) {
	s := newTestServer(t, serverConfig{})
	s.do(t, http.MethodGet, "/api/state", nil)
	conn, _ := dialStream(t, s)
	readEvent(t, conn)

	s.registry.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestStateStream_RejectsForeignOrigin(t *testing.T) {
	s := newTestServer(t, serverConfig{})
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
