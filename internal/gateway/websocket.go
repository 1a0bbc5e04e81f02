package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bizmatters/fil-vote/internal/models"
	"github.com/bizmatters/fil-vote/internal/session"
)

var wsTracer = otel.Tracer("fil-vote/state-stream")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
}

// StateStream pushes a session's state to websocket clients
type StateStream struct {
	logger *zap.Logger
	tracer trace.Tracer
}

// NewStateStream creates a new state stream handler
func NewStateStream(logger *zap.Logger) *StateStream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateStream{
		logger: logger,
		tracer: wsTracer,
	}
}

// Stream handles WebSocket /ws
// @Summary Stream session state
// @Description WebSocket endpoint sending the current state on connect and one event per change
// @Tags state
// @Success 101 "Switching Protocols"
// @Security SessionAuth
// @Router /ws [get]
func (s *StateStream) Stream(c *gin.Context) {
	_, span := s.tracer.Start(c.Request.Context(), "state_stream.stream")
	defer span.End()

	sess, ok := session.FromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Internal server error",
			Code:  models.ErrCodeInternalError,
		})
		return
	}
	span.SetAttributes(attribute.String("session.id", sess.ID))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("failed to upgrade connection", zap.String("session_id", sess.ID), zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel := sess.Store.Subscribe()
	defer cancel()

	// Reads only serve control frames; a read error means the client left.
	errChan := make(chan error, 1)
	go func() {
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				errChan <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	eventType := models.EventTypeStateSnapshot
	sent := 0
	for {
		select {
		case st, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeWait))
				span.SetAttributes(attribute.Int("events.sent", sent))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(models.NewStateEvent(eventType, sess.ID, st.Response())); err != nil {
				span.RecordError(err)
				s.logger.Debug("failed to write state event", zap.String("session_id", sess.ID), zap.Error(err))
				return
			}
			eventType = models.EventTypeStateUpdated
			sent++

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case err := <-errChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket closed unexpectedly", zap.String("session_id", sess.ID), zap.Error(err))
			}
			span.SetAttributes(attribute.Int("events.sent", sent))
			return
		}
	}
}
