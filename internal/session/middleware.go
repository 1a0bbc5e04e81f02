package session

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bizmatters/fil-vote/internal/models"
)

const (
	// CookieName carries the session token for browsers
	CookieName = "filvote_session"
	// TokenHeader echoes the session token for API clients
	TokenHeader = "X-Session-Token"

	contextKey = "filvote.session"
)

var middlewareTracer = otel.Tracer("fil-vote/session-middleware")

// Middleware attaches a session to every request. The token is read from the
// Authorization header or the session cookie; a missing, invalid or expired
// token starts a fresh session.
func Middleware(registry *Registry, manager *Manager, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		ctx, span := middlewareTracer.Start(c.Request.Context(), "session.resolve")
		defer span.End()

		token := extractToken(c)
		if token != "" {
			claims, err := manager.Validate(ctx, token)
			if err == nil {
				if s, ok := registry.Get(claims.Subject); ok {
					span.SetAttributes(
						attribute.String("session.id", s.ID),
						attribute.Bool("session.created", false),
					)
					c.Header(TokenHeader, token)
					c.Set(contextKey, s)
					c.Next()
					return
				}
			} else {
				logger.Debug("discarding session token", zap.Error(err))
			}
		}

		s, err := registry.Create(ctx)
		if err != nil {
			span.RecordError(err)
			if errors.Is(err, ErrTooManySessions) {
				logger.Warn("session limit reached", zap.Int("sessions", registry.Len()))
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error: "Unable to start a session",
				Code:  models.ErrCodeUnavailable,
			})
			return
		}

		token, err = manager.Issue(ctx, s.ID)
		if err != nil {
			logger.Error("failed to issue session token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: "Unable to start a session",
				Code:  models.ErrCodeInternalError,
			})
			return
		}

		span.SetAttributes(
			attribute.String("session.id", s.ID),
			attribute.Bool("session.created", true),
		)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieName, token, int(manager.TTL().Seconds()), "/", "", c.Request.TLS != nil, true)
		c.Header(TokenHeader, token)
		c.Set(contextKey, s)
		c.Next()
	}
}

// FromContext returns the session attached by Middleware
func FromContext(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok
}

func extractToken(c *gin.Context) string {
	const prefix = "Bearer "
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie
	}
	return ""
}
