package gateway

import (
	"github.com/gin-gonic/gin"

	"github.com/bizmatters/fil-vote/internal/session"
)

// AIRateLimit spends one token of the session's AI quota per request.
// Requests over quota are answered by onLimited, which must abort.
func AIRateLimit(onLimited gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := session.FromContext(c)
		if !ok || sess.Limiter == nil || sess.Limiter.Allow() {
			c.Next()
			return
		}
		onLimited(c)
		c.Abort()
	}
}
