package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourname/dailywords/internal"
	"github.com/yourname/dailywords/internal/response"
	"github.com/yourname/dailywords/internal/session"
)

const (
	ctxRequestID    = "request_id"
	ctxSessionToken = "session_token"
)

// RequestIDMiddleware ensures every request has a correlation/request ID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(ctxRequestID, reqID)
		c.Writer.Header().Set("X-Request-ID", reqID)
		c.Next()
	}
}

// SessionMiddleware resolves the caller's session cookie, issuing a fresh
// anonymous session (and cookie) when the token is absent or unknown.
func SessionMiddleware(sessions *session.Manager, cookieName string, logger internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil {
			token = ""
		} else if _, ok := sessions.Get(token); !ok {
			token = ""
		}

		if token == "" {
			token, err = sessions.Issue()
			if err != nil {
				logger.Errorf("session: cannot issue token: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Failure("session unavailable"))
				return
			}
			c.SetCookie(cookieName, token, 0, "/", "", false, true)
		}

		c.Set(ctxSessionToken, token)
		c.Next()
	}
}
