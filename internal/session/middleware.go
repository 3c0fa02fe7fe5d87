package session

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// EmailKey is the gin context key holding the authenticated account email.
const EmailKey = "session_email"

func tokenFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, found := strings.CutPrefix(header, "Bearer "); found {
		return token
	}
	return c.GetHeader("X-Session-Token")
}

// RequireSession rejects requests without a valid session token. The token
// comes from the Authorization header (Bearer scheme) or X-Session-Token.
func RequireSession(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, err := svc.Validate(c.Request.Context(), tokenFromRequest(c))
		if errors.Is(err, ErrSessionNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if err != nil {
			// Backend outage, not a bad token; the client may retry.
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Session check unavailable, try again shortly"})
			return
		}
		c.Set(EmailKey, email)
		c.Next()
	}
}
