package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserIDContextKey is where the authenticated user id lives in the gin
// context.
const UserIDContextKey = "user_id"

// userIDHeader is set by the upstream auth gateway after it validates
// the session. This service never sees credentials.
const userIDHeader = "X-User-ID"

// RequireUser rejects requests that arrive without an authenticated
// identity from the gateway.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userIDHeader)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Unauthorized",
			})
			c.Abort()
			return
		}

		c.Set(UserIDContextKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id for the request.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDContextKey)
}
