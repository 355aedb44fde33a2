package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// userIDHeader carries the authenticated principal, set by an upstream
// auth layer (reverse proxy or gateway). Auth itself is out of scope
// here; this is the seam where it plugs in.
const userIDHeader = "X-User-ID"

const userIDContextKey = "user_id"

// RequireUser rejects requests that carry no principal. Owner-scoped
// endpoints sit behind it.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetHeader(userIDHeader)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(userIDContextKey, uid)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(userIDContextKey)
}
