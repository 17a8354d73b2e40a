package util

import (
	"github.com/gin-gonic/gin"
)

// GetUserIDFromContext extracts the authenticated user ID from the Gin
// context. If the request is not authenticated it responds 401 and returns
// false, so handlers can bail with a bare return.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		RespondUnauthorized(c)
		return "", false
	}
	userIDStr, ok := userID.(string)
	if !ok || userIDStr == "" {
		RespondInternalError(c, "invalid user ID in context")
		return "", false
	}
	return userIDStr, true
}

// GetRoleFromContext extracts the caller's role set by the auth middleware.
// Missing role defaults to "user".
func GetRoleFromContext(c *gin.Context) string {
	role, exists := c.Get("role")
	if !exists {
		return "user"
	}
	roleStr, ok := role.(string)
	if !ok || roleStr == "" {
		return "user"
	}
	return roleStr
}
