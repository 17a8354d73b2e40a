package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/minglehq/backend/internal/errors"
	"github.com/minglehq/backend/internal/models"
	"github.com/minglehq/backend/internal/util"
)

// RequireAdmin gates a route group to admin accounts. It relies on the
// auth middleware having already resolved the role from the database.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, util.Envelope{
				Message: "Authentication required",
				Error:   string(errors.ErrUnauthorized),
			})
			return
		}

		if util.GetRoleFromContext(c) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, util.Envelope{
				Message: "Admin access required",
				Error:   string(errors.ErrForbidden),
			})
			return
		}

		c.Next()
	}
}
