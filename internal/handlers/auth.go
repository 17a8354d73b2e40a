package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/minglehq/backend/internal/database"
	"github.com/minglehq/backend/internal/models"
	"github.com/minglehq/backend/internal/util"
)

// AuthMiddleware validates bearer JWTs issued by the credential service and
// loads the caller's identity and role into the request context. Token
// issuance happens elsewhere; this side only verifies.
func AuthMiddleware(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			util.RespondUnauthorized(c, "no token provided")
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			util.RespondUnauthorized(c, "invalid token")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			util.RespondUnauthorized(c, "invalid token claims")
			c.Abort()
			return
		}

		exp, ok := claims["exp"].(float64)
		if !ok || time.Unix(int64(exp), 0).Before(time.Now()) {
			util.RespondUnauthorized(c, "token expired")
			c.Abort()
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			util.RespondUnauthorized(c, "invalid user_id in token")
			c.Abort()
			return
		}

		// Role comes from the stored user, not the token, so promotions
		// and revocations take effect immediately.
		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			util.RespondUnauthorized(c, "user not found")
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("role", user.Role)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimPrefix(auth, "Bearer ")
		}
		return auth
	}
	return c.Query("token")
}
