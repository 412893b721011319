package middleware

import (
	"net/http"
	"strings"

	"servana/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by JWTAuthMiddleware for downstream handlers.
const (
	ContextAccountID   = "accountID"
	ContextAccountRole = "accountRole"
)

// JWTAuthMiddleware authenticates requests with a Bearer token and stores
// the caller's account ID and role on the request context.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		accountID, role, err := utils.ExtractIDFromToken(tokenString)
		if err != nil || accountID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		c.Set(ContextAccountID, accountID)
		c.Set(ContextAccountRole, role)
		c.Next()
	}
}

// AccountID returns the authenticated account ID from the gin context.
func AccountID(c *gin.Context) string {
	if v, ok := c.Get(ContextAccountID); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
