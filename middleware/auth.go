package middleware

import (
	"net/http"
	"strings"

	"ChatterAI/pkg/token"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey   = "current_user_id"
	ContextUsernameKey = "current_username"
)

func Auth(tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing authorization header"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid authorization header"})
			return
		}

		ident, err := tokens.Verify(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}

		c.Set(ContextUserIDKey, ident.UserID)
		c.Set(ContextUsernameKey, ident.Username)
		c.Next()
	}
}
