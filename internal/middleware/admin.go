package middleware

import (
	"net/http"

	"loyalty/internal/auth"
	"loyalty/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired guards the /admin routes. It reads the claims stored by
// AuthRequired and must run after it.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := c.Get("claims")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		if cl, _ := claims.(*auth.Claims); cl == nil || cl.Role != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "only administrators can manage the CP engine"})
			return
		}
		c.Next()
	}
}
