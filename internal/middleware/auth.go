package middleware

import (
	"net/http"
	"strings"

	"loyalty/config"
	"loyalty/internal/auth"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates JWT and sets MemberID, Email, Role in context.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("member_id", claims.MemberID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Set("claims", claims)
		c.Next()
	}
}

// bearerToken reads "Authorization: Bearer <t>", falling back to ?token= for WebSocket clients.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return c.Query("token")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// GetMemberID returns the authenticated member ID from context (must be used after AuthRequired).
func GetMemberID(c *gin.Context) uint {
	v, _ := c.Get("member_id")
	if v == nil {
		return 0
	}
	return v.(uint)
}
