package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sketchmakerhq/creditd/internal/security"
)

// AuthMiddleware validates the admin bearer token and injects claims.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, errParse := security.ParseAdminToken(jwtSecret, strings.TrimPrefix(header, "Bearer "))
		if errParse != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set("adminClaims", claims)
		c.Next()
	}
}
