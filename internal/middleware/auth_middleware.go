package middleware

import (
	"net/http"
	"strings"

	"github.com/borjaoskins/raffle-backend/internal/config"
	"github.com/borjaoskins/raffle-backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware guards admin-only routes. It validates the bearer token
// and requires an admin role claim.
func AdminAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	const bearerSchema = "Bearer "

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}
		if !strings.HasPrefix(authHeader, bearerSchema) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer"})
			return
		}

		claims, err := utils.ValidateJWT(authHeader[len(bearerSchema):], cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		if role, _ := claims["role"].(string); role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
			return
		}

		c.Set("role", "admin")
		c.Next()
	}
}
