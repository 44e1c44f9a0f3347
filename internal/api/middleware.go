package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hazemadel/edumsg/internal/auth"
	"github.com/hazemadel/edumsg/internal/models"
)

// AuthMiddleware validates JWT tokens and sets the authenticated actor
// in the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("actor", claims.Actor())
		c.Set("name", claims.Name)

		c.Next()
	}
}

// actorFromContext returns the authenticated actor set by the
// middleware. The bool mirrors gin's own context lookups.
func actorFromContext(c *gin.Context) (models.Actor, bool) {
	v, exists := c.Get("actor")
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}
