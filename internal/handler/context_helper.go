package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nemsu-talks-api/internal/middleware"
	"github.com/noah-isme/nemsu-talks-api/internal/models"
)

// claimsFromContext returns the verified JWT claims, or nil when the route
// ran without authentication (anonymous submission, token downloads).
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
