package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/AureRaso/padel-club-api/internal/models"
	appErrors "github.com/AureRaso/padel-club-api/pkg/errors"
	"github.com/AureRaso/padel-club-api/pkg/response"
)

// RequireRoles gates a route to the given roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireStaff gates a route to admins and trainers.
func RequireStaff() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin, models.RoleTrainer)
}
