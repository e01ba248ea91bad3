package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/booking-engine-api/internal/models"
	appErrors "github.com/noah-isme/booking-engine-api/pkg/errors"
	"github.com/noah-isme/booking-engine-api/pkg/response"
)

// RequireRoles lets the request through only for callers holding one of roles.
// Services repeat the check; this keeps obviously unauthorized calls away from storage.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(claims.Role)+" may not perform this action"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdministrative admits superusers and resource or reservation administrators.
func RequireAdministrative() gin.HandlerFunc {
	return RequireRoles(models.RoleSuperuser, models.RoleAdminResource, models.RoleAdminReservation)
}
