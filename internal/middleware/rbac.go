package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/models"
)

// RequireRole lets the request through when the token role is one of roles.
// The token role is a hint for routing; services re-check the stored role.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CallerRole(c)
		if role == "" {
			abort(c, http.StatusUnauthorized, apperr.KindUnauthorized, "authentication required")
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, role) {
			abort(c, http.StatusForbidden, apperr.KindForbidden, "insufficient role for this resource")
			return
		}
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}
