package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/models"
	"github.com/Code-Chilll/Task-Manager/internal/services"
)

const (
	ContextUserEmail = "user_email"
	ContextUserRole  = "user_role"
)

// Authenticate requires a valid bearer token and stores the caller identity on the context.
func Authenticate(tokens services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, apperr.KindUnauthorized, "Authorization header is required")
			return
		}

		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			abort(c, http.StatusUnauthorized, apperr.KindUnauthorized, "Authorization header must use Bearer token")
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(tokenStr))
		if err != nil {
			abort(c, http.StatusUnauthorized, apperr.KindUnauthorized, messageOf(err))
			return
		}

		c.Set(ContextUserEmail, claims.Email())
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

// CallerEmail returns the authenticated email, or "" outside Authenticate.
func CallerEmail(c *gin.Context) string {
	return c.GetString(ContextUserEmail)
}

func CallerRole(c *gin.Context) models.Role {
	role, _ := c.Get(ContextUserRole)
	r, _ := role.(models.Role)
	return r
}

func abort(c *gin.Context, status int, kind apperr.Kind, message string) {
	c.AbortWithStatusJSON(status, apperr.Response{Error: kind, Message: message})
}

func messageOf(err error) string {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
