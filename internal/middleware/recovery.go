package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
)

// RecoveryWithLog turns a handler panic into a 500 and reports it.
func RecoveryWithLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					slog.Any("panic", r),
					slog.String("method", c.Request.Method),
					slog.String("path", c.Request.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)
				sentry.CaptureException(fmt.Errorf("panic: %v", r))
				abort(c, http.StatusInternalServerError, apperr.KindInternal, "internal server error")
			}
		}()
		c.Next()
	}
}
