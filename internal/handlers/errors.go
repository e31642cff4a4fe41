package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/validation"
)

// ErrorResponse is the body middleware and handlers both reply with.
type ErrorResponse = apperr.Response

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator
// and reports json field names in validation errors.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
		err = validation.RegisterBindings(v)
	})
	return err
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err in the shared error shape. Internal errors are
// logged and reported, and their details never reach the client.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal("internal server error", err)
	}

	if appErr.Kind == apperr.KindInternal {
		logger.ErrorContext(c.Request.Context(), "request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: apperr.KindInternal, Message: "internal server error"})
		return
	}

	c.JSON(statusFor(appErr.Kind), ErrorResponse{
		Error:   appErr.Kind,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// respondBindError reports a request that failed binding or tag validation.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   apperr.KindValidation,
			Message: "malformed request body",
		})
		return
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = validation.Describe(fe)
		}
	}
	first := verrs[0]
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   apperr.KindValidation,
		Message: first.Field() + " " + validation.Describe(first),
		Field:   first.Field(),
		Fields:  fields,
	})
}
