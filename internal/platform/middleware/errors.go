package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pms/pms/internal/platform/apperr"
)

// ErrorHandler maps domain errors to HTTP responses. Typed apperr errors
// carry their own status; echo.HTTPError passes through; anything else is an
// opaque 500.
func ErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var domainErr *apperr.Error
		if errors.As(err, &domainErr) {
			_ = c.JSON(domainErr.HTTPStatus(), map[string]string{
				"error": domainErr.Message,
				"kind":  kindLabel(domainErr.Kind),
			})
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			_ = c.JSON(httpErr.Code, map[string]interface{}{"error": httpErr.Message})
			return
		}

		_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func kindLabel(k apperr.Kind) string {
	switch k {
	case apperr.KindNotFound:
		return "not_found"
	case apperr.KindValidation:
		return "validation"
	case apperr.KindConfiguration:
		return "configuration"
	case apperr.KindCoverageViolation:
		return "coverage_violation"
	case apperr.KindInsufficientStock:
		return "insufficient_stock"
	case apperr.KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}
