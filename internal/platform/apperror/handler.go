package apperror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// FromBind converts a request binding failure into a validation error.
// Transport-level failures keep their own status: a body rejected by the
// size limiter stays a 413 instead of collapsing into a generic 400.
func FromBind(err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code == http.StatusRequestEntityTooLarge {
		return httpErr
	}
	return Validation("Invalid JSON body")
}

// HTTPErrorHandler returns an echo error handler that maps application
// errors to their status codes and JSON payloads. The reference-range
// surface reports errors as {"error": ...} while the rest of the API
// uses {"msg": ...}; the handler keeps both shapes stable. Internal
// error details are logged, never sent to the client.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Internal server error"

		if appErr, ok := As(err); ok {
			status = appErr.Status()
			message = appErr.Message
			if appErr.Kind == KindInternal {
				logger.Error().
					Err(appErr.Err).
					Str("method", c.Request().Method).
					Str("path", c.Request().URL.Path).
					Msg("internal error")
				message = "Internal server error"
			}
		} else if httpErr, ok := err.(*echo.HTTPError); ok {
			status = httpErr.Code
			if m, ok := httpErr.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(status)
			}
		} else {
			logger.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
		}

		key := "msg"
		if strings.HasPrefix(c.Request().URL.Path, "/reference_ranges") {
			key = "error"
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, map[string]string{key: message})
	}
}
