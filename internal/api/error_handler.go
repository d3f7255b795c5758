package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskhub/task-api/internal/core/domain"
)

// errorResponse is the body of every error answer.
type errorResponse struct {
	Error string `json:"error"`
}

// errorStatus maps a domain error class to its status. An empty message
// means the error text itself is safe to show.
type errorStatus struct {
	err  error
	code int
	msg  string
}

// First match wins.
var errorStatuses = []errorStatus{
	{domain.ErrValidation, http.StatusBadRequest, ""},
	{domain.ErrInvalidID, http.StatusBadRequest, "invalid id"},
	{domain.ErrInvalidCredentials, http.StatusBadRequest, "unable to login"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "please authenticate"},
	{domain.ErrTaskNotFound, http.StatusNotFound, "task not found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{domain.ErrPhotoNotFound, http.StatusNotFound, "photo not found"},
	{domain.ErrTooManyAttempts, http.StatusTooManyRequests, "too many login attempts, try again later"},
}

// NewHTTPErrorHandler renders every error returned by a handler or
// middleware as {"error": "..."} with the status of its class. Server-side
// failures are logged and answered with a generic message.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err)
		if code >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error) (int, string) {
	// Router and binder errors: 404, 405, 413, malformed payloads.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprint(he.Message)
	}

	if errors.Is(err, domain.ErrCascadeIncomplete) {
		return http.StatusInternalServerError, "account deletion incomplete: tasks could not be removed, please retry"
	}

	for _, s := range errorStatuses {
		if errors.Is(err, s.err) {
			if s.msg == "" {
				return s.code, err.Error()
			}
			return s.code, s.msg
		}
	}

	return http.StatusInternalServerError, "internal server error"
}
