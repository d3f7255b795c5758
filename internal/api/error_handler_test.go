package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskhub/task-api/internal/core/domain"
)

func TestHTTPErrorHandler_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", &domain.ValidationError{Field: "age", Reason: "must be at least 1"}, http.StatusBadRequest, "age: must be at least 1"},
		{"invalid field", fmt.Errorf("%w: done", domain.ErrInvalidField), http.StatusBadRequest, ""},
		{"email taken", domain.ErrEmailTaken, http.StatusBadRequest, ""},
		{"invalid id", domain.ErrInvalidID, http.StatusBadRequest, "invalid id"},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusBadRequest, "unable to login"},
		{"unauthenticated", domain.ErrUnauthenticated, http.StatusUnauthorized, "please authenticate"},
		{"task not found", domain.ErrTaskNotFound, http.StatusNotFound, "task not found"},
		{"photo not found", domain.ErrPhotoNotFound, http.StatusNotFound, "photo not found"},
		{"throttled", domain.ErrTooManyAttempts, http.StatusTooManyRequests, ""},
		{"cascade", fmt.Errorf("%w: %w", domain.ErrCascadeIncomplete, errors.New("timeout")), http.StatusInternalServerError, ""},
		{"store", fmt.Errorf("%w: %w", domain.ErrPersistence, errors.New("connection refused")), http.StatusInternalServerError, "internal server error"},
		{"echo", echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Request Entity Too Large"), http.StatusRequestEntityTooLarge, "Request Entity Too Large"},
	}

	handler := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Error == "" {
				t.Fatal("error message must not be empty")
			}
			if tc.msg != "" && resp.Error != tc.msg {
				t.Fatalf("expected %q, got %q", tc.msg, resp.Error)
			}
		})
	}
}

func TestHTTPErrorHandler_HidesInternalDetails(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("mongo: dial tcp 10.0.0.3:27017"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error != "internal server error" {
		t.Fatalf("driver error leaked: %q", resp.Error)
	}
}

func TestHTTPErrorHandler_Head(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodHead, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrUnauthenticated, c)

	if rec.Code != http.StatusUnauthorized || rec.Body.Len() != 0 {
		t.Fatalf("expected bodyless 401, got %d %q", rec.Code, rec.Body.String())
	}
}
