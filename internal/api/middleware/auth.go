package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/task-api/internal/core/domain"
	"github.com/taskhub/task-api/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextUser  = "user"
	ContextToken = "token"
)

// Auth resolves the bearer token to its user and injects both into the
// context. Any failure is reported as domain.ErrUnauthenticated; store
// failures are passed through so they surface as 500s.
func Auth(authenticator ports.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return domain.ErrUnauthenticated
			}

			user, err := authenticator.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrPersistence) {
					return err
				}
				return domain.ErrUnauthenticated
			}

			c.Set(ContextUser, user)
			c.Set(ContextToken, token)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
