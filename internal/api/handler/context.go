package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/taskhub/task-api/internal/api/middleware"
	"github.com/taskhub/task-api/internal/core/domain"
)

// ctxSession returns the user and token injected by the Auth middleware.
// Their absence means the route was registered without the middleware, which
// is reported as unauthenticated rather than trusted.
func ctxSession(c echo.Context) (*domain.User, string, error) {
	user, _ := c.Get(middleware.ContextUser).(*domain.User)
	token, _ := c.Get(middleware.ContextToken).(string)
	if user == nil || token == "" {
		return nil, "", domain.ErrUnauthenticated
	}
	return user, token, nil
}
