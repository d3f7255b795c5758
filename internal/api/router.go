package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/taskhub/task-api/docs" // swagger document
	"github.com/taskhub/task-api/internal/api/handler"
	"github.com/taskhub/task-api/internal/api/middleware"
	"github.com/taskhub/task-api/internal/core/ports"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Accounts      ports.AccountService
	Tasks         ports.TaskService
	Authenticator ports.Authenticator

	Mongo *mongo.Database
	Redis *redis.Client // optional

	Logger         zerolog.Logger
	RequestTimeout time.Duration
	MaxPhotoBytes  int
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddleware("taskapi"))
	e.Use(echomiddleware.ContextTimeoutWithConfig(echomiddleware.ContextTimeoutConfig{
		Timeout: d.RequestTimeout,
	}))

	auth := middleware.Auth(d.Authenticator)
	users := handler.NewUserHandler(d.Accounts, d.MaxPhotoBytes)
	tasks := handler.NewTaskHandler(d.Tasks)

	// --- User routes ---
	e.POST("/users", users.Register)
	e.POST("/users/login", users.Login)
	e.GET("/users/:id/photo", users.Photo)

	// Protected routes carry auth per route: a group with middleware would
	// answer 401 for unknown paths under its prefix.
	e.POST("/users/logout", users.Logout, auth)
	e.POST("/users/logoutAll", users.LogoutAll, auth)
	e.GET("/users/me", users.Me, auth)
	e.PATCH("/users/me", users.UpdateMe, auth)
	e.DELETE("/users/me", users.DeleteMe, auth)
	e.POST("/users/me/photo", users.UploadPhoto, auth,
		echomiddleware.BodyLimit(fmt.Sprintf("%dK", d.MaxPhotoBytes/1024+64)))
	e.DELETE("/users/me/photo", users.DeletePhoto, auth)

	// --- Task routes ---
	e.POST("/tasks", tasks.Create, auth)
	e.GET("/tasks", tasks.List, auth)
	e.GET("/tasks/:id", tasks.Get, auth)
	e.PATCH("/tasks/:id", tasks.Update, auth)
	e.DELETE("/tasks/:id", tasks.Delete, auth)

	// --- Health probes, metrics and docs (no auth required) ---
	health := handler.NewHealthHandler(d.Mongo, d.Redis)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger emits one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error()
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
