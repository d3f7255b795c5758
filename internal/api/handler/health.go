package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const readinessTimeout = 3 * time.Second

// dependency is one readiness check. A failing required dependency makes
// the instance unready; an optional one is only reported as degraded.
type dependency struct {
	name     string
	required bool
	ping     func(ctx context.Context) error // nil when not configured
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	deps []dependency
}

// NewHealthHandler checks MongoDB (required) and Redis (optional, nil when
// login throttling is disabled).
func NewHealthHandler(db *mongo.Database, rdb *redis.Client) *HealthHandler {
	h := &HealthHandler{}
	if db != nil {
		h.deps = append(h.deps, dependency{name: "mongodb", required: true, ping: func(ctx context.Context) error {
			return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
		}})
	}
	redisDep := dependency{name: "redis"}
	if rdb != nil {
		redisDep.ping = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	h.deps = append(h.deps, redisDep)
	return h
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Liveness handles GET /health. It never touches a dependency.
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness handles GET /health/ready.
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	resp := readinessResponse{Status: "ok", Dependencies: make(map[string]dependencyStatus, len(h.deps))}
	code := http.StatusOK

	for _, d := range h.deps {
		switch {
		case d.ping == nil:
			resp.Dependencies[d.name] = dependencyStatus{Status: "disabled"}
		case d.required:
			if err := d.ping(ctx); err != nil {
				resp.Dependencies[d.name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
				resp.Status = "unavailable"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Dependencies[d.name] = dependencyStatus{Status: "ok"}
		default:
			if err := d.ping(ctx); err != nil {
				resp.Dependencies[d.name] = dependencyStatus{Status: "degraded", Error: "ping failed"}
				continue
			}
			resp.Dependencies[d.name] = dependencyStatus{Status: "ok"}
		}
	}

	return c.JSON(code, resp)
}
