package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const probeTimeout = 3 * time.Second

// HealthHandler serves the liveness and readiness probes. Liveness answers
// unconditionally; readiness pings the user store and the retired-token
// store, since the auth surface cannot serve traffic without either.
type HealthHandler struct {
	users  *mongo.Database
	tokens *redis.Client
}

func NewHealthHandler(users *mongo.Database, tokens *redis.Client) *HealthHandler {
	return &HealthHandler{users: users, tokens: tokens}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type probeResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), probeTimeout)
	defer cancel()

	checks := map[string]probeResult{
		"mongodb": probe(h.users.Client().Ping(ctx, readpref.Primary())),
		"redis":   probe(h.tokens.Ping(ctx).Err()),
	}

	status, code := "ok", http.StatusOK
	for _, r := range checks {
		if r.Status != "ok" {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	return c.JSON(code, map[string]any{
		"status":       status,
		"dependencies": checks,
	})
}

func probe(err error) probeResult {
	if err != nil {
		return probeResult{Status: "unhealthy", Error: err.Error()}
	}
	return probeResult{Status: "ok"}
}
