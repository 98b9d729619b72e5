package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const pingTimeout = 2 * time.Second

type HealthController struct {
	db     Pinger
	redis  Pinger
	logger *zap.Logger
}

func NewHealthController(db, redis Pinger, logger *zap.Logger) *HealthController {
	return &HealthController{db: db, redis: redis, logger: logger}
}

// Health reports 503 when the database is unreachable. Redis failures only
// mark the response degraded since the site can serve without its cache.
func (hc *HealthController) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
	defer cancel()

	res := map[string]any{"status": "ok", "database": "connected", "timestamp": time.Now().UTC()}
	status := http.StatusOK
	if err := hc.db.Ping(ctx); err != nil {
		hc.logger.Error("health check: database ping", zap.Error(err))
		res["status"] = "error"
		res["database"] = "disconnected"
		status = http.StatusServiceUnavailable
	}
	if hc.redis != nil {
		res["cache"] = "connected"
		if err := hc.redis.Ping(ctx); err != nil {
			hc.logger.Warn("health check: redis ping", zap.Error(err))
			res["cache"] = "disconnected"
			if status == http.StatusOK {
				res["status"] = "degraded"
			}
		}
	}
	return c.JSON(status, res)
}
