// Package health exposes the liveness endpoint and the request counter
// it reports from.
package health

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Status struct {
	Status     string `json:"status" example:"ok"`
	Uptime     string `json:"uptime" example:"1h23m45s"`
	Requests   int64  `json:"requests" example:"1523"`
	Database   string `json:"database" example:"ok"`
	Redis      string `json:"redis,omitempty" example:"ok"`
	ServerTime string `json:"server_time" example:"2024-01-15T10:30:00Z"`
}

type Handler struct {
	db       *gorm.DB
	redis    *redis.Client
	started  time.Time
	requests atomic.Int64
}

func NewHandler(db *gorm.DB, redisClient *redis.Client) *Handler {
	return &Handler{
		db:      db,
		redis:   redisClient,
		started: time.Now(),
	}
}

// CountRequests is global middleware that feeds the request counter.
func (h *Handler) CountRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h.requests.Add(1)
		return next(c)
	}
}

// Check godoc
// @Summary      Health check
// @Description  Liveness, uptime and dependency status
// @Tags         health
// @Produce      json
// @Success      200  {object}  health.Status
// @Router       /health [get]
func (h *Handler) Check(c echo.Context) error {
	ctx := c.Request().Context()

	status := Status{
		Status:     "ok",
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Requests:   h.requests.Load(),
		Database:   "ok",
		ServerTime: time.Now().UTC().Format(time.RFC3339),
	}

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		status.Status = "degraded"
		status.Database = "unreachable"
	}

	if h.redis != nil {
		status.Redis = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			status.Status = "degraded"
			status.Redis = "unreachable"
		}
	}

	return c.JSON(http.StatusOK, status)
}
