package analytics

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/agenthub/registry/internal/auth"
	"github.com/agenthub/registry/internal/dto"
	"github.com/agenthub/registry/internal/registry"
	"github.com/agenthub/registry/internal/shared"
	"github.com/labstack/echo/v4"
)

const (
	recentActivityLimit = 20
	topAgentsLimit      = 10
	timeFormat          = "2006-01-02T15:04:05Z07:00"
)

type Handler struct {
	store    *Store
	registry *registry.Store
	logger   *slog.Logger
}

func NewHandler(store *Store, registryStore *registry.Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		registry: registryStore,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(public, authed *echo.Group) {
	public.GET("/stats/:agentId", h.AgentStats)
	authed.GET("/analytics", h.Platform)
}

// AgentStats godoc
// @Summary      Per-agent statistics
// @Description  Lifetime counters plus 7/30 day download windows and the rating distribution
// @Tags         analytics
// @Produce      json
// @Param        agentId  path      string  true  "Agent id (name@version)"
// @Success      200  {object}  dto.AgentStatsResponse
// @Failure      404  {object}  shared.APIError
// @Router       /marketplace/stats/{agentId} [get]
func (h *Handler) AgentStats(c echo.Context) error {
	agentID := c.Param("agentId")
	ctx := c.Request().Context()

	agent, err := h.registry.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("agent not found")
		}
		return shared.InternalError("failed to load agent stats")
	}

	now := time.Now()
	last7, err := h.store.DownloadsSince(ctx, agentID, now.AddDate(0, 0, -7))
	if err != nil {
		h.logger.Error("download window query failed", "error", err, "agent_id", agentID)
		return shared.InternalError("failed to load agent stats")
	}
	last30, err := h.store.DownloadsSince(ctx, agentID, now.AddDate(0, 0, -30))
	if err != nil {
		h.logger.Error("download window query failed", "error", err, "agent_id", agentID)
		return shared.InternalError("failed to load agent stats")
	}
	distribution, err := h.registry.RatingDistribution(ctx, agentID)
	if err != nil {
		h.logger.Error("rating distribution query failed", "error", err, "agent_id", agentID)
		return shared.InternalError("failed to load agent stats")
	}

	return c.JSON(http.StatusOK, dto.AgentStatsResponse{
		Success:         true,
		AgentID:         agent.ID,
		Downloads:       agent.Downloads,
		Views:           agent.Views,
		ReviewCount:     agent.ReviewCount,
		AverageRating:   agent.Rating,
		DownloadsLast7:  last7,
		DownloadsLast30: last30,
		Distribution:    distribution,
	})
}

// Platform godoc
// @Summary      Platform analytics
// @Description  Totals, top agents, category distribution and recent activity; admin only
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  dto.PlatformAnalyticsResponse
// @Failure      401  {object}  shared.APIError
// @Failure      403  {object}  shared.APIError
// @Security     APIKeyAuth
// @Router       /marketplace/analytics [get]
func (h *Handler) Platform(c echo.Context) error {
	if _, err := auth.RequireAdmin(c); err != nil {
		return err
	}
	ctx := c.Request().Context()

	agents, downloads, reviews, activeUsers, err := h.store.Totals(ctx)
	if err != nil {
		h.logger.Error("platform totals query failed", "error", err)
		return shared.InternalError("failed to load platform analytics")
	}

	top, err := h.registry.TopDownloaded(ctx, topAgentsLimit)
	if err != nil {
		h.logger.Error("top agents query failed", "error", err)
		return shared.InternalError("failed to load platform analytics")
	}

	categories, err := h.registry.CategoryCounts(ctx)
	if err != nil {
		h.logger.Error("category counts query failed", "error", err)
		return shared.InternalError("failed to load platform analytics")
	}

	recent, err := h.store.RecentActivity(ctx, recentActivityLimit)
	if err != nil {
		h.logger.Error("recent activity query failed", "error", err)
		return shared.InternalError("failed to load platform analytics")
	}

	activity := make([]dto.ActivityItem, len(recent))
	for i, a := range recent {
		activity[i] = dto.ActivityItem{
			Type:      a.Type,
			AgentID:   a.AgentID,
			UserID:    a.UserID,
			Timestamp: a.Timestamp.Format(timeFormat),
		}
	}

	topAgents := make([]dto.AgentResponse, len(top))
	for i, a := range top {
		topAgents[i] = registry.ToResponse(a)
	}

	return c.JSON(http.StatusOK, dto.PlatformAnalyticsResponse{
		Success: true,
		Totals: dto.PlatformTotals{
			Agents:      agents,
			Downloads:   downloads,
			Reviews:     reviews,
			ActiveUsers: activeUsers,
		},
		TopAgents:      topAgents,
		Categories:     categories,
		RecentActivity: activity,
	})
}
