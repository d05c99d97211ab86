package registry

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/agenthub/registry/internal/auth"
	"github.com/agenthub/registry/internal/dto"
	"github.com/agenthub/registry/internal/shared"
	"github.com/labstack/echo/v4"
)

// InstallHandler covers the client-side lifecycle: install, check for
// updates, apply an update.
type InstallHandler struct {
	store  *Store
	events EventTracker
	logger *slog.Logger
}

func NewInstallHandler(store *Store, events EventTracker, logger *slog.Logger) *InstallHandler {
	return &InstallHandler{
		store:  store,
		events: events,
		logger: logger,
	}
}

func (h *InstallHandler) RegisterRoutes(authed *echo.Group) {
	authed.POST("/install", h.Install)
	authed.GET("/updates", h.CheckUpdates)
	authed.POST("/update/:id", h.UpdateInstalled)
}

// Install godoc
// @Summary      Install an agent
// @Description  Records a download and bumps the agent's download counter
// @Tags         marketplace
// @Accept       json
// @Produce      json
// @Param        request  body      dto.InstallRequest  true  "Agent to install"
// @Success      200  {object}  dto.InstallResponse
// @Failure      400  {object}  shared.APIError
// @Failure      401  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Security     APIKeyAuth
// @Router       /marketplace/install [post]
func (h *InstallHandler) Install(c echo.Context) error {
	principal, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req dto.InstallRequest
	if err := c.Bind(&req); err != nil || req.AgentID == "" {
		return shared.BadRequest(shared.CodeValidation, "agentId is required")
	}

	agent, err := h.store.GetByID(c.Request().Context(), req.AgentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("agent not found")
		}
		return shared.InternalError("failed to install agent")
	}

	record, err := h.store.Install(c.Request().Context(), agent.ID, principal.UserID, agent.Version)
	if err != nil {
		h.logger.Error("install failed", "error", err, "agent_id", agent.ID, "user_id", principal.UserID)
		return shared.InternalError("failed to install agent")
	}
	agent.Downloads++

	h.events.Track(c.Request().Context(), shared.EventAgentInstalled, agent.ID, principal.UserID, map[string]any{
		"version": agent.Version,
	})
	h.logger.Info("agent installed", "agent_id", agent.ID, "user_id", principal.UserID)

	return c.JSON(http.StatusOK, dto.InstallResponse{
		Success:   true,
		InstallID: record.ID,
		Agent:     ToResponse(agent),
	})
}

// CheckUpdates godoc
// @Summary      Check for updates
// @Description  Compares installed versions against the latest published ones
// @Tags         marketplace
// @Accept       json
// @Produce      json
// @Param        request  body      dto.CheckUpdatesRequest  true  "Installed agents"
// @Success      200  {object}  dto.CheckUpdatesResponse
// @Failure      400  {object}  shared.APIError
// @Failure      401  {object}  shared.APIError
// @Security     APIKeyAuth
// @Router       /marketplace/updates [get]
func (h *InstallHandler) CheckUpdates(c echo.Context) error {
	if _, err := auth.RequireAuth(c); err != nil {
		return err
	}

	var req dto.CheckUpdatesRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest(shared.CodeValidation, "invalid request body")
	}

	updates := make([]dto.AvailableUpdate, 0)
	for _, installed := range req.Installed {
		if installed.Name == "" || installed.Version == "" {
			continue
		}

		latest, err := h.store.LatestByName(c.Request().Context(), installed.Name)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			h.logger.Error("update check failed", "error", err, "name", installed.Name)
			return shared.InternalError("failed to check updates")
		}

		if CompareVersions(latest.Version, installed.Version) > 0 {
			updates = append(updates, dto.AvailableUpdate{
				Name:           installed.Name,
				CurrentVersion: installed.Version,
				LatestVersion:  latest.Version,
				Agent:          ToResponse(latest),
			})
		}
	}

	return c.JSON(http.StatusOK, dto.CheckUpdatesResponse{
		Success: true,
		Updates: updates,
	})
}

// UpdateInstalled godoc
// @Summary      Update an installed agent
// @Description  Re-syncs an installed agent to the target version; counters are untouched
// @Tags         marketplace
// @Produce      json
// @Param        id   path      string  true  "Agent id (name@version) to update to"
// @Success      200  {object}  dto.UpdateInstalledResponse
// @Failure      401  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Security     APIKeyAuth
// @Router       /marketplace/update/{id} [post]
func (h *InstallHandler) UpdateInstalled(c echo.Context) error {
	principal, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	// A re-sync is not a new install: the agent record is returned as
	// is, with no download row and no counter bump.
	id := c.Param("id")
	agent, err := h.store.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("agent not found")
		}
		return shared.InternalError("failed to update agent")
	}

	h.events.Track(c.Request().Context(), shared.EventAgentUpdated, agent.ID, principal.UserID, map[string]any{
		"version": agent.Version,
	})

	return c.JSON(http.StatusOK, dto.UpdateInstalledResponse{
		Success: true,
		Agent:   ToResponse(agent),
	})
}
