package registry

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/agenthub/registry/internal/auth"
	"github.com/agenthub/registry/internal/dto"
	"github.com/agenthub/registry/internal/shared"
	"github.com/agenthub/registry/internal/validate"
	"github.com/labstack/echo/v4"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

// Handler serves the agent lifecycle: publish, fetch, patch, delete.
type Handler struct {
	store  *Store
	events EventTracker
	logger *slog.Logger
}

func NewHandler(store *Store, events EventTracker, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		events: events,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(public, authed *echo.Group) {
	public.GET("/agent/:id", h.Get)
	authed.POST("/publish", h.Publish)
	authed.PUT("/agent/:id", h.Update)
	authed.DELETE("/agent/:id", h.Delete)
}

// ToResponse maps an agent row to its API shape. Other packages that
// return agents in their payloads reuse it.
func ToResponse(a *Agent) dto.AgentResponse {
	return dto.AgentResponse{
		ID:                a.ID,
		Name:              a.Name,
		Version:           a.Version,
		Author:            a.Author,
		PublisherID:       a.PublisherID,
		Description:       a.Description,
		Category:          string(a.Category),
		Tags:              a.Tags,
		Capabilities:      a.Capabilities,
		Dependencies:      a.Dependencies,
		Tools:             a.Tools,
		TestCoverage:      a.TestCoverage,
		PerformanceRating: a.PerformanceRating,
		License:           a.License,
		Downloads:         a.Downloads,
		Views:             a.Views,
		Rating:            a.Rating,
		ReviewCount:       a.ReviewCount,
		Status:            string(a.Status),
		PublishedAt:       a.PublishedAt.Format(timeFormat),
		UpdatedAt:         a.UpdatedAt.Format(timeFormat),
	}
}

func agentsToResponse(agents []*Agent) []dto.AgentResponse {
	out := make([]dto.AgentResponse, len(agents))
	for i, a := range agents {
		out[i] = ToResponse(a)
	}
	return out
}

// Publish godoc
// @Summary      Publish a new agent
// @Description  Registers a new agent package under name@version
// @Tags         marketplace
// @Accept       json
// @Produce      json
// @Success      201  {object}  dto.PublishResponse
// @Failure      400  {object}  shared.APIError
// @Failure      401  {object}  shared.APIError
// @Failure      403  {object}  shared.APIError
// @Failure      409  {object}  shared.APIError
// @Security     APIKeyAuth
// @Router       /marketplace/publish [post]
func (h *Handler) Publish(c echo.Context) error {
	principal, err := auth.RequirePermission(c, shared.PermissionWrite)
	if err != nil {
		return err
	}

	var payload map[string]any
	if err := c.Bind(&payload); err != nil {
		return shared.BadRequest(shared.CodeValidation, "invalid request body")
	}

	if violations := validate.Record(payload, publishSchema); len(violations) > 0 {
		return shared.ValidationFailed("agent payload failed validation", violations)
	}

	name := stringField(payload, "name")
	version := stringField(payload, "version")
	id := AgentID(name, version)

	exists, err := h.store.Exists(c.Request().Context(), id)
	if err != nil {
		h.logger.Error("failed to check agent existence", "error", err, "agent_id", id)
		return shared.InternalError("failed to publish agent")
	}
	if exists {
		return shared.Conflict(shared.CodeAgentExists, "agent "+id+" already exists")
	}

	agent := &Agent{
		ID:                id,
		Name:              name,
		Version:           version,
		Author:            stringField(payload, "author"),
		PublisherID:       principal.UserID,
		Description:       stringField(payload, "description"),
		Category:          categoryOrDefault(stringField(payload, "category")),
		Tags:              sliceField(payload, "tags"),
		Capabilities:      sliceField(payload, "capabilities"),
		Dependencies:      sliceField(payload, "dependencies"),
		Tools:             sliceField(payload, "tools"),
		TestCoverage:      numberField(payload, "testCoverage"),
		PerformanceRating: numberField(payload, "performanceRating"),
		License:           stringField(payload, "license"),
		Status:            shared.AgentStatusActive,
	}

	if err := h.store.Create(c.Request().Context(), agent); err != nil {
		h.logger.Error("failed to create agent", "error", err, "agent_id", id)
		return shared.InternalError("failed to publish agent")
	}

	h.events.Track(c.Request().Context(), shared.EventAgentPublished, id, principal.UserID, map[string]any{
		"category": string(agent.Category),
	})
	h.logger.Info("agent published", "agent_id", id, "publisher_id", principal.UserID)

	return c.JSON(http.StatusCreated, dto.PublishResponse{
		Success: true,
		Agent:   ToResponse(agent),
	})
}

// Get godoc
// @Summary      Fetch an agent
// @Description  Returns one agent by id and increments its view counter
// @Tags         marketplace
// @Produce      json
// @Param        id   path      string  true  "Agent id (name@version)"
// @Success      200  {object}  dto.AgentDetailResponse
// @Failure      404  {object}  shared.APIError
// @Router       /marketplace/agent/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	id := c.Param("id")

	agent, err := h.store.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("agent not found")
		}
		return shared.InternalError("failed to fetch agent")
	}

	if err := h.store.IncrementViews(c.Request().Context(), id); err != nil {
		h.logger.Warn("failed to increment views", "error", err, "agent_id", id)
	} else {
		agent.Views++
	}

	userID := ""
	if p := auth.GetPrincipal(c); p != nil {
		userID = p.UserID
	}
	h.events.Track(c.Request().Context(), shared.EventAgentViewed, id, userID, nil)

	return c.JSON(http.StatusOK, dto.AgentDetailResponse{
		Success: true,
		Agent:   ToResponse(agent),
	})
}

// immutableFields can never change after publish. They are dropped from
// patches silently rather than rejected.
var immutableFields = []string{"id", "name", "version", "publisherId", "publisher_id", "publishedAt", "published_at", "downloads", "views", "rating", "reviewCount", "review_count"}

// Update godoc
// @Summary      Update an agent
// @Description  Applies a partial patch; identity fields are discarded
// @Tags         marketplace
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Agent id (name@version)"
// @Success      200  {object}  dto.AgentDetailResponse
// @Failure      400  {object}  shared.APIError
// @Failure      401  {object}  shared.APIError
// @Failure      403  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Security     APIKeyAuth
// @Router       /marketplace/agent/{id} [put]
func (h *Handler) Update(c echo.Context) error {
	principal, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	agent, err := h.store.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("agent not found")
		}
		return shared.InternalError("failed to fetch agent")
	}

	if !principal.CanModify(agent.PublisherID) {
		return shared.Forbidden("only the publisher or an admin may update this agent")
	}

	var patch map[string]any
	if err := c.Bind(&patch); err != nil {
		return shared.BadRequest(shared.CodeValidation, "invalid request body")
	}
	for _, field := range immutableFields {
		delete(patch, field)
	}

	if violations := validate.Record(patch, updateSchema); len(violations) > 0 {
		return shared.ValidationFailed("agent patch failed validation", violations)
	}

	applyPatch(agent, patch)

	if err := h.store.Save(c.Request().Context(), agent); err != nil {
		h.logger.Error("failed to update agent", "error", err, "agent_id", id)
		return shared.InternalError("failed to update agent")
	}

	return c.JSON(http.StatusOK, dto.AgentDetailResponse{
		Success: true,
		Agent:   ToResponse(agent),
	})
}

// Delete godoc
// @Summary      Delete an agent
// @Description  Removes an agent; publisher or admin only
// @Tags         marketplace
// @Produce      json
// @Param        id   path      string  true  "Agent id (name@version)"
// @Success      200  {object}  dto.SuccessResponse
// @Failure      401  {object}  shared.APIError
// @Failure      403  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Security     APIKeyAuth
// @Router       /marketplace/agent/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	principal, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	agent, err := h.store.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("agent not found")
		}
		return shared.InternalError("failed to fetch agent")
	}

	if !principal.CanModify(agent.PublisherID) {
		return shared.Forbidden("only the publisher or an admin may delete this agent")
	}

	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		h.logger.Error("failed to delete agent", "error", err, "agent_id", id)
		return shared.InternalError("failed to delete agent")
	}

	// The record is already gone; a stale vector only degrades semantic
	// search, so log and move on.
	if err := h.store.DeleteEmbedding(c.Request().Context(), id); err != nil {
		h.logger.Warn("failed to remove embedding", "error", err, "agent_id", id)
	}

	h.logger.Info("agent deleted", "agent_id", id, "user_id", principal.UserID)
	return c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

func applyPatch(agent *Agent, patch map[string]any) {
	if v, ok := patch["description"].(string); ok {
		agent.Description = v
	}
	if v, ok := patch["author"].(string); ok {
		agent.Author = v
	}
	if v, ok := patch["category"].(string); ok {
		agent.Category = shared.AgentCategory(v)
	}
	if v, ok := patch["license"].(string); ok {
		agent.License = v
	}
	if v, ok := patch["status"].(string); ok {
		agent.Status = shared.AgentStatus(v)
	}
	if _, ok := patch["tags"]; ok {
		agent.Tags = sliceField(patch, "tags")
	}
	if _, ok := patch["capabilities"]; ok {
		agent.Capabilities = sliceField(patch, "capabilities")
	}
	if _, ok := patch["dependencies"]; ok {
		agent.Dependencies = sliceField(patch, "dependencies")
	}
	if _, ok := patch["tools"]; ok {
		agent.Tools = sliceField(patch, "tools")
	}
	if _, ok := patch["testCoverage"]; ok {
		agent.TestCoverage = numberField(patch, "testCoverage")
	}
	if _, ok := patch["performanceRating"]; ok {
		agent.PerformanceRating = numberField(patch, "performanceRating")
	}
}

func categoryOrDefault(category string) shared.AgentCategory {
	if category == "" {
		return shared.AgentCategoryGeneral
	}
	return shared.AgentCategory(category)
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func sliceField(m map[string]any, key string) shared.StringSlice {
	items, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make(shared.StringSlice, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func numberField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
