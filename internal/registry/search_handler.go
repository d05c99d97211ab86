package registry

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/agenthub/registry/internal/auth"
	"github.com/agenthub/registry/internal/dto"
	"github.com/agenthub/registry/internal/shared"
	"github.com/labstack/echo/v4"
)

const (
	defaultPageLimit   = 20
	maxPageLimit       = 100
	defaultTrendingTop = 10
)

// categoryDescriptions backs the category listing; anything outside the
// table falls through to a generic line.
var categoryDescriptions = map[string]string{
	"general":       "General purpose agents",
	"development":   "Code generation and refactoring agents",
	"testing":       "Test authoring and quality assurance agents",
	"devops":        "Deployment, infrastructure and CI/CD agents",
	"security":      "Vulnerability scanning and hardening agents",
	"data":          "Data processing and analysis agents",
	"documentation": "Documentation writing and maintenance agents",
	"automation":    "Workflow and task automation agents",
	"research":      "Information gathering and synthesis agents",
}

// SearchHandler serves the discovery surface: keyword and semantic
// search, trending, recommendations and categories.
type SearchHandler struct {
	store      *Store
	events     EventTracker
	embeddings EmbeddingService
	logger     *slog.Logger
}

func NewSearchHandler(store *Store, events EventTracker, embeddings EmbeddingService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		store:      store,
		events:     events,
		embeddings: embeddings,
		logger:     logger,
	}
}

func (h *SearchHandler) RegisterRoutes(public, authed *echo.Group) {
	public.GET("/search", h.Search)
	public.GET("/search/semantic", h.Semantic)
	public.GET("/trending", h.Trending)
	public.GET("/categories", h.Categories)
	authed.GET("/recommended", h.Recommended)
}

// Search godoc
// @Summary      Search agents
// @Description  Keyword search with category/tag filters, sorting and pagination
// @Tags         marketplace
// @Produce      json
// @Param        q         query     string  false  "Substring matched against name, description and author"
// @Param        category  query     string  false  "Exact category filter"
// @Param        tags      query     string  false  "Comma-separated tags, any-of match"
// @Param        sort      query     string  false  "Sort field"  default(downloads)
// @Param        order     query     string  false  "asc or desc"  default(desc)
// @Param        page      query     int     false  "Page number"  default(1)
// @Param        limit     query     int     false  "Page size, capped at 100"  default(20)
// @Success      200  {object}  dto.SearchResponse
// @Router       /marketplace/search [get]
func (h *SearchHandler) Search(c echo.Context) error {
	params := SearchParams{
		Query:    c.QueryParam("q"),
		Category: c.QueryParam("category"),
		Tags:     splitTags(c.QueryParam("tags")),
		Sort:     c.QueryParam("sort"),
		Order:    c.QueryParam("order"),
		Page:     intParam(c, "page", 1),
		Limit:    clampLimit(intParam(c, "limit", defaultPageLimit)),
	}
	if params.Page < 1 {
		params.Page = 1
	}

	agents, total, err := h.store.Search(c.Request().Context(), params)
	if err != nil {
		h.logger.Error("search failed", "error", err, "query", params.Query)
		return shared.InternalError("search failed")
	}

	userID := ""
	if p := auth.GetPrincipal(c); p != nil {
		userID = p.UserID
	}
	h.events.Track(c.Request().Context(), shared.EventSearchPerformed, "", userID, map[string]any{
		"query":    params.Query,
		"category": params.Category,
		"results":  total,
	})

	return c.JSON(http.StatusOK, dto.SearchResponse{
		Success:    true,
		Agents:     agentsToResponse(agents),
		Pagination: dto.NewPagination(total, params.Page, params.Limit),
	})
}

// Semantic godoc
// @Summary      Semantic agent search
// @Description  Vector similarity search over agent descriptions
// @Tags         marketplace
// @Produce      json
// @Param        q      query     string  true   "Natural language query"
// @Param        limit  query     int     false  "Result count"  default(10)
// @Success      200  {object}  dto.RecommendedResponse
// @Failure      400  {object}  shared.APIError
// @Router       /marketplace/search/semantic [get]
func (h *SearchHandler) Semantic(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return shared.BadRequest(shared.CodeValidation, "q is required")
	}
	if h.embeddings == nil {
		return shared.BadRequest(shared.CodeValidation, "semantic search is not enabled")
	}

	limit := clampLimit(intParam(c, "limit", defaultTrendingTop))

	embedding, err := h.embeddings.Generate(c.Request().Context(), query)
	if err != nil {
		h.logger.Error("embedding generation failed", "error", err)
		return shared.InternalError("semantic search failed")
	}

	agents, err := h.store.SearchByEmbedding(c.Request().Context(), embedding, limit)
	if err != nil {
		h.logger.Error("semantic search failed", "error", err)
		return shared.InternalError("semantic search failed")
	}

	return c.JSON(http.StatusOK, dto.RecommendedResponse{
		Success: true,
		Agents:  agentsToResponse(agents),
	})
}

var trendingTimeframes = map[string]bool{"1d": true, "7d": true, "30d": true}

// Trending godoc
// @Summary      Trending agents
// @Description  Agents ranked by weighted downloads, views and rating
// @Tags         marketplace
// @Produce      json
// @Param        timeframe  query     string  false  "1d, 7d or 30d"  default(7d)
// @Param        limit      query     int     false  "Result count"   default(10)
// @Success      200  {object}  dto.TrendingResponse
// @Router       /marketplace/trending [get]
func (h *SearchHandler) Trending(c echo.Context) error {
	timeframe := c.QueryParam("timeframe")
	if !trendingTimeframes[timeframe] {
		timeframe = "7d"
	}
	limit := clampLimit(intParam(c, "limit", defaultTrendingTop))

	agents, err := h.store.Trending(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("trending query failed", "error", err)
		return shared.InternalError("failed to compute trending agents")
	}

	return c.JSON(http.StatusOK, dto.TrendingResponse{
		Success:   true,
		Timeframe: timeframe,
		Agents:    agentsToResponse(agents),
	})
}

// Recommended godoc
// @Summary      Recommended agents
// @Description  Top rated agents in the categories the caller has installed from, or top rated overall
// @Tags         marketplace
// @Produce      json
// @Param        limit  query     int  false  "Result count"  default(10)
// @Success      200  {object}  dto.RecommendedResponse
// @Failure      401  {object}  shared.APIError
// @Security     APIKeyAuth
// @Router       /marketplace/recommended [get]
func (h *SearchHandler) Recommended(c echo.Context) error {
	principal, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}
	limit := clampLimit(intParam(c, "limit", defaultTrendingTop))

	categories, err := h.store.InstalledCategories(c.Request().Context(), principal.UserID)
	if err != nil {
		h.logger.Error("failed to load installed categories", "error", err, "user_id", principal.UserID)
		return shared.InternalError("failed to compute recommendations")
	}

	var agents []*Agent
	if len(categories) > 0 {
		agents, err = h.store.TopRatedInCategories(c.Request().Context(), categories, limit)
	} else {
		agents, err = h.store.TopRated(c.Request().Context(), limit)
	}
	if err != nil {
		h.logger.Error("recommendation query failed", "error", err, "user_id", principal.UserID)
		return shared.InternalError("failed to compute recommendations")
	}

	return c.JSON(http.StatusOK, dto.RecommendedResponse{
		Success: true,
		Agents:  agentsToResponse(agents),
	})
}

// Categories godoc
// @Summary      List categories
// @Description  All categories with agent counts and descriptions
// @Tags         marketplace
// @Produce      json
// @Success      200  {object}  dto.CategoriesResponse
// @Router       /marketplace/categories [get]
func (h *SearchHandler) Categories(c echo.Context) error {
	counts, err := h.store.CategoryCounts(c.Request().Context())
	if err != nil {
		h.logger.Error("category counts failed", "error", err)
		return shared.InternalError("failed to list categories")
	}

	names := shared.AgentCategories()
	categories := make([]dto.CategoryInfo, 0, len(names))
	for _, name := range names {
		description, ok := categoryDescriptions[name]
		if !ok {
			description = "Agents in the " + name + " category"
		}
		categories = append(categories, dto.CategoryInfo{
			Name:        name,
			Count:       counts[name],
			Description: description,
		})
	}

	return c.JSON(http.StatusOK, dto.CategoriesResponse{
		Success:    true,
		Categories: categories,
	})
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func intParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func clampLimit(limit int) int {
	if limit < 1 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}
