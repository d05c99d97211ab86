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

// ReviewHandler serves ratings and written reviews.
type ReviewHandler struct {
	store  *Store
	logger *slog.Logger
}

func NewReviewHandler(store *Store, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		store:  store,
		logger: logger,
	}
}

func (h *ReviewHandler) RegisterRoutes(public, authed *echo.Group) {
	public.GET("/reviews/:agentId", h.List)
	authed.POST("/rate", h.Rate)
	authed.POST("/review", h.Submit)
}

func reviewToResponse(r *Review) dto.ReviewResponse {
	return dto.ReviewResponse{
		ID:        r.ID,
		AgentID:   r.AgentID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Helpful:   r.Helpful,
		CreatedAt: r.CreatedAt.Format(timeFormat),
	}
}

// Rate godoc
// @Summary      Rate an agent
// @Description  Folds a bare 1-5 rating into the agent's running mean
// @Tags         marketplace
// @Accept       json
// @Produce      json
// @Param        request  body      dto.RateRequest  true  "Rating"
// @Success      200  {object}  dto.RateResponse
// @Failure      400  {object}  shared.APIError
// @Failure      401  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Security     APIKeyAuth
// @Router       /marketplace/rate [post]
func (h *ReviewHandler) Rate(c echo.Context) error {
	principal, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req dto.RateRequest
	if err := c.Bind(&req); err != nil || req.AgentID == "" {
		return shared.BadRequest(shared.CodeValidation, "agentId is required")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return shared.BadRequest(shared.CodeInvalidRating, "rating must be an integer between 1 and 5")
	}

	if _, err := h.store.GetByID(c.Request().Context(), req.AgentID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("agent not found")
		}
		return shared.InternalError("failed to rate agent")
	}

	agent, err := h.store.ApplyRating(c.Request().Context(), req.AgentID, req.Rating)
	if err != nil {
		h.logger.Error("rating failed", "error", err, "agent_id", req.AgentID, "user_id", principal.UserID)
		return shared.InternalError("failed to rate agent")
	}

	return c.JSON(http.StatusOK, dto.RateResponse{
		Success:     true,
		Rating:      agent.Rating,
		ReviewCount: agent.ReviewCount,
	})
}

// Submit godoc
// @Summary      Submit a review
// @Description  Stores a written review with a rating; one review per user per agent
// @Tags         marketplace
// @Accept       json
// @Produce      json
// @Param        request  body      dto.SubmitReviewRequest  true  "Review"
// @Success      201  {object}  dto.SubmitReviewResponse
// @Failure      400  {object}  shared.APIError
// @Failure      401  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Failure      409  {object}  shared.APIError
// @Security     APIKeyAuth
// @Router       /marketplace/review [post]
func (h *ReviewHandler) Submit(c echo.Context) error {
	principal, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var payload map[string]any
	if err := c.Bind(&payload); err != nil {
		return shared.BadRequest(shared.CodeValidation, "invalid request body")
	}
	if violations := validate.Record(payload, reviewSchema); len(violations) > 0 {
		return shared.ValidationFailed("review payload failed validation", violations)
	}

	agentID := stringField(payload, "agentId")
	rating := int(numberField(payload, "rating"))
	comment := stringField(payload, "comment")

	if _, err := h.store.GetByID(c.Request().Context(), agentID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("agent not found")
		}
		return shared.InternalError("failed to submit review")
	}

	if _, err := h.store.GetUserReview(c.Request().Context(), principal.UserID, agentID); err == nil {
		return shared.Conflict(shared.CodeReviewExists, "user has already reviewed this agent")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return shared.InternalError("failed to submit review")
	}

	review := &Review{
		AgentID: agentID,
		UserID:  principal.UserID,
		Rating:  rating,
		Comment: comment,
	}
	if _, err := h.store.CreateReview(c.Request().Context(), review); err != nil {
		h.logger.Error("review creation failed", "error", err, "agent_id", agentID, "user_id", principal.UserID)
		return shared.InternalError("failed to submit review")
	}

	h.logger.Info("review submitted", "agent_id", agentID, "user_id", principal.UserID, "rating", rating)

	return c.JSON(http.StatusCreated, dto.SubmitReviewResponse{
		Success: true,
		Review:  reviewToResponse(review),
	})
}

// List godoc
// @Summary      List reviews
// @Description  One page of an agent's reviews, newest first
// @Tags         marketplace
// @Produce      json
// @Param        agentId  path      string  true   "Agent id (name@version)"
// @Param        page     query     int     false  "Page number"  default(1)
// @Param        limit    query     int     false  "Page size"    default(20)
// @Success      200  {object}  dto.ReviewListResponse
// @Failure      404  {object}  shared.APIError
// @Router       /marketplace/reviews/{agentId} [get]
func (h *ReviewHandler) List(c echo.Context) error {
	agentID := c.Param("agentId")

	if _, err := h.store.GetByID(c.Request().Context(), agentID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("agent not found")
		}
		return shared.InternalError("failed to list reviews")
	}

	page := intParam(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := clampLimit(intParam(c, "limit", defaultPageLimit))

	reviews, total, err := h.store.GetReviews(c.Request().Context(), agentID, page, limit)
	if err != nil {
		h.logger.Error("review listing failed", "error", err, "agent_id", agentID)
		return shared.InternalError("failed to list reviews")
	}

	out := make([]dto.ReviewResponse, len(reviews))
	for i, r := range reviews {
		out[i] = reviewToResponse(r)
	}

	return c.JSON(http.StatusOK, dto.ReviewListResponse{
		Success:    true,
		Reviews:    out,
		Pagination: dto.NewPagination(total, page, limit),
	})
}
