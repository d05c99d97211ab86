package auth

import (
	"log/slog"
	"net/http"

	"github.com/agenthub/registry/internal/dto"
	"github.com/agenthub/registry/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	tokens *TokenService
	logger *slog.Logger
}

func NewHandler(tokens *TokenService, logger *slog.Logger) *Handler {
	return &Handler{
		tokens: tokens,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/token", h.Exchange)
}

// Exchange godoc
// @Summary      Exchange an API key for a bearer token
// @Description  Mints a short-lived JWT carrying the same principal as the presented API key
// @Tags         auth
// @Produce      json
// @Success      200  {object}  dto.TokenResponse
// @Failure      401  {object}  shared.APIError
// @Security     APIKeyAuth
// @Router       /auth/token [post]
func (h *Handler) Exchange(c echo.Context) error {
	principal, err := RequireAuth(c)
	if err != nil {
		return err
	}

	token, expiresAt, err := h.tokens.Issue(principal)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err, "user_id", principal.UserID)
		return shared.InternalError("failed to issue token")
	}

	return c.JSON(http.StatusOK, dto.TokenResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}
