package bootstrap

import (
	"context"
	"log/slog"
	"os"

	"github.com/agenthub/registry/internal/analytics"
	"github.com/agenthub/registry/internal/apikey"
	"github.com/agenthub/registry/internal/auth"
	"github.com/agenthub/registry/internal/ratelimit"
	"github.com/agenthub/registry/internal/registry"
	"github.com/agenthub/registry/internal/user"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/fx"
)

type noopEmbeddingService struct{}

func (n *noopEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, 384), nil
}

func ProvideEmbeddingService() registry.EmbeddingService {
	return &noopEmbeddingService{}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideTokenService(cfg *Config) *auth.TokenService {
	return auth.NewTokenService(cfg.TokenKey)
}

func ProvideAuthMiddleware(keyStore *apikey.Store, userStore *user.Store, tokens *auth.TokenService) *auth.Middleware {
	return auth.NewMiddleware(keyStore, userStore, tokens)
}

// ProvideRateLimiter prefers the Redis backend so the window is shared
// across replicas; without Redis each process enforces its own window.
func ProvideRateLimiter(cfg *Config, redisClient *redis.Client) ratelimit.Limiter {
	if redisClient != nil {
		return ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit, cfg.RateWindow)
	}
	return ratelimit.NewMemoryLimiter(cfg.RateLimit, cfg.RateWindow)
}

func ProvideEventTracker(store *analytics.Store) registry.EventTracker {
	return store
}

func ProvideAuthHandler(tokens *auth.TokenService, logger *slog.Logger) *auth.Handler {
	return auth.NewHandler(tokens, logger.With("handler", "auth"))
}

func ProvideRegistryHandler(store *registry.Store, events registry.EventTracker, logger *slog.Logger) *registry.Handler {
	return registry.NewHandler(store, events, logger.With("handler", "registry"))
}

func ProvideSearchHandler(store *registry.Store, events registry.EventTracker, embeddings registry.EmbeddingService, logger *slog.Logger) *registry.SearchHandler {
	return registry.NewSearchHandler(store, events, embeddings, logger.With("handler", "search"))
}

func ProvideInstallHandler(store *registry.Store, events registry.EventTracker, logger *slog.Logger) *registry.InstallHandler {
	return registry.NewInstallHandler(store, events, logger.With("handler", "install"))
}

func ProvideReviewHandler(store *registry.Store, logger *slog.Logger) *registry.ReviewHandler {
	return registry.NewReviewHandler(store, logger.With("handler", "review"))
}

func ProvideAnalyticsHandler(store *analytics.Store, registryStore *registry.Store, logger *slog.Logger) *analytics.Handler {
	return analytics.NewHandler(store, registryStore, logger.With("handler", "analytics"))
}

type HandlerParams struct {
	fx.In

	AuthHandler      *auth.Handler
	RegistryHandler  *registry.Handler
	SearchHandler    *registry.SearchHandler
	InstallHandler   *registry.InstallHandler
	ReviewHandler    *registry.ReviewHandler
	AnalyticsHandler *analytics.Handler
	AuthMiddleware   *auth.Middleware
	Limiter          ratelimit.Limiter
	Logger           *slog.Logger
}

// RegisterRoutes wires the REST surface. Rate limiting wraps the whole
// /api/v1 group and runs before authentication, so rejected credentials
// still consume quota. Public marketplace reads attach an optional
// principal for personalization; mutating routes require one.
func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	api := e.Group("/api/v1", ratelimit.Middleware(params.Limiter, params.Logger))

	authGroup := api.Group("/auth")
	authGroup.Use(params.AuthMiddleware.Authenticate)
	params.AuthHandler.RegisterRoutes(authGroup)

	public := api.Group("/marketplace")
	public.Use(params.AuthMiddleware.OptionalAuthenticate)

	authed := api.Group("/marketplace")
	authed.Use(params.AuthMiddleware.Authenticate)

	params.RegistryHandler.RegisterRoutes(public, authed)
	params.SearchHandler.RegisterRoutes(public, authed)
	params.InstallHandler.RegisterRoutes(authed)
	params.ReviewHandler.RegisterRoutes(public, authed)
	params.AnalyticsHandler.RegisterRoutes(public, authed)

	e.GET("/swagger/*", echoSwagger.EchoWrapHandler())
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideTokenService,
		ProvideAuthMiddleware,
		ProvideRateLimiter,
		ProvideEmbeddingService,
		ProvideEventTracker,
		ProvideAuthHandler,
		ProvideRegistryHandler,
		ProvideSearchHandler,
		ProvideInstallHandler,
		ProvideReviewHandler,
		ProvideAnalyticsHandler,
	),
	fx.Invoke(RegisterRoutes),
)
