package ratelimit

import (
	"log/slog"
	"net"
	"strconv"

	"github.com/agenthub/registry/internal/shared"
	"github.com/labstack/echo/v4"
)

// Middleware enforces the limiter per client address. It runs before
// authentication, so rejected credentials still consume quota. Limiter
// errors fail open: a broken backend must not block traffic.
func Middleware(limiter Limiter, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil {
				return next(c)
			}

			result, err := limiter.Allow(c.Request().Context(), ClientKey(c))
			if err != nil {
				logger.Warn("rate limiter unavailable, failing open", "error", err)
				return next(c)
			}

			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

			if !result.Allowed {
				retryAfter := result.RetryAfterSeconds()
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return shared.TooManyRequests("rate limit exceeded, retry later", retryAfter)
			}

			return next(c)
		}
	}
}

// ClientKey identifies the caller by remote address. X-Forwarded-For is
// not trusted: any client can set it, and the server may not sit behind
// a proxy that sanitizes the header.
func ClientKey(c echo.Context) string {
	addr := c.Request().RemoteAddr
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
