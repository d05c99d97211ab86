package auth

import (
	"context"
	"strings"

	"github.com/agenthub/registry/internal/apikey"
	"github.com/agenthub/registry/internal/shared"
	"github.com/agenthub/registry/internal/user"
	"github.com/labstack/echo/v4"
)

type contextKey string

const principalKey contextKey = "principal"

// KeyValidator resolves a presented API-key secret to its record.
type KeyValidator interface {
	Validate(ctx context.Context, secret string) (*apikey.APIKey, error)
}

// UserGetter loads the user behind a key so the principal carries the
// current role, not the role at key-creation time.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type Middleware struct {
	keys   KeyValidator
	users  UserGetter
	tokens *TokenService
}

func NewMiddleware(keys KeyValidator, users UserGetter, tokens *TokenService) *Middleware {
	return &Middleware{
		keys:   keys,
		users:  users,
		tokens: tokens,
	}
}

// Credential extracts the raw credential from X-API-Key or a bearer
// Authorization header. Empty string means no credential was presented.
func Credential(c echo.Context) string {
	if key := c.Request().Header.Get("X-API-Key"); key != "" {
		return key
	}
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// Authenticate resolves the request credential to a principal. API-key
// secrets carry the "ak-" prefix; anything else is treated as a minted
// bearer token.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		credential := Credential(c)
		if credential == "" {
			return shared.Unauthorized("API key required")
		}

		principal, err := m.resolve(c, credential)
		if err != nil {
			if err == ErrExpiredToken {
				return shared.Unauthorized("credential has expired")
			}
			return shared.Unauthorized("invalid API key")
		}

		SetPrincipal(c, principal)
		return next(c)
	}
}

// OptionalAuthenticate attaches a principal when a valid credential is
// present but lets anonymous requests through. Public endpoints that
// personalize on identity use this.
func (m *Middleware) OptionalAuthenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		credential := Credential(c)
		if credential == "" {
			return next(c)
		}
		principal, err := m.resolve(c, credential)
		if err == nil {
			SetPrincipal(c, principal)
		}
		return next(c)
	}
}

func (m *Middleware) resolve(c echo.Context, credential string) (*Principal, error) {
	if !strings.HasPrefix(credential, "ak-") && m.tokens != nil {
		return m.tokens.Verify(credential)
	}

	ctx := c.Request().Context()
	key, err := m.keys.Validate(ctx, credential)
	if err != nil {
		return nil, err
	}

	role := shared.RoleUser
	if m.users != nil {
		if u, err := m.users.GetByID(ctx, key.UserID); err == nil {
			role = u.Role
		}
	}

	return &Principal{
		UserID:      key.UserID,
		Role:        role,
		Permissions: key.Permissions,
	}, nil
}

func SetPrincipal(c echo.Context, p *Principal) {
	ctx := context.WithValue(c.Request().Context(), principalKey, p)
	c.SetRequest(c.Request().WithContext(ctx))
}

func GetPrincipal(c echo.Context) *Principal {
	p, ok := c.Request().Context().Value(principalKey).(*Principal)
	if !ok {
		return nil
	}
	return p
}

func RequireAuth(c echo.Context) (*Principal, error) {
	p := GetPrincipal(c)
	if p == nil {
		return nil, shared.Unauthorized("authentication required")
	}
	return p, nil
}

func RequirePermission(c echo.Context, perm shared.Permission) (*Principal, error) {
	p, err := RequireAuth(c)
	if err != nil {
		return nil, err
	}
	if !p.HasPermission(perm) {
		return nil, shared.Forbidden(string(perm) + " permission required")
	}
	return p, nil
}

func RequireAdmin(c echo.Context) (*Principal, error) {
	p, err := RequireAuth(c)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		return nil, shared.Forbidden("admin role required")
	}
	return p, nil
}
