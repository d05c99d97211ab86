package auth

import (
	"errors"
	"time"

	"github.com/agenthub/registry/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

var ErrExpiredToken = errors.New("token expired")

const tokenTTL = time.Hour

type Claims struct {
	jwt.RegisteredClaims
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// TokenService mints and verifies short-lived HS256 bearer tokens carrying
// the same principal as the API key they were exchanged for.
type TokenService struct {
	key []byte
}

func NewTokenService(key []byte) *TokenService {
	return &TokenService{key: key}
}

func (t *TokenService) Issue(p *Principal) (string, time.Time, error) {
	expiresAt := time.Now().Add(tokenTTL)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Role:        string(p.Role),
		Permissions: p.Permissions,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	return signed, expiresAt, err
}

func (t *TokenService) Verify(raw string) (*Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return &Principal{
		UserID:      claims.Subject,
		Role:        shared.Role(claims.Role),
		Permissions: claims.Permissions,
	}, nil
}
