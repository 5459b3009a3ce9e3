package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shiftgate/shiftgate/internal/shared"
)

// ErrInvalidToken indicates a missing, malformed, or expired token.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the identity, returning the token and its expiry.
func (m *TokenManager) Issue(id shared.Identity, now time.Time) (string, time.Time, error) {
	exp := now.Add(m.ttl)
	claims := jwt.MapClaims{
		"sub":  id.UserID,
		"role": string(id.Role),
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	if id.ManagerID != 0 {
		claims["mgr"] = id.ManagerID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses a signed token back into an identity.
func (m *TokenManager) Verify(raw string) (shared.Identity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return shared.Identity{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return shared.Identity{}, ErrInvalidToken
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return shared.Identity{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	id := shared.Identity{UserID: int64(sub), Role: shared.Role(role)}
	if mgr, ok := claims["mgr"].(float64); ok {
		id.ManagerID = int64(mgr)
	}
	return id, nil
}
