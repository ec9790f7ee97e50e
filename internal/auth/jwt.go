package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Actor is the authenticated identity attached to every gated operation.
type Actor struct {
	UserID   int64  `json:"user_id"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id"`
}

// TokenPair carries a freshly minted access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Claims are the JWT claims carried by every token.
type Claims struct {
	UserID   int64  `json:"uid"`
	Role     string `json:"role"`
	TenantID string `json:"tenant"`
	jwt.RegisteredClaims
}

// Actor converts token claims to an Actor.
func (c *Claims) Actor() Actor {
	return Actor{UserID: c.UserID, Role: c.Role, TenantID: c.TenantID}
}

// MintTokens signs an access and refresh token for the given identity.
func MintTokens(actor Actor, secret string, accessTTL, refreshTTL time.Duration) (TokenPair, error) {
	now := time.Now()
	mint := func(ttl time.Duration) (string, error) {
		t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			UserID:   actor.UserID,
			Role:     actor.Role,
			TenantID: actor.TenantID,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
		})
		return t.SignedString([]byte(secret))
	}

	at, err := mint(accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	rt, err := mint(refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: at, RefreshToken: rt}, nil
}

// ParseClaims validates a token and returns its claims.
func ParseClaims(tokenStr, secret string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
