package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	// TokenTypeAccess marks short-lived tokens accepted on API requests.
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh marks long-lived tokens accepted only on the refresh endpoint.
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the JWT payload of issued tokens.
type Claims struct {
	UserID uint      `json:"user_id"`
	Type   TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates the HS256 bearer tokens of the API.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer creates a token issuer from the security configuration.
func NewTokenIssuer(cfg *config.Config) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(cfg.Security.JWTSecret),
		accessTTL:  cfg.Security.AccessTokenTTL,
		refreshTTL: cfg.Security.RefreshTokenTTL,
	}
}

// IssueAccess signs a new access token for the given user.
func (i *TokenIssuer) IssueAccess(userID uint) (string, error) {
	return i.issue(userID, TokenTypeAccess, i.accessTTL)
}

// IssueRefresh signs a new refresh token for the given user.
func (i *TokenIssuer) IssueRefresh(userID uint) (string, error) {
	return i.issue(userID, TokenTypeRefresh, i.refreshTTL)
}

func (i *TokenIssuer) issue(userID uint, typ TokenType, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID: userID,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Parse validates a signed token and checks it carries the wanted type.
func (i *TokenIssuer) Parse(raw string, want TokenType) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %s", ErrInvalidToken, t.Method.Alg())
		}

		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Type != want {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
