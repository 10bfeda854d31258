package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/petcarehq/petcare/internal/config"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// TokenManager signs and decodes both token flavors with a single HS256
// secret. Decode checks signature and structure only; expiry and type
// matching stay with the caller so refresh tokens and grace handling
// don't need parser knobs.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     *jwt.Parser
}

func NewTokenManager(cfg *config.Config) *TokenManager {
	return &TokenManager{
		secret:     []byte(cfg.SecretKey),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

func (tm *TokenManager) IssueAccess(userID, email, role string) (string, error) {
	return tm.issue(userID, email, role, TokenTypeAccess, tm.accessTTL)
}

func (tm *TokenManager) IssueRefresh(userID, email, role string) (string, error) {
	return tm.issue(userID, email, role, TokenTypeRefresh, tm.refreshTTL)
}

// AccessExpirySeconds is what login/refresh responses report as expires_in.
func (tm *TokenManager) AccessExpirySeconds() int {
	return int(tm.accessTTL.Seconds())
}

func (tm *TokenManager) issue(userID, email, role, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Role:  role,
		Type:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Decode returns nil for any signature, encoding or structural failure.
func (tm *TokenManager) Decode(tokenStr string) *Claims {
	token, err := tm.parser.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil
	}

	return claims
}

// Expired reports whether the exp claim is in the past. A token without
// an exp claim counts as expired.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt == nil || c.ExpiresAt.Before(now)
}
