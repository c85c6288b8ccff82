package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/restovia/resto-realtime/internal/core/domain"
	apperrors "github.com/restovia/resto-realtime/internal/core/errors"
)

// Claims defines the structured data we expect in the JWT. The token is
// issued by the external auth service; this package only verifies it.
type Claims struct {
	UserID   string      `json:"user_id"`
	Name     string      `json:"name,omitempty"`
	Role     domain.Role `json:"role"`
	BranchID string      `json:"branch_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager verifies (and, for tests and tooling, issues) HS256
// signed credentials. Verification is pure: no I/O, no shared state.
type TokenManager struct {
	secretKey []byte
	ttl       time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secretKey: []byte(secret), ttl: ttl}
}

// Issue creates a signed token carrying the identity's claims. The
// production issuer lives in the auth service; this mirrors its shape.
func (tm *TokenManager) Issue(identity domain.Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   identity.ID,
		Name:     identity.Name,
		Role:     identity.Role,
		BranchID: identity.BranchID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secretKey)
}

// Verify parses and validates the credential and derives the connection
// identity from it. The returned error is always one of the sentinel
// authentication errors, so callers can tell the client whether to
// re-authenticate or retry.
func (tm *TokenManager) Verify(tokenString string) (*domain.Identity, error) {
	if tokenString == "" {
		return nil, apperrors.ErrTokenMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secretKey, nil
	})

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperrors.ErrTokenExpired
	case err != nil:
		return nil, apperrors.ErrTokenInvalid
	case !token.Valid:
		return nil, apperrors.ErrTokenInvalid
	}

	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, apperrors.ErrClaimsIncomplete
	}

	return &domain.Identity{
		ID:       claims.UserID,
		Name:     claims.Name,
		Role:     claims.Role,
		BranchID: claims.BranchID,
	}, nil
}
