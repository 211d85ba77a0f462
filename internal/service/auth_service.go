package service

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Common auth errors.
var (
	ErrAuthDisabled = errors.New("token verification is not configured")
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the subset of a Supabase access token the API relies on.
// Subject holds the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// UserID returns the authenticated user id.
func (c *Claims) UserID() string {
	return c.Subject
}

// AuthService verifies access tokens issued by the external auth provider.
// Tokens are never minted here.
type AuthService struct {
	secret []byte
}

// NewAuthService creates a new AuthService. An empty secret disables verification.
func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: []byte(secret)}
}

// Enabled reports whether tokens are verified.
func (s *AuthService) Enabled() bool {
	return len(s.secret) > 0
}

// ValidateToken parses and validates an HS256 access token, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
