package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Domain errors for token verification.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrAuthDisabled = errors.New("token verification is disabled")
)

// Claims are the JWT claims accepted on the publication surface. Tokens are
// issued by the operator's identity provider; the supervisor only verifies them.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// AuthService verifies HMAC-signed bearer tokens.
type AuthService struct {
	signingKey []byte
}

// NewAuthService returns a verifier for secret. An empty secret disables verification.
func NewAuthService(secret string) *AuthService {
	return &AuthService{signingKey: []byte(strings.TrimSpace(secret))}
}

// Enabled reports whether a signing secret is configured.
func (s *AuthService) Enabled() bool {
	return len(s.signingKey) > 0
}

// ParseToken validates accessToken and returns its subject.
func (s *AuthService) ParseToken(accessToken string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
