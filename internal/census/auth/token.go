package auth

import (
	"time"

	"github.com/gartstein/census/internal/census/models"
	"github.com/golang-jwt/jwt/v5"
)

// RoleClaim carries the caller's role in a token.
const RoleClaim = "role"

// TokenTTL is the lifetime of issued tokens.
const TokenTTL = 24 * time.Hour

// GenerateToken signs an HS256 token for userID acting with role.
func GenerateToken(userID string, role models.Role, secret string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     userID,
		RoleClaim: string(role),
		"iat":     now.Unix(),
		"exp":     now.Add(TokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
