package jwtutil

import (
	"time"

	"fooddupe/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

var (
	secret          = []byte("defaultsecretkey")
	expirationHours = 24
)

// Initialize configures the signing key and token lifetime
func Initialize(cfg *config.JWTConfig) {
	secret = []byte(cfg.SigningKey)
	if cfg.ExpirationHours > 0 {
		expirationHours = cfg.ExpirationHours
	}
}

// UserClaims represents the JWT claims for dashboard and admin users
type UserClaims struct {
	Email           string `json:"email"`
	UserID          uint   `json:"user_id"`
	TenantID        *uint  `json:"tenant_id,omitempty"`
	TenantSubdomain string `json:"tenant_subdomain,omitempty"`
	Role            string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken creates a JWT token with user and tenant information
func GenerateToken(email string, userID uint, tenantID *uint, tenantSubdomain, role string) (string, error) {
	claims := UserClaims{
		Email:           email,
		UserID:          userID,
		TenantID:        tenantID,
		TenantSubdomain: tenantSubdomain,
		Role:            role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
