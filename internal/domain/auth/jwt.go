package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	appctx "revengepos/internal/core/context"
)

// JWTConfig holds token validation settings.
type JWTConfig struct {
	Secret string
	Issuer string
}

// Claims are the token claims the service understands.
// The role claim is informational; permissions always come from the static table.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Name   string `json:"name,omitempty"`
	Role   int16  `json:"role"`
}

// TokenValidator validates HS256 access tokens issued by the identity provider.
type TokenValidator struct {
	config JWTConfig
}

// NewTokenValidator creates a validator.
func NewTokenValidator(config JWTConfig) *TokenValidator {
	return &TokenValidator{config: config}
}

// ValidateToken parses the token and returns the operator it identifies.
func (v *TokenValidator) ValidateToken(tokenString string) (*appctx.Operator, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return []byte(v.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	role := Role(claims.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("token carries unknown role %d", claims.Role)
	}

	return &appctx.Operator{
		UserID:      userID,
		Name:        claims.Name,
		Role:        role.String(),
		Permissions: role.PermissionStrings(),
	}, nil
}
