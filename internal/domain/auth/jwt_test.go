package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims(role Role) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "revengepos",
			Subject:   "0191e7b2-0000-7000-8000-000000000001",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Name: "Ana",
		Role: int16(role),
	}
}

func TestTokenValidator(t *testing.T) {
	secret := []byte("test-secret")
	v := NewTokenValidator(JWTConfig{Secret: string(secret), Issuer: "revengepos"})

	user, err := v.ValidateToken(sign(t, jwt.SigningMethodHS256, secret, validClaims(RoleCashier)))
	require.NoError(t, err)
	assert.Equal(t, "0191e7b2-0000-7000-8000-000000000001", user.UserID)
	assert.Equal(t, "cashier", user.Role)
	assert.Contains(t, user.Permissions, string(PermSaleCreate))
	assert.NotContains(t, user.Permissions, string(PermPurchaseCreate))

	expired := validClaims(RoleAdmin)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	_, err = v.ValidateToken(sign(t, jwt.SigningMethodHS256, secret, expired))
	assert.Error(t, err)

	_, err = v.ValidateToken(sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims(RoleAdmin)))
	assert.Error(t, err)

	wrongIssuer := validClaims(RoleAdmin)
	wrongIssuer.Issuer = "someone-else"
	_, err = v.ValidateToken(sign(t, jwt.SigningMethodHS256, secret, wrongIssuer))
	assert.Error(t, err)

	_, err = v.ValidateToken(sign(t, jwt.SigningMethodHS256, secret, validClaims(Role(7))))
	assert.Error(t, err)

	_, err = v.ValidateToken(sign(t, jwt.SigningMethodHS384, secret, validClaims(RoleAdmin)))
	assert.Error(t, err)
}
