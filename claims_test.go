package auth_test

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mirutina/auth"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaims(t *testing.T) {
	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-id"},
		UID:              "uid-id",
		UserEmail:        "user@example.com",
		UserName:         "User",
		UserRole:         auth.RoleAdmin,
		UserProvider:     auth.ProviderGoogle,
	}

	t.Run("uid wins over the subject", func(t *testing.T) {
		assert.Equal(t, "uid-id", claims.UserID())
	})

	t.Run("falls back to the subject", func(t *testing.T) {
		c := &auth.JWTClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-id"}}
		assert.Equal(t, "subject-id", c.UserID())
	})

	t.Run("accessors", func(t *testing.T) {
		assert.Equal(t, "user@example.com", claims.Email())
		assert.Equal(t, "User", claims.Name())
		assert.Equal(t, auth.RoleAdmin, claims.Role())
		assert.Equal(t, auth.ProviderGoogle, claims.Provider())
	})

	t.Run("role checks", func(t *testing.T) {
		assert.True(t, claims.HasRole(auth.RoleAdmin))
		assert.False(t, claims.HasRole(auth.RoleUser))
		assert.True(t, claims.IsAdmin())

		regular := &auth.JWTClaims{UserRole: auth.RoleUser}
		assert.False(t, regular.IsAdmin())
	})
}
