package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims carries the identity facts we embed in every bearer token:
// user id, email, display name, role and auth provider.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID          string `json:"uid,omitempty"`
	UserEmail    string `json:"email,omitempty"`
	UserName     string `json:"name,omitempty"`
	UserRole     string `json:"role,omitempty"`
	UserProvider string `json:"provider,omitempty"`
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Email returns the account email claim
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Name returns the display name claim
func (c *JWTClaims) Name() string {
	return c.UserName
}

// Role returns the global role
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// Provider returns the auth provider claim
func (c *JWTClaims) Provider() string {
	return c.UserProvider
}

// HasRole checks if the claims carry a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAdmin checks the role claim, and only the role claim
func (c *JWTClaims) IsAdmin() bool {
	return c.UserRole == RoleAdmin
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
