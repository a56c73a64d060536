package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is a regular account (i.e. use the app)
	RoleUser UserRole = "user"
	// RoleAdmin is the privileged account (i.e. list users, stats)
	RoleAdmin UserRole = "admin"
)

// Provider identifies how an account authenticates
type Provider = string

const (
	// ProviderPassword is a local email/password account
	ProviderPassword Provider = "password"
	// ProviderGoogle is an account provisioned by Google OAuth2.0
	ProviderGoogle Provider = "google"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Name           string     `bun:"name,notnull" json:"name,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	Provider       Provider   `bun:"provider,notnull" json:"provider,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"role,omitempty"`
	IsActive       bool       `bun:"is_active" json:"is_active"`
	Picture        string     `bun:"picture" json:"picture,omitempty"`
	GoogleID       string     `bun:"google_id,nullzero,unique" json:"-"`
	AccessToken    string     `bun:"access_token" json:"-"`
	RefreshToken   string     `bun:"refresh_token" json:"-"`
	LoginAttempts  int        `bun:"login_attempts" json:"-"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at,nullzero" json:"-"`
	LastLoginAt    *time.Time `bun:"last_login_at,nullzero" json:"last_login,omitempty"`
	LoginCount     int        `bun:"login_count" json:"login_count"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// PublicUser is the projection of a User that is safe to return to
// clients: no password hash, no provider tokens.
type PublicUser struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Provider    Provider   `json:"provider"`
	Role        UserRole   `json:"role"`
	IsActive    bool       `json:"is_active"`
	Picture     string     `json:"picture,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	LastLoginAt *time.Time `json:"last_login,omitempty"`
	LoginCount  int        `json:"login_count"`
}

// Public returns the client-safe projection of the user
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID.String(),
		Email:       u.Email,
		Name:        u.Name,
		Provider:    u.Provider,
		Role:        u.Role,
		IsActive:    u.IsActive,
		Picture:     u.Picture,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		LastLoginAt: u.LastLoginAt,
		LoginCount:  u.LoginCount,
	}
}

// IsAdmin reports whether the account carries the admin role. Role is
// the only thing consulted, never the email address.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeEmail lowercases and trims an email so lookups and the
// unique index agree on a single canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NameFromEmail derives a display name from the email local part
func NameFromEmail(email string) string {
	email = NormalizeEmail(email)
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

// PublicUsers maps a slice of records to their public projections
func PublicUsers(records []*User) []PublicUser {
	out := make([]PublicUser, 0, len(records))
	for _, u := range records {
		out = append(out, u.Public())
	}
	return out
}
