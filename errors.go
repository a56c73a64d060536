package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeUserNotFound      = "USER_NOT_FOUND"
	TextCodeInvalidPassword   = "INVALID_PASSWORD"
	TextCodeUserExists        = "USER_EXISTS"
	TextCodeUserInactive      = "USER_INACTIVE"
	TextCodeUnauthorized      = "UNAUTHORIZED"
	TextCodeInvalidToken      = "INVALID_TOKEN"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeNotAdmin          = "NOT_ADMIN"
	TextCodeInvalidAdminCreds = "INVALID_ADMIN_CREDENTIALS"
	TextCodeTooManyAttempts   = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeValidation        = "VALIDATION_ERROR"
)

// ErrIdentityNotFound is returned when no account matches the
// identifier. The public message matches ErrMismatchedHashAndPassword
// so responses do not become a user-enumeration oracle; clients get
// the distinction through the text code only.
var ErrIdentityNotFound = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned when the password does not
// match the stored hash, including accounts that have no hash at all
// (pure OAuth accounts).
var ErrMismatchedHashAndPassword = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidPassword).
	WithCode(errors.CodeUnauthorized)

// ErrUserExists is returned when registration hits the unique email index
var ErrUserExists = errors.New("user is already registered", errors.CategoryConflict).
	WithTextCode(TextCodeUserExists).
	WithCode(errors.CodeConflict)

// ErrUserInactive is returned for deactivated accounts on any login path
var ErrUserInactive = errors.New("account is deactivated", errors.CategoryAuth).
	WithTextCode(TextCodeUserInactive).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMissing is the caller-side precondition failure: no bearer
// token was presented at all.
var ErrTokenMissing = errors.New("authorization token required", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers bad signatures, wrong algorithms and
// undecodable tokens.
var ErrTokenMalformed = errors.New("invalid or expired token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeForbidden)

// ErrTokenExpired is returned for tokens past their expiry claim
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeForbidden)

// ErrNotAdmin is returned when a valid token lacks the admin role
var ErrNotAdmin = errors.New("admin role required", errors.CategoryAuthz).
	WithTextCode(TextCodeNotAdmin).
	WithCode(errors.CodeForbidden)

// ErrInvalidAdminCredentials collapses every admin-login failure into a
// single response so the endpoint leaks nothing about the admin account.
var ErrInvalidAdminCredentials = errors.New("invalid administrator credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidAdminCreds).
	WithCode(errors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned once an account exceeds the
// failed-attempt budget inside the cool down window.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrNoEmptyString rejects empty plaintext passwords before hashing
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// isUniqueViolation reports whether a storage error came from a unique
// index. Both sqlite and postgres spell it out in the message; bun does
// not give us a portable typed error for it.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
