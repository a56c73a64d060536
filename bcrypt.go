package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when no explicit cost is
// configured. Tunable at deploy time, never below MinBcryptCost.
var DefaultBcryptCost = 12

// MinBcryptCost is the floor we enforce regardless of configuration
const MinBcryptCost = 10

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, DefaultBcryptCost)
}

// HashPasswordWithCost will generate a password hash with an explicit
// bcrypt cost factor
func HashPasswordWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	if cost < MinBcryptCost {
		cost = MinBcryptCost
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password
// matches the hashed password. An empty stored hash (pure OAuth
// account) is always a mismatch, never an error.
func ComparePasswordAndHash(password, hash string) error {
	if hash == "" {
		return ErrMismatchedHashAndPassword
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}
