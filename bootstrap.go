package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// AdminSeed describes the administrator account provisioned at boot.
type AdminSeed struct {
	Email    string
	Password string
	Name     string
}

func (s AdminSeed) Validate() error {
	if s.Email == "" {
		return errors.New("admin seed requires an email", errors.CategoryBadInput).
			WithTextCode(TextCodeValidation)
	}
	if s.Password == "" {
		return errors.New("admin seed requires a password", errors.CategoryBadInput).
			WithTextCode(TextCodeValidation)
	}
	return nil
}

// EnsureAdmin makes sure the seeded administrator account exists.
// It is idempotent: when the account is already present it is left
// untouched, credentials included, so rotating ADMIN_PASSWORD in the
// environment never silently rewrites a live account.
func EnsureAdmin(ctx context.Context, repo Users, seed AdminSeed, logger Logger) (*User, error) {
	if logger == nil {
		logger = defLogger{}
	}

	if err := seed.Validate(); err != nil {
		return nil, err
	}

	email := NormalizeEmail(seed.Email)

	existing, err := repo.GetByEmail(ctx, email)
	if err == nil {
		logger.Info("admin account already provisioned: %s", email)
		return existing, nil
	}

	if !repository.IsRecordNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up admin account")
	}

	hash, err := HashPassword(seed.Password)
	if err != nil {
		return nil, err
	}

	name := seed.Name
	if name == "" {
		name = "Administrator"
	}

	admin := &User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         RoleAdmin,
		Provider:     ProviderPassword,
	}

	created, err := repo.Register(ctx, admin)
	if err != nil {
		// another instance may have seeded it first
		if errors.Is(err, ErrUserExists) {
			return repo.GetByEmail(ctx, email)
		}
		return nil, err
	}

	logger.Info("admin account created: %s", email)
	return created, nil
}
