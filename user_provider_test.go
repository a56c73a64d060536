package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/mirutina/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUserProviderVerifyIdentity(t *testing.T) {
	ctx := context.Background()
	mockTracker := new(MockUserTracker)

	provider := auth.NewUserProvider(mockTracker)

	t.Run("Successful verification", func(t *testing.T) {
		userID := uuid.New()
		passwordHash, _ := auth.HashPassword("password123")
		user := &auth.User{
			ID:           userID,
			Email:        "test@example.com",
			Name:         "Test User",
			PasswordHash: passwordHash,
			Provider:     auth.ProviderPassword,
			Role:         auth.RoleUser,
			IsActive:     true,
		}

		mockTracker.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()
		mockTracker.On("TrackSuccessfulLogin", ctx, user).Return(nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		assert.NoError(t, err)
		assert.NotNil(t, identity)
		assert.Equal(t, userID.String(), identity.ID())
		assert.Equal(t, "test@example.com", identity.Email())
		assert.Equal(t, auth.RoleUser, identity.Role())
		assert.Equal(t, auth.ProviderPassword, identity.Provider())

		mockTracker.AssertExpectations(t)
	})

	t.Run("Invalid password tracks the attempt", func(t *testing.T) {
		passwordHash, _ := auth.HashPassword("correct_password")
		user := &auth.User{
			ID:           uuid.New(),
			Email:        "test@example.com",
			PasswordHash: passwordHash,
			Role:         auth.RoleUser,
			IsActive:     true,
		}

		mockTracker.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()
		mockTracker.On("TrackAttemptedLogin", ctx, user).Return(nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "wrong_password")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)

		mockTracker.AssertExpectations(t)
	})

	t.Run("User not found", func(t *testing.T) {
		mockTracker.On("GetByEmail", ctx, "nonexistent@example.com").
			Return(nil, repository.NewRecordNotFound()).Once()

		identity, err := provider.VerifyIdentity(ctx, "nonexistent@example.com", "password123")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)

		mockTracker.AssertExpectations(t)
	})

	t.Run("Inactive account is blocked before password check", func(t *testing.T) {
		passwordHash, _ := auth.HashPassword("password123")
		user := &auth.User{
			ID:           uuid.New(),
			Email:        "test@example.com",
			PasswordHash: passwordHash,
			Role:         auth.RoleUser,
			IsActive:     false,
		}

		mockTracker.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, auth.ErrUserInactive)

		mockTracker.AssertExpectations(t)
	})

	t.Run("Too many login attempts", func(t *testing.T) {
		passwordHash, _ := auth.HashPassword("password123")
		now := time.Now()
		user := &auth.User{
			ID:             uuid.New(),
			Email:          "test@example.com",
			PasswordHash:   passwordHash,
			Role:           auth.RoleUser,
			IsActive:       true,
			LoginAttempts:  auth.MaxLoginAttempts + 1,
			LoginAttemptAt: &now,
		}

		mockTracker.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, auth.ErrTooManyLoginAttempts)

		mockTracker.AssertExpectations(t)
	})

	t.Run("Login attempts cooldown expired", func(t *testing.T) {
		userID := uuid.New()
		passwordHash, _ := auth.HashPassword("password123")
		oldAttempt := time.Now().Add(-48 * time.Hour)
		user := &auth.User{
			ID:             userID,
			Email:          "test@example.com",
			PasswordHash:   passwordHash,
			Role:           auth.RoleUser,
			IsActive:       true,
			LoginAttempts:  auth.MaxLoginAttempts + 1,
			LoginAttemptAt: &oldAttempt,
		}

		mockTracker.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()
		mockTracker.On("TrackSuccessfulLogin", ctx, mock.MatchedBy(func(u *auth.User) bool {
			return u.ID == userID && u.LoginAttempts == 0 // attempts reset
		})).Return(nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		assert.NoError(t, err)
		assert.NotNil(t, identity)

		mockTracker.AssertExpectations(t)
	})

	t.Run("Pure OAuth account has no usable password", func(t *testing.T) {
		user := &auth.User{
			ID:       uuid.New(),
			Email:    "social@example.com",
			Provider: auth.ProviderGoogle,
			Role:     auth.RoleUser,
			IsActive: true,
		}

		mockTracker.On("GetByEmail", ctx, "social@example.com").Return(user, nil).Once()
		mockTracker.On("TrackAttemptedLogin", ctx, user).Return(nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "social@example.com", "anything")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)

		mockTracker.AssertExpectations(t)
	})
}

func TestUserProviderVerifyIdentityWithStore(t *testing.T) {
	ctx := context.Background()
	repo := setupUsersRepo(t)
	provider := auth.NewUserProvider(repo)

	hash, err := auth.HashPassword("password123")
	assert.NoError(t, err)
	_, err = repo.Register(ctx, &auth.User{
		Email:        "stored@example.com",
		PasswordHash: hash,
	})
	assert.NoError(t, err)

	t.Run("registered user verifies", func(t *testing.T) {
		identity, err := provider.VerifyIdentity(ctx, "stored@example.com", "password123")
		assert.NoError(t, err)
		assert.Equal(t, "stored@example.com", identity.Email())
	})

	t.Run("unknown email maps to identity not found", func(t *testing.T) {
		identity, err := provider.VerifyIdentity(ctx, "ghost@example.com", "password123")
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})
}

func TestUserProviderFindIdentityByIdentifier(t *testing.T) {
	ctx := context.Background()
	mockTracker := new(MockUserTracker)
	provider := auth.NewUserProvider(mockTracker)

	t.Run("Found", func(t *testing.T) {
		user := &auth.User{
			ID:       uuid.New(),
			Email:    "test@example.com",
			Role:     auth.RoleAdmin,
			IsActive: true,
		}

		mockTracker.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()

		identity, err := provider.FindIdentityByIdentifier(ctx, "test@example.com")

		assert.NoError(t, err)
		assert.Equal(t, auth.RoleAdmin, identity.Role())

		mockTracker.AssertExpectations(t)
	})

	t.Run("Not found", func(t *testing.T) {
		mockTracker.On("GetByEmail", ctx, "missing@example.com").
			Return(nil, repository.NewRecordNotFound()).Once()

		identity, err := provider.FindIdentityByIdentifier(ctx, "missing@example.com")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)

		mockTracker.AssertExpectations(t)
	})
}
