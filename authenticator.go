package auth

import (
	"context"
	"reflect"

	"github.com/goliatone/go-errors"
)

type Auther struct {
	provider     IdentityProvider
	logger       Logger
	tokenService TokenService
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, tokenService TokenService) *Auther {
	return &Auther{
		provider:     provider,
		logger:       defLogger{},
		tokenService: tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

func (s *Auther) Login(ctx context.Context, identifier, password string) (string, Identity, error) {
	var err error
	var identity Identity

	if identity, err = s.provider.VerifyIdentity(ctx, identifier, password); err != nil {
		s.logger.Error("Login verify identity error: %v", err)
		return "", nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", nil, ErrIdentityNotFound
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("Login token generation error: %v", err)
		return "", nil, err
	}

	return token, identity, nil
}

// AdminLogin behaves like Login but only succeeds for administrator
// accounts. Every failure mode collapses into the same credentials
// error so callers cannot probe which admin emails exist.
func (s *Auther) AdminLogin(ctx context.Context, identifier, password string) (string, Identity, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Warn("AdminLogin verify identity error: %v", err)
		if errors.Is(err, ErrTooManyLoginAttempts) || errors.Is(err, ErrUserInactive) {
			return "", nil, err
		}
		return "", nil, ErrInvalidAdminCredentials
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		return "", nil, ErrInvalidAdminCredentials
	}

	if identity.Role() != string(RoleAdmin) {
		s.logger.Warn("AdminLogin rejected non admin account: %s", identifier)
		return "", nil, ErrInvalidAdminCredentials
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("AdminLogin token generation error: %v", err)
		return "", nil, err
	}

	return token, identity, nil
}

func (s *Auther) VerifyToken(raw string) (*JWTClaims, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("VerifyToken validation failed: %v", err)
		return nil, err
	}

	return claims, nil
}
