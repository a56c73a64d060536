package server

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/mirutina/auth"
)

// RegisterPayload is the registration request body
type RegisterPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Name     string `json:"name" form:"name"`
}

// Validate will validate the payload
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(4, 100)),
		validation.Field(&r.Name, validation.Length(0, 200)),
	)
}

// LoginPayload is the login request body
type LoginPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Validate will validate the payload
func (l LoginPayload) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Email, validation.Required, is.Email),
		validation.Field(&l.Password, validation.Required),
	)
}

// VerifyPayload carries the raw token to inspect
type VerifyPayload struct {
	Token string `json:"token" form:"token"`
}

// Validate will validate the payload
func (v VerifyPayload) Validate() error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.Token, validation.Required),
	)
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var payload RegisterPayload
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(err)
	}

	if err := payload.Validate(); err != nil {
		return invalidPayload(err)
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		return err
	}

	user, err := s.repo.Users().Register(c.UserContext(), &auth.User{
		Email:        payload.Email,
		Name:         payload.Name,
		PasswordHash: hash,
	})
	if err != nil {
		return err
	}

	return success(c, fiber.Map{"user": user.Public()})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var payload LoginPayload
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(err)
	}

	if err := payload.Validate(); err != nil {
		return invalidPayload(err)
	}

	token, identity, err := s.auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return success(c, fiber.Map{
		"token": token,
		"user":  identityPayload(identity),
	})
}

func (s *Server) handleVerify(c *fiber.Ctx) error {
	var payload VerifyPayload
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(err)
	}

	if err := payload.Validate(); err != nil {
		return invalidPayload(err)
	}

	claims, err := s.auther.VerifyToken(payload.Token)
	if err != nil {
		// this endpoint reports token problems as 401, the bearer
		// guard keeps 403 for tokens presented against protected routes
		return verifyError(err)
	}

	return success(c, fiber.Map{"user": claimsPayload(claims)})
}

func (s *Server) handleAdminLogin(c *fiber.Ctx) error {
	var payload LoginPayload
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(err)
	}

	if err := payload.Validate(); err != nil {
		return invalidPayload(err)
	}

	token, identity, err := s.auther.AdminLogin(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return success(c, fiber.Map{
		"token": token,
		"user":  identityPayload(identity),
	})
}

// handleLogout is a stateless acknowledgment: tokens expire on their
// own, there is no server side revocation list.
func (s *Server) handleLogout(c *fiber.Ctx) error {
	return success(c, fiber.Map{"message": "logged out"})
}

func identityPayload(identity auth.Identity) fiber.Map {
	return fiber.Map{
		"userId":   identity.ID(),
		"email":    identity.Email(),
		"name":     identity.Name(),
		"role":     identity.Role(),
		"provider": identity.Provider(),
	}
}

func claimsPayload(claims *auth.JWTClaims) fiber.Map {
	return fiber.Map{
		"userId":   claims.UserID(),
		"email":    claims.Email(),
		"name":     claims.Name(),
		"role":     claims.Role(),
		"provider": claims.Provider(),
	}
}

func invalidPayload(err error) error {
	return errors.Wrap(err, errors.CategoryValidation, "invalid request payload").
		WithTextCode(auth.TextCodeValidation).
		WithCode(errors.CodeBadRequest)
}

func verifyError(err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return err
	}

	clone := richErr.Clone()
	if clone == nil {
		return err
	}

	return clone.WithCode(errors.CodeUnauthorized)
}
