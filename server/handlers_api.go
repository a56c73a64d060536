package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mirutina/auth"
	"github.com/mirutina/auth/middleware/jwtware"
)

func (s *Server) handleCurrentUser(c *fiber.Ctx) error {
	claims, ok := jwtware.ClaimsFromCtx(c, "")
	if !ok {
		return auth.ErrTokenMissing
	}

	return success(c, fiber.Map{"user": claimsPayload(claims)})
}

func (s *Server) handleAppData(c *fiber.Ctx) error {
	claims, ok := jwtware.ClaimsFromCtx(c, "")
	if !ok {
		return auth.ErrTokenMissing
	}

	return success(c, fiber.Map{
		"message": "protected application data",
		"data": fiber.Map{
			"server_time": time.Now().UTC(),
		},
		"user": claimsPayload(claims),
	})
}

func (s *Server) handleAdminUsers(c *fiber.Ctx) error {
	ctx := c.UserContext()

	admins, err := s.repo.Users().ListByRole(ctx, auth.RoleAdmin)
	if err != nil {
		return err
	}

	stats, err := s.repo.Users().Stats(ctx)
	if err != nil {
		return err
	}

	return success(c, fiber.Map{
		"admins": auth.PublicUsers(admins),
		"stats":  stats,
	})
}

func (s *Server) handleAllUsers(c *fiber.Ctx) error {
	ctx := c.UserContext()

	regulars, err := s.repo.Users().ListByRole(ctx, auth.RoleUser)
	if err != nil {
		return err
	}

	stats, err := s.repo.Users().Stats(ctx)
	if err != nil {
		return err
	}

	return success(c, fiber.Map{
		"regular_users": auth.PublicUsers(regulars),
		"stats":         stats,
	})
}
