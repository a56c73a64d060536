package server

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/mirutina/auth/social"
)

func (s *Server) handleGoogleBegin(c *fiber.Ctx) error {
	if s.social == nil || !s.social.HasProvider("google") {
		return social.ErrNotConfigured
	}

	var opts []social.BeginAuthOption
	if redirect := c.Query("redirect_url"); redirect != "" {
		opts = append(opts, social.WithRedirectURL(redirect))
	}

	redirect, err := s.social.BeginAuth(c.UserContext(), "google", opts...)
	if err != nil {
		return err
	}

	return c.Redirect(redirect.URL, fiber.StatusFound)
}

func (s *Server) handleGoogleCallback(c *fiber.Ctx) error {
	if s.social == nil || !s.social.HasProvider("google") {
		return social.ErrNotConfigured
	}

	if denial := c.Query("error"); denial != "" {
		return errors.New("provider denied authorization", errors.CategoryAuth).
			WithTextCode(social.TextCodeTokenExchangeFail).
			WithCode(errors.CodeUnauthorized).
			WithMetadata(map[string]any{"error": denial})
	}

	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return social.ErrInvalidState
	}

	result, err := s.social.CompleteAuth(c.UserContext(), "google", code, state)
	if err != nil {
		return err
	}

	// native clients get the token handed back through their custom
	// scheme, browser clients get plain JSON
	if target := s.callbackRedirect(result); target != "" {
		return c.Redirect(target, fiber.StatusFound)
	}

	return success(c, fiber.Map{
		"token":       result.Token,
		"user":        identityPayload(result.User),
		"is_new_user": result.IsNewUser,
	})
}

func (s *Server) callbackRedirect(result *social.AuthResult) string {
	target := result.RedirectURL
	if target == "" {
		target = s.cfg.AppRedirectScheme
	}
	if target == "" {
		return ""
	}

	return target + "?token=" + url.QueryEscape(result.Token)
}

func (s *Server) handleOAuthStatus(c *fiber.Ctx) error {
	if s.social == nil || !s.social.HasProviders() {
		return success(c, fiber.Map{
			"configured": false,
			"providers":  []social.ProviderInfo{},
		})
	}

	return success(c, fiber.Map{
		"configured": true,
		"providers":  s.social.ListProviders(),
	})
}
