package server

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/mirutina/auth/social"
)

// envelope is the response shape every endpoint speaks: successes are
// {success:true, ...}, failures {success:false, error, code}.
func success(c *fiber.Ctx, payload fiber.Map) error {
	body := fiber.Map{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return c.JSON(body)
}

func respondError(c *fiber.Ctx, logger interface {
	Error(format string, args ...any)
}, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		if fe, ok := err.(*fiber.Error); ok {
			return c.Status(fe.Code).JSON(fiber.Map{
				"success": false,
				"error":   fe.Message,
			})
		}
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := statusFromError(richErr)

	message := richErr.Message
	if status >= http.StatusInternalServerError {
		// never leak storage or provider internals
		if logger != nil {
			logger.Error("internal error: %v details: %s", err, print.MaybePrettyJSON(richErr.Metadata))
		}
		message = "internal server error"
	}

	body := fiber.Map{
		"success": false,
		"error":   message,
	}
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}

	return c.Status(status).JSON(body)
}

func statusFromError(richErr *errors.Error) int {
	switch richErr.TextCode {
	case social.TextCodeNotConfigured:
		return http.StatusServiceUnavailable
	}

	switch richErr.Category {
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	}

	if richErr.Code > 0 {
		return richErr.Code
	}

	switch richErr.Category {
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
