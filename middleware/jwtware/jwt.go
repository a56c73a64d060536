package jwtware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mirutina/auth"
)

var defaultTokenLookup = "header:" + fiber.HeaderAuthorization

// TokenValidator validates a raw token and returns its claims.
// auth.TokenService satisfies this interface.
type TokenValidator interface {
	Validate(tokenString string) (*auth.JWTClaims, error)
}

type Config struct {
	// Filter defines a function to skip the middleware
	Filter func(*fiber.Ctx) bool

	// SuccessHandler runs after the token has been validated
	SuccessHandler fiber.Handler

	// ErrorHandler receives extraction, validation and authorization
	// failures. The default hands the error back to the app's central
	// error handler.
	ErrorHandler fiber.ErrorHandler

	// TokenValidator is required for token validation
	TokenValidator TokenValidator

	// ContextKey is the Locals key the claims are stored under
	ContextKey string

	// TokenLookup is a comma separated list of "<source>:<name>"
	// entries, e.g. "header:Authorization,cookie:jwt,query:token"
	TokenLookup string

	// AuthScheme is the scheme expected in the Authorization header
	AuthScheme string

	// RequiredRole rejects validated tokens that lack the given role
	RequiredRole string
}

// New returns a fiber middleware that guards routes with bearer token
// authentication. A missing token and an invalid token are distinct
// failures so the transport layer can map them to different statuses.
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	extractors := GetExtractors(cfg.TokenLookup, cfg.AuthScheme)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw := ExtractRawToken(c, extractors)
		if raw == "" {
			return cfg.ErrorHandler(c, auth.ErrTokenMissing)
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if cfg.RequiredRole != "" && !claims.HasRole(cfg.RequiredRole) {
			return cfg.ErrorHandler(c, auth.ErrNotAdmin)
		}

		c.Locals(cfg.ContextKey, claims)

		ctx := auth.WithClaimsContext(c.UserContext(), claims)
		c.SetUserContext(ctx)

		return cfg.SuccessHandler(c)
	}
}

// ClaimsFromCtx returns the claims the middleware stored for this request.
func ClaimsFromCtx(c *fiber.Ctx, key string) (*auth.JWTClaims, bool) {
	if key == "" {
		key = "user"
	}
	claims, ok := c.Locals(key).(*auth.JWTClaims)
	return claims, ok
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			return err
		}
	}

	if cfg.TokenValidator == nil {
		panic("AUTH: JWT middleware configuration: TokenValidator is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

// ExtractRawToken runs the extractors in order and returns the first hit.
func ExtractRawToken(c *fiber.Ctx, extractors []JWTExtractor) string {
	for _, extractor := range extractors {
		if raw := extractor(c); raw != "" {
			return raw
		}
	}
	return ""
}

type JWTExtractor func(c *fiber.Ctx) string

// GetExtractors parses a token lookup expression into extractor funcs.
func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	// header:Authorization,cookie:jwt,query:auth_token,param:token
	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, jwtFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, jwtFromParam(parts[1]))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(parts[1]))
		}
	}

	return extractors
}

// jwtFromHeader returns a function that extracts token from the request header.
func jwtFromHeader(header string, authScheme string) JWTExtractor {
	scheme := strings.TrimSpace(authScheme)
	return func(c *fiber.Ctx) string {
		a := c.Get(header)
		l := len(scheme)
		if l == 0 {
			return strings.TrimSpace(a)
		}
		if len(a) > l+1 && strings.EqualFold(a[:l], scheme) {
			return strings.TrimSpace(a[l:])
		}
		return ""
	}
}

// jwtFromQuery returns a function that extracts token from the query string.
func jwtFromQuery(param string) JWTExtractor {
	return func(c *fiber.Ctx) string {
		return c.Query(param)
	}
}

// jwtFromParam returns a function that extracts token from the url param string.
func jwtFromParam(param string) JWTExtractor {
	return func(c *fiber.Ctx) string {
		return c.Params(param)
	}
}

// jwtFromCookie returns a function that extracts token from the named cookie.
func jwtFromCookie(name string) JWTExtractor {
	return func(c *fiber.Ctx) string {
		return c.Cookies(name)
	}
}
