package server

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	recoverware "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mirutina/auth"
	"github.com/mirutina/auth/config"
	"github.com/mirutina/auth/middleware/jwtware"
	"github.com/mirutina/auth/social"
)

// Options carries the wired dependencies for the HTTP surface.
type Options struct {
	Config *config.Config
	Logger auth.Logger
	Repo   auth.RepositoryManager
	Auther *auth.Auther
	// Social is nil when the deployment has no provider credentials;
	// the OAuth endpoints then answer with a "not configured" error.
	Social *social.SocialAuthenticator
}

type Server struct {
	app    *fiber.App
	cfg    *config.Config
	logger auth.Logger
	repo   auth.RepositoryManager
	auther *auth.Auther
	social *social.SocialAuthenticator
}

func New(opts Options) *Server {
	s := &Server{
		cfg:    opts.Config,
		logger: opts.Logger,
		repo:   opts.Repo,
		auther: opts.Auther,
		social: opts.Social,
	}

	if s.logger == nil {
		s.logger = auth.DefaultLogger()
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "rutina-auth",
		ReadTimeout:  opts.Config.AppReadTimeout,
		WriteTimeout: opts.Config.AppWriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return respondError(c, s.logger, err)
		},
	})

	s.registerMiddleware()
	s.registerRoutes()

	return s
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) registerMiddleware() {
	s.app.Use(recoverware.New())
	s.app.Use(helmet.New())
	s.app.Use(logger.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	if s.cfg.RateLimitMax > 0 {
		s.app.Use("/auth", limiter.New(limiter.Config{
			Max:        s.cfg.RateLimitMax,
			Expiration: s.cfg.RateLimitWindow,
		}))
	}
}

func (s *Server) registerRoutes() {
	bearer := jwtware.New(jwtware.Config{
		TokenValidator: s.auther.TokenService(),
	})
	admin := jwtware.New(jwtware.Config{
		TokenValidator: s.auther.TokenService(),
		RequiredRole:   string(auth.RoleAdmin),
	})

	s.app.Get("/", s.handleRoot)
	s.app.Get("/health", s.handleHealth)

	ag := s.app.Group("/auth")
	ag.Post("/register", s.handleRegister)
	ag.Post("/login", s.handleLogin)
	ag.Post("/verify", s.handleVerify)
	ag.Post("/admin-login", s.handleAdminLogin)
	ag.Post("/logout", admin, s.handleLogout)

	// the OAuth flow is reachable under both prefixes, native clients
	// were shipped against /auth/google before /oauth existed
	for _, g := range []fiber.Router{ag, s.app.Group("/oauth")} {
		g.Get("/google", s.handleGoogleBegin)
		g.Get("/google/callback", s.handleGoogleCallback)
	}
	s.app.Get("/oauth/status", s.handleOAuthStatus)

	api := s.app.Group("/api")
	api.Get("/user", bearer, s.handleCurrentUser)
	api.Get("/app-data", bearer, s.handleAppData)
	api.Get("/users", admin, s.handleAdminUsers)
	api.Get("/all-users", admin, s.handleAllUsers)
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return success(c, fiber.Map{
		"name":    "rutina-auth",
		"status":  "running",
		"version": "1.0.0",
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return success(c, fiber.Map{"status": "ok"})
}

// Listen blocks serving HTTP until Shutdown is called.
func (s *Server) Listen() error {
	return s.app.Listen(fmt.Sprintf(":%d", s.cfg.Port))
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
