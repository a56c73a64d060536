package config

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the service.
type Config struct {
	AppEnv          string        `envconfig:"APP_ENV" default:"development"`
	Port            int           `envconfig:"PORT" default:"8080"`
	AppReadTimeout  time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`

	DatabaseDSN string `envconfig:"DATABASE_DSN" default:"file:rutina.db?cache=shared&mode=rwc"`

	JWTSecret     string `envconfig:"JWT_SECRET" required:"true"`
	TokenTTLHours int    `envconfig:"TOKEN_TTL_HOURS" default:"24"`
	TokenIssuer   string `envconfig:"TOKEN_ISSUER" default:"rutina"`
	BcryptCost    int    `envconfig:"BCRYPT_COST" default:"12"`

	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:"admin@rutina.app"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" required:"true"`
	AdminName     string `envconfig:"ADMIN_NAME" default:"Administrator"`

	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `envconfig:"GOOGLE_CALLBACK_URL"`

	OAuthStateSecret  string        `envconfig:"OAUTH_STATE_SECRET"`
	OAuthStateTTL     time.Duration `envconfig:"OAUTH_STATE_TTL" default:"10m"`
	AppRedirectScheme string        `envconfig:"APP_REDIRECT_SCHEME" default:"rutina://auth"`

	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`

	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"60"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate fails closed: a deployment with a missing or weak secret
// does not come up at all.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided", errors.CategoryBadInput)
	}

	if c.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD must be provided", errors.CategoryBadInput)
	}

	if c.TokenTTLHours <= 0 {
		return errors.New("TOKEN_TTL_HOURS must be positive", errors.CategoryBadInput)
	}

	if c.googlePartial() {
		return errors.New("GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_CALLBACK_URL must be set together", errors.CategoryBadInput)
	}

	if c.GoogleEnabled() && c.OAuthStateSecret == "" {
		return errors.New("OAUTH_STATE_SECRET must be provided when Google OAuth is configured", errors.CategoryBadInput)
	}

	return nil
}

// GoogleEnabled reports whether the deployment carries the full Google
// OAuth credential trio.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleCallbackURL != ""
}

// googlePartial detects a half-configured trio, which is a deployment
// mistake rather than a disabled feature.
func (c *Config) googlePartial() bool {
	any := c.GoogleClientID != "" || c.GoogleClientSecret != "" || c.GoogleCallbackURL != ""
	return any && !c.GoogleEnabled()
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
