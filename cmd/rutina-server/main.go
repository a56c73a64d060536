package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mirutina/auth"
	"github.com/mirutina/auth/config"
	"github.com/mirutina/auth/server"
	"github.com/mirutina/auth/social"
	"github.com/mirutina/auth/social/providers/google"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := auth.DefaultLogger()

	db, err := openDatabase(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := createSchema(ctx, db); err != nil {
		return err
	}

	if cfg.BcryptCost >= auth.MinBcryptCost {
		auth.DefaultBcryptCost = cfg.BcryptCost
	}

	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	if _, err := auth.EnsureAdmin(ctx, repo.Users(), auth.AdminSeed{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Name:     cfg.AdminName,
	}, logger); err != nil {
		return err
	}

	tokenService := auth.NewTokenService(
		[]byte(cfg.JWTSecret),
		cfg.TokenTTLHours,
		cfg.TokenIssuer,
		nil,
		logger,
	)

	provider := auth.NewUserProvider(repo.Users()).WithLogger(logger)
	auther := auth.NewAuthenticator(provider, tokenService).WithLogger(logger)

	var socialAuth *social.SocialAuthenticator
	if cfg.GoogleEnabled() {
		socialAuth = social.NewSocialAuthenticator(
			repo.Users(),
			tokenService,
			social.SocialAuthConfig{
				StateSecret:          cfg.OAuthStateSecret,
				StateTTL:             cfg.OAuthStateTTL,
				RequireEmailVerified: true,
			},
			social.WithProvider(google.New(google.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				CallbackURL:  cfg.GoogleCallbackURL,
			})),
			social.WithLogger(logger),
		)
		logger.Info("google oauth enabled, callback %s", cfg.GoogleCallbackURL)
	} else {
		logger.Warn("google oauth disabled, no provider credentials configured")
	}

	srv := server.New(server.Options{
		Config: cfg,
		Logger: logger,
		Repo:   repo,
		Auther: auther,
		Social: socialAuth,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on :%d", cfg.Port)
		errCh <- srv.Listen()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func openDatabase(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	return db, nil
}

func createSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*auth.User)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}
