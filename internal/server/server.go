// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/accountd/internal/config"
	"codeberg.org/oliverandrich/accountd/internal/database"
	"codeberg.org/oliverandrich/accountd/internal/handlers"
	"codeberg.org/oliverandrich/accountd/internal/i18n"
	"codeberg.org/oliverandrich/accountd/internal/metrics"
	"codeberg.org/oliverandrich/accountd/internal/repository"
	"codeberg.org/oliverandrich/accountd/internal/services/auth"
	"codeberg.org/oliverandrich/accountd/internal/services/email"
	"codeberg.org/oliverandrich/accountd/internal/services/verification"
	"codeberg.org/oliverandrich/accountd/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	slog.SetDefault(slog.New(newLogHandler(os.Stdout, cfg.Log)))

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"database", cfg.Database.Driver,
		"email", cfg.SMTP.Enabled,
	)

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	e, closeStore, err := New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	return startWithGracefulShutdown(ctx, e, cfg)
}

// New wires the store, services and routes for cfg. The returned function
// releases the store.
func New(cfg *config.Config) (*echo.Echo, func() error, error) {
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	client, closeStore, err := openStore(cfg, m)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.New(client, cfg.Database.Timeout)

	keys, err := auth.ParseKeys(cfg.Auth.ApprovedKeys)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	authSvc := auth.NewService(repo, auth.BcryptHasher{}, keys)

	gateway, err := newGateway(cfg, m)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	verifier := verification.NewManager(repo, gateway, &cfg.Verification)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	setupMiddleware(e, cfg, m)
	setupRoutes(e, handlers.New(repo, authSvc, verifier, gateway), authSvc, gateway, m)

	return e, closeStore, nil
}

// openStore selects the store client for the configured driver.
func openStore(cfg *config.Config, m *metrics.Metrics) (store.Client, func() error, error) {
	var (
		client     store.Client
		closeStore = func() error { return nil }
	)

	switch cfg.Database.Driver {
	case "memory":
		client = store.NewMemory(cfg.Database.MaxItemSize)
	case database.DriverSQLite, database.DriverPostgres:
		db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		client = store.NewSQL(db, cfg.Database.MaxItemSize)
		closeStore = db.Close
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if m != nil {
		client = store.WithObserver(client, m.StoreOperation)
	}
	return client, closeStore, nil
}

func newGateway(cfg *config.Config, m *metrics.Metrics) (email.Gateway, error) {
	if !cfg.SMTP.Enabled {
		return email.NewGateway(&cfg.SMTP, nil, cfg.Server.BaseURL), nil
	}
	mailer, err := email.NewSMTPMailer(&cfg.SMTP)
	if err != nil {
		return nil, fmt.Errorf("failed to create mailer: %w", err)
	}
	var opts []email.Option
	if m != nil {
		opts = append(opts, email.WithDeliveryObserver(m.EmailSent))
	}
	return email.NewGateway(&cfg.SMTP, mailer, cfg.Server.BaseURL, opts...), nil
}

func setupRoutes(e *echo.Echo, h *handlers.Handlers, authSvc *auth.Service, gateway email.Gateway, m *metrics.Metrics) {
	key := requireKey(authSvc)

	e.POST("/users", h.CreateUser, key)
	e.GET("/users", h.GetUser, key)
	e.PUT("/users", h.UpdateUser, key)
	e.DELETE("/users", h.DeleteUser, key)

	// The verification link is opened from the email, so only resend needs a key.
	if gateway.Enabled() {
		e.POST("/verify", h.ResendVerification, key)
		e.GET("/verify", h.Verify)
		e.GET(handlers.SuccessPath, h.VerifySuccess)
	}

	e.GET("/health", h.Health)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	// Channel for server errors
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
