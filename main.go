package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/permpkin/admin-console/internal/config"
	"github.com/permpkin/admin-console/internal/handler"
	"github.com/permpkin/admin-console/internal/logging"
	"github.com/permpkin/admin-console/internal/repository/sqlite"
	"github.com/permpkin/admin-console/internal/schema"
	"github.com/permpkin/admin-console/internal/service"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		slog.Error("failed to build logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	db, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied", "path", cfg.Database.Path)

	userRepo := sqlite.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, cfg.Auth.SessionSecret, cfg.Auth.BcryptCost)
	userService := service.NewUserService(userRepo, authService)
	groupService := service.NewGroupService(sqlite.NewGroupRepository(db))

	// Seed the first administrator (idempotent).
	if cfg.Seed.AdminEmail != "" {
		created, err := authService.SeedAdmin(context.Background(), cfg.Seed.AdminEmail, cfg.Seed.AdminPassword)
		if err != nil {
			slog.Error("failed to seed admin", "error", err)
			os.Exit(1)
		}
		if created {
			slog.Info("admin account created", "email", cfg.Seed.AdminEmail)
		}
	}

	limiter := service.NewLoginLimiter(cfg.Auth.LoginRate, cfg.Auth.LoginBurst)
	defer limiter.Stop()
	metrics := handler.NewMetrics()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Dependencies{
		Auth:         authService,
		Users:        userService,
		Groups:       groupService,
		Validator:    schema.NewValidator(),
		Limiter:      limiter,
		Metrics:      metrics,
		DB:           db,
		CookieSecure: cfg.Server.CookieSecure,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler.Chain(mux, metrics),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
