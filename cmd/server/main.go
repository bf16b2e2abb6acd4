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

	"github.com/joho/godotenv"

	"github.com/js24626/flexypay/internal/auth"
	"github.com/js24626/flexypay/internal/config"
	"github.com/js24626/flexypay/internal/models"
	"github.com/js24626/flexypay/internal/server"
	"github.com/js24626/flexypay/internal/storage"
	"github.com/js24626/flexypay/internal/storage/postgres"
	"github.com/js24626/flexypay/internal/storage/sqlite"
	"github.com/js24626/flexypay/pkg/logging"
)

func main() {
	loadLocalEnv()
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("init storage failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := seedAdmin(ctx, store, cfg); err != nil {
		slog.Error("seed admin failed", "error", err)
		os.Exit(1)
	}

	srv := server.New(cfg, store)

	go func() {
		slog.Info("flexypay backend listening", "addr", cfg.HTTPAddress())
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		slog.Warn("graceful shutdown error", "error", err)
	}
}

// openStore picks Postgres when DATABASE_URL is set and falls back to the
// local SQLite file otherwise.
func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.DatabaseURL != "" {
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		slog.Info("storage initialized", "backend", "postgres")
		return store, nil
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	slog.Info("storage initialized", "backend", "sqlite", "path", cfg.DBPath)
	return store, nil
}

// seedAdmin creates the bootstrap admin account when ADMIN_EMAIL and
// ADMIN_PASSWORD are set and no such user exists yet.
func seedAdmin(ctx context.Context, store storage.Store, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	if _, err := store.FindUserByEmail(ctx, cfg.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	passwordHash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin, err := store.CreateUser(ctx, models.User{
		Email:        cfg.AdminEmail,
		FullName:     "Admin",
		Role:         models.RoleAdmin,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return err
	}
	slog.Info("admin created", "email", admin.Email)
	return nil
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; relying on existing environment")
	}
}
