package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"volunteer-api/internal/config"
	"volunteer-api/internal/db"
	"volunteer-api/internal/http/router"
	"volunteer-api/internal/security"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server_exit", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config/app.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(cfg.LogLevel, cfg.LogFormat))
	if err := cfg.Validate(); err != nil {
		return err
	}
	slog.Info("config_loaded", "path", path, "config", cfg.String())

	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer database.Close()
	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := security.EnsureExecutive(ctx, database, cfg.Seed.Email, cfg.Seed.Password, cfg.Seed.FirstName, cfg.Seed.LastName); err != nil {
		return err
	}

	// Initialize session store
	store, closeStore, err := security.NewStore(security.StoreOptions{
		Backend:  cfg.Session.Backend,
		Secret:   []byte(cfg.Secret),
		MaxAge:   cfg.Session.MaxAge,
		Secure:   cfg.Session.Secure,
		Dir:      cfg.Session.Dir,
		RedisURL: cfg.Session.RedisURL,
	})
	if err != nil {
		return err
	}
	defer closeStore()
	if cfg.Session.Backend == "filesystem" {
		if err := os.MkdirAll(cfg.Session.Dir, 0o700); err != nil {
			return err
		}
	}
	sessionStore := security.NewSessionStore(store, cfg.Session.Name)

	// Setup router
	handler := router.Setup(database, sessionStore, router.Options{
		LoginPerMinute: cfg.LoginPerMinute,
		CSRFKey:        []byte(cfg.CSRFKey),
		SecureCookies:  cfg.Session.Secure,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_start", "addr", srv.Addr, "db_driver", cfg.DBDriver, "session_backend", cfg.Session.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("server_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
