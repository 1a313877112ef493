package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"utnode/internal/adapters/email"
	web "utnode/internal/adapters/http"
	"utnode/internal/adapters/session"
	"utnode/internal/adapters/storage"
	"utnode/internal/adapters/storage/document"
	"utnode/internal/application/orchestrators"
	"utnode/internal/config"
	"utnode/internal/domain/course"
	"utnode/internal/domain/game"
	"utnode/internal/domain/subscriber"
	"utnode/internal/domain/talk"
	"utnode/internal/domain/train"
	"utnode/internal/domain/user"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	initLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open %s: %w", redactURL(cfg.DatabaseURL), err)
	}
	timedDB := storage.NewTimedDB(db, cfg.SlowQueryMs)
	defer timedDB.Close()
	if err := storage.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	slog.Info("database_ready", "dialect", storage.DialectOf(db), "url", redactURL(cfg.DatabaseURL))
	if cfg.IsProduction() && !cfg.IsPostgres() {
		slog.Warn("sqlite_in_production", "detail", "set DATABASE_URL to a postgres:// URL to share data across instances")
	}
	stores := web.Stores{
		Users:       document.NewCollection[user.User](timedDB, user.Collection),
		Subscribers: document.NewCollection[subscriber.Subscriber](timedDB, subscriber.Collection),
		Courses:     document.NewCollection[course.Course](timedDB, course.Collection),
		Talks:       document.NewCollection[talk.Talk](timedDB, talk.Collection),
		Trains:      document.NewCollection[train.Train](timedDB, train.Collection),
		Games:       document.NewCollection[game.Game](timedDB, game.Collection),
	}

	if err := orchestrators.ExecuteSeedAdmin(ctx, orchestrators.SeedAdminInput{
		Email:    cfg.SeedAdminEmail,
		Password: cfg.SeedAdminPassword,
	}, orchestrators.SeedAdminDeps{Users: stores.Users}); err != nil {
		return err
	}

	sessionStore, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sessionKey, err := cfg.SessionKeyBytes()
	if err != nil {
		return err
	}
	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		return err
	}
	if cfg.SessionKey == "" || cfg.CSRFKey == "" {
		slog.Warn("random_secret_keys", "detail", "sessions and form tokens will not survive a restart; set SESSION_KEY and CSRF_KEY")
	}
	sessions := session.NewManager(sessionStore, sessionKey, cfg.SessionTTL, cfg.IsProduction())

	mailer := email.New(cfg.ResendAPIKey, cfg.MailFrom, cfg.MailReplyTo)
	if cfg.ResendAPIKey == "" {
		slog.Info("email_sender", "provider", "noop")
	} else {
		slog.Info("email_sender", "provider", "resend")
	}

	site, err := web.NewServer(stores, sessions, mailer, web.Options{
		StaticDir:          cfg.StaticDir,
		CSRFKey:            csrfKey,
		Secure:             cfg.IsProduction(),
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		SlowRequestMs:      cfg.SlowRequestMs,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      site.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return serve(ctx, srv, cfg.ShutdownTimeout, cfg.AppEnv)
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, env string) error {
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "addr", srv.Addr, "version", version, "env", env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutdown_started", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	srv.SetKeepAlivesEnabled(false)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("shutdown_complete")
	return nil
}

// openSessionStore uses Redis when REDIS_URL is set and memory otherwise.
func openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.RedisURL == "" {
		if cfg.IsProduction() {
			slog.Warn("memory_sessions", "detail", "sessions are lost on restart; set REDIS_URL")
		}
		return session.NewMemoryStore(), func() {}, nil
	}
	client, err := session.DialRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis %s: %w", redactURL(cfg.RedisURL), err)
	}
	slog.Info("redis_sessions", "url", redactURL(cfg.RedisURL))
	return session.NewRedisStore(client, "utnode:sess"), func() { _ = client.Close() }, nil
}

// initLogger installs the default slog logger based on configuration.
func initLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// redactURL hides credentials in connection strings before they are logged.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
